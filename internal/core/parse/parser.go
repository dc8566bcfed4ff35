package parse

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"meal-planner/internal/pkg/common"
)

// 容錯解析模型回覆。模型偶爾會夾帶 markdown 圍欄、前後廢話或尾逗號，
// 整批 parse 失敗時退回逐物件撈取，能救幾道是幾道
var (
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
	// 只撈含 "title" 鍵的物件，允許一層巢狀大括號(nutrition、familyMatch 的元素)
	recipeObjectPattern = regexp.MustCompile(`\{(?:[^{}]|\{[^{}]*\})*"title"(?:[^{}]|\{[^{}]*\})*\}`)
)

// Recipes 從模型的原始回覆解析出食譜清單
// 一筆都撈不到時回傳 ErrParseError
func Recipes(raw string) ([]common.RecipeCandidate, error) {
	cleaned := sanitize(raw)

	// 先照原文解析，只有失敗時才試修補沒加引號的鍵；
	// 修補用的 regex 分不出字串內容，不能碰本來就合法的回覆
	attempts := []string{cleaned}
	if repaired := common.QuoteJSONKeys(cleaned); repaired != cleaned {
		attempts = append(attempts, repaired)
	}

	for _, text := range attempts {
		var candidates []common.RecipeCandidate
		if err := common.ParseJSON(text, &candidates); err == nil {
			if valid := filterValid(candidates); len(valid) > 0 {
				return valid, nil
			}
		}

		// 整批失敗，改逐物件救援
		var recovered []common.RecipeCandidate
		for _, objText := range recipeObjectPattern.FindAllString(text, -1) {
			var c common.RecipeCandidate
			if err := common.ParseJSON(objText, &c); err != nil {
				continue
			}
			recovered = append(recovered, c)
		}
		if valid := filterValid(recovered); len(valid) > 0 {
			return valid, nil
		}
	}

	common.LogWarn("模型回覆解析失敗", zap.Int("raw_length", len(raw)))
	return nil, common.ErrParseError
}

// sanitize 去掉 markdown 圍欄、裁到最外層陣列、移除尾逗號
func sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}

	return trailingCommaPattern.ReplaceAllString(s, "$1")
}

// filterValid 留下必要欄位齊全的食譜並補預設值
func filterValid(candidates []common.RecipeCandidate) []common.RecipeCandidate {
	var valid []common.RecipeCandidate
	for _, c := range candidates {
		if strings.TrimSpace(c.Title) == "" || len(c.Ingredients) == 0 || len(c.Instructions) == 0 {
			continue
		}
		valid = append(valid, applyDefaults(c))
	}
	return valid
}

func applyDefaults(c common.RecipeCandidate) common.RecipeCandidate {
	if strings.TrimSpace(c.Description) == "" {
		c.Description = "A delicious homemade dish."
	}
	if strings.TrimSpace(c.Cuisine) == "" {
		c.Cuisine = "American"
	}
	if c.PrepTime <= 0 {
		c.PrepTime = 15
	}
	if c.CookTime <= 0 {
		c.CookTime = 30
	}
	if c.Servings <= 0 {
		c.Servings = 4
	}
	if strings.TrimSpace(c.Difficulty) == "" {
		c.Difficulty = common.DifficultyMedium
	}
	if c.Nutrition == (common.NutritionInfo{}) {
		c.Nutrition = common.DefaultNutrition()
	}
	if strings.TrimSpace(c.ImageSearchTerm) == "" {
		c.ImageSearchTerm = c.Title
	}
	if c.Tips == nil {
		c.Tips = []string{}
	}
	if c.FamilyMatch == nil {
		c.FamilyMatch = []common.FamilyMatch{}
	}
	return c
}
