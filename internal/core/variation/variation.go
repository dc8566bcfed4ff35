package variation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"meal-planner/internal/pkg/common"
)

// 蛋白質替換：拿一道已存的食譜問模型「換別種蛋白質會長怎樣」，
// 結果直接回給呼叫端，不入庫

// Input 要做替換的原始食譜
type Input struct {
	Title        string
	Description  string
	Cuisine      string
	Ingredients  []string
	Instructions []string
}

// Variation 一種蛋白質替換後的版本
type Variation struct {
	ProteinSubstitution  string   `json:"proteinSubstitution"`
	ModifiedTitle        string   `json:"modifiedTitle"`
	ModifiedIngredients  []string `json:"modifiedIngredients"`
	ModifiedInstructions []string `json:"modifiedInstructions"`
	Notes                string   `json:"notes"`
}

// Completer 與生成流程共用的模型介面
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Service 以模型產生蛋白質替換版本
type Service struct {
	ai Completer
}

// NewService 創建替換服務
func NewService(ai Completer) *Service {
	return &Service{ai: ai}
}

// Generate 要求模型給出 3~5 種替換，一筆都解析不出來回 ErrParseError
func (s *Service) Generate(ctx context.Context, in Input) ([]Variation, error) {
	raw, err := s.ai.Complete(ctx, BuildPrompt(in))
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// BuildPrompt 組出替換用的 prompt，相同輸入永遠產生相同文字
func BuildPrompt(in Input) string {
	var b strings.Builder

	b.WriteString("You are a culinary expert. Given the following recipe, generate 3-5 variations by substituting different proteins. Focus on protein substitutions that work well with the recipe's cooking method and cuisine style.\n\n")

	b.WriteString("Original Recipe:\n")
	fmt.Fprintf(&b, "Title: %s\n", in.Title)
	fmt.Fprintf(&b, "Description: %s\n", in.Description)
	fmt.Fprintf(&b, "Cuisine: %s\n", in.Cuisine)

	b.WriteString("Ingredients:\n")
	for i, ing := range in.Ingredients {
		fmt.Fprintf(&b, "%d. %s\n", i+1, ing)
	}

	b.WriteString("\nInstructions:\n")
	for i, step := range in.Instructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	b.WriteString(`
Generate 3-5 recipe variations, each with a different protein substitution. For each variation, provide:
1. The protein substitution (e.g., "chicken instead of beef", "tofu instead of pork")
2. A modified title that reflects the protein change
3. Modified ingredients list (only change the protein-related ingredients, keep everything else the same)
4. Modified instructions (only adjust steps that specifically mention the protein, keep cooking times and methods similar)
5. Brief notes about why this substitution works and any cooking tips

Return your response as a JSON array with this exact structure:
[
  {
    "proteinSubstitution": "chicken instead of beef",
    "modifiedTitle": "Chicken [Original Title]",
    "modifiedIngredients": ["list", "of", "modified", "ingredients"],
    "modifiedInstructions": ["list", "of", "modified", "instructions"],
    "notes": "Brief explanation of why this works and any tips"
  }
]

IMPORTANT:
- Return ONLY valid JSON, no markdown, no code blocks, no extra text
- Keep the same number of ingredients and instructions
- Only modify protein-related items, keep all other ingredients and steps the same
- Make sure the cooking method and times remain appropriate for the substituted protein
- Provide practical, realistic substitutions that maintain the dish's character`)

	return b.String()
}

// Parse 容錯解析模型回覆，去掉圍欄、裁到最外層陣列
func Parse(raw string) ([]Variation, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}

	var parsed []Variation
	if err := common.ParseJSON(s, &parsed); err != nil {
		common.LogWarn("替換回覆解析失敗", zap.Int("raw_length", len(raw)))
		return nil, common.ErrParseError
	}

	var valid []Variation
	for _, v := range parsed {
		if strings.TrimSpace(v.ModifiedTitle) == "" || strings.TrimSpace(v.ProteinSubstitution) == "" {
			continue
		}
		valid = append(valid, v)
	}
	if len(valid) == 0 {
		return nil, common.ErrParseError
	}
	return valid, nil
}
