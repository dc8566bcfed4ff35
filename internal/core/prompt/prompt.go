package prompt

import (
	"fmt"
	"sort"
	"strings"

	"meal-planner/internal/pkg/common"
)

// FamilySummary 全家偏好的彙總，只在組 prompt 時使用，不落地
type FamilySummary struct {
	CommonCuisines []string // 最多 5 筆，依被列出的成員數排序
	AllAllergies   []string // 所有成員的過敏原聯集
	AllDiets       []string // 所有成員的飲食限制聯集
	AllDislikes    []string // 所有成員不喜歡食材的聯集
	PopularMeats   []string // 最多 5 筆
	PopularVeggies []string // 最多 5 筆
	PopularDishes  []string // 最多 5 筆
}

// Input 組 prompt 的所有輸入
type Input struct {
	Members      []common.FamilyPreferences
	HighRated    []common.RatingInfo
	LowRated     []common.RatingInfo
	RecentTitles []string
	MealCount    int
}

// AggregateFamily 彙總所有成員的偏好
// 聯集保留首次出現順序；熱門排行依列出人數排序，同票比誰先出現
func AggregateFamily(members []common.FamilyPreferences) FamilySummary {
	allergies := newOrderedSet()
	diets := newOrderedSet()
	dislikes := newOrderedSet()
	cuisines := newCounter()
	meats := newCounter()
	veggies := newCounter()
	dishes := newCounter()

	for _, member := range members {
		for _, v := range member.Allergies {
			allergies.add(v)
		}
		for _, v := range member.Diets {
			diets.add(v)
		}
		for _, v := range member.Dislikes {
			dislikes.add(v)
		}
		for _, v := range member.Cuisines {
			cuisines.add(v)
		}
		for _, v := range member.FavoriteMeats {
			meats.add(v)
		}
		for _, v := range member.FavoriteVeggies {
			veggies.add(v)
		}
		for _, v := range member.FavoriteDishes {
			dishes.add(v)
		}
	}

	return FamilySummary{
		CommonCuisines: cuisines.top(5),
		AllAllergies:   allergies.values(),
		AllDiets:       diets.values(),
		AllDislikes:    dislikes.values(),
		PopularMeats:   meats.top(5),
		PopularVeggies: veggies.top(5),
		PopularDishes:  dishes.top(5),
	}
}

// Build 組出送給模型的完整請求文字
// 純函數：相同輸入必須產出逐位元組相同的 prompt，方便測試與除錯
func Build(input Input) string {
	summary := AggregateFamily(input.Members)

	var b strings.Builder

	fmt.Fprintf(&b, "You are a family meal planning expert. Generate %d dinner recipes that will please the ENTIRE family based on their combined preferences and past feedback.\n\n", input.MealCount)
	fmt.Fprintf(&b, "## FAMILY OVERVIEW (%d members)\n\n", len(input.Members))

	// 硬性限制先行：過敏與飲食限制
	if len(summary.AllAllergies) > 0 {
		b.WriteString("### CRITICAL - ALLERGIES (NEVER include these ingredients)\n")
		b.WriteString(strings.Join(summary.AllAllergies, ", ") + "\n\n")
	}
	if len(summary.AllDiets) > 0 {
		b.WriteString("### Dietary Restrictions (ALL recipes must comply)\n")
		b.WriteString(strings.Join(summary.AllDiets, ", ") + "\n\n")
	}
	if len(summary.AllDislikes) > 0 {
		b.WriteString("### Foods to Avoid (disliked by family members)\n")
		b.WriteString(strings.Join(summary.AllDislikes, ", ") + "\n\n")
	}
	if len(summary.CommonCuisines) > 0 {
		b.WriteString("### Family's Favorite Cuisines (prioritize these)\n")
		b.WriteString(strings.Join(summary.CommonCuisines, ", ") + "\n\n")
	}
	if len(summary.PopularMeats) > 0 {
		b.WriteString("### Popular Proteins in the Family\n")
		b.WriteString(strings.Join(summary.PopularMeats, ", ") + "\n\n")
	}
	if len(summary.PopularVeggies) > 0 {
		b.WriteString("### Popular Vegetables in the Family\n")
		b.WriteString(strings.Join(summary.PopularVeggies, ", ") + "\n\n")
	}
	if len(summary.PopularDishes) > 0 {
		b.WriteString("### Family's Favorite Dishes (use as inspiration)\n")
		b.WriteString(strings.Join(summary.PopularDishes, ", ") + "\n\n")
	}

	// 個別成員：過敏和不喜歡放最前面標成 critical
	b.WriteString("## Individual Member Preferences\n\n")
	for _, member := range input.Members {
		fmt.Fprintf(&b, "### %s\n", member.MemberName)
		var prefs []string
		if len(member.Allergies) > 0 {
			prefs = append(prefs, "ALLERGIES (critical): "+strings.Join(member.Allergies, ", "))
		}
		if len(member.Dislikes) > 0 {
			prefs = append(prefs, "Dislikes (critical): "+strings.Join(member.Dislikes, ", "))
		}
		if len(member.Diets) > 0 {
			prefs = append(prefs, "Diet: "+strings.Join(member.Diets, ", "))
		}
		if len(member.Cuisines) > 0 {
			prefs = append(prefs, "Cuisines: "+strings.Join(member.Cuisines, ", "))
		}
		if len(member.FavoriteDishes) > 0 {
			prefs = append(prefs, "Favorite dishes: "+strings.Join(member.FavoriteDishes, ", "))
		}
		if len(member.FavoriteMeats) > 0 {
			prefs = append(prefs, "Proteins: "+strings.Join(member.FavoriteMeats, ", "))
		}
		if len(member.FavoriteVeggies) > 0 {
			prefs = append(prefs, "Veggies: "+strings.Join(member.FavoriteVeggies, ", "))
		}
		if len(member.Likes) > 0 {
			prefs = append(prefs, "Also likes: "+strings.Join(member.Likes, ", "))
		}
		if len(member.WillingToTry) > 0 {
			prefs = append(prefs, "Willing to try: "+strings.Join(member.WillingToTry, ", "))
		}
		if len(member.Notes) > 0 {
			prefs = append(prefs, "Notes: "+strings.Join(member.Notes, "; "))
		}
		b.WriteString(strings.Join(prefs, " | ") + "\n\n")
	}

	// 過往評分當學習訊號
	if len(input.HighRated) > 0 || len(input.LowRated) > 0 {
		b.WriteString("## IMPORTANT: PAST RECIPE FEEDBACK\n\n")
		b.WriteString("The family has rated previous recipes. Use this feedback to guide your choices:\n\n")
	}
	if len(input.HighRated) > 0 {
		b.WriteString("### HITS - Recipes the family LOVED (create similar dishes)\n")
		for _, r := range input.HighRated {
			fmt.Fprintf(&b, "- %q - %.1f/5 stars (%d ratings)\n", r.RecipeTitle, r.AverageScore, r.RatingCount)
		}
		b.WriteString("\n")
	}
	if len(input.LowRated) > 0 {
		b.WriteString("### MISSES - Recipes the family did NOT enjoy (avoid similar dishes)\n")
		for _, r := range input.LowRated {
			fmt.Fprintf(&b, "- %q - %.1f/5 stars (%d ratings)\n", r.RecipeTitle, r.AverageScore, r.RatingCount)
		}
		b.WriteString("\n")
	}

	if len(input.RecentTitles) > 0 {
		b.WriteString("## Recently Made (do NOT repeat these)\n")
		b.WriteString(strings.Join(input.RecentTitles, ", ") + "\n\n")
	}

	b.WriteString(instructionBlock(input.MealCount))

	return b.String()
}

// instructionBlock 固定的輸出格式指示，含 familyMatch 的計分準則
// 準則刻意跟決定性評分器同一套優先順序，讓模型自報分數不會偏離太多
func instructionBlock(mealCount int) string {
	return fmt.Sprintf(`## RECIPE SELECTION STRATEGY
1. SAFETY FIRST: Never include any allergens
2. RESPECT DIETS: All recipes must comply with dietary restrictions
3. MAXIMIZE ENJOYMENT: Choose dishes that incorporate family favorites
4. LEARN FROM FEEDBACK: Create dishes similar to high-rated recipes, avoid patterns from low-rated ones
5. VARIETY: Include different cuisines and cooking methods across the week
6. BALANCE: Try to include something each family member will love

## Response Format
Return ONLY a valid JSON array with %d recipes. No markdown, no extra text.
{
  "title": "Recipe Name",
  "description": "Brief 1-2 sentence description",
  "cuisine": "Italian",
  "prepTime": 15,
  "cookTime": 30,
  "servings": 4,
  "difficulty": "Medium",
  "ingredients": ["2 chicken breasts", "1 cup breadcrumbs", "1/2 cup parmesan cheese"],
  "instructions": [
    "Preheat oven to 375°F and grease a 9x13 baking dish with butter or cooking spray. Set aside.",
    "Cook the bacon in a large skillet over medium heat for 8-10 minutes, flipping occasionally, until crispy and golden."
  ],
  "tips": ["Tip 1"],
  "nutrition": {"calories": 450, "protein": "30g", "carbs": "40g", "fat": "15g"},
  "imageSearchTerm": "dish name",
  "familyMatch": [
    {"name": "Member Name", "score": 85, "reason": "Brief reason why they'd like it"}
  ]
}

IMPORTANT INSTRUCTIONS:
- Return valid JSON only. No trailing commas. No comments.
- For ingredients: EACH ingredient MUST include quantity and unit. Use standard measurements: cups, tbsp, tsp, oz, lb, g, ml, cloves, slices, etc. Examples: "2 chicken breasts", "1 cup breadcrumbs", "1/2 tsp salt", "3 cloves garlic". Never list ingredients without amounts.
- For instructions: Each step must be DETAILED and instructional. Include: exact temperatures (e.g., "375°F"), cooking times (e.g., "8-10 minutes"), heat levels (e.g., "medium-high"), techniques (e.g., "whisk until smooth"), and doneness cues (e.g., "until no pink remains"). Break complex actions into separate steps. Avoid vague phrases like "cook until done".
- For familyMatch: Include a score (0-100) for EACH family member, scored in this strict priority order: any allergen present means 0; any dietary-restriction conflict or disliked ingredient caps the score at 20 or below regardless of other matches; otherwise start from 50 and add points for favorite cuisine, favorite dishes, preferred proteins, preferred vegetables, and liked ingredients. The reason should be a brief explanation (e.g., "loves Italian cuisine" or "contains disliked ingredient").`, mealCount)
}

// orderedSet 保留首次出現順序的集合
type orderedSet struct {
	seen  map[string]struct{}
	order []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.order = append(s.order, v)
}

func (s *orderedSet) values() []string {
	if s.order == nil {
		return []string{}
	}
	return s.order
}

// counter 計數器，top 依數量排序、同票比首次出現順序
type counter struct {
	counts map[string]int
	first  map[string]int
	order  int
}

func newCounter() *counter {
	return &counter{
		counts: make(map[string]int),
		first:  make(map[string]int),
	}
}

func (c *counter) add(v string) {
	if v == "" {
		return
	}
	if _, ok := c.counts[v]; !ok {
		c.first[v] = c.order
		c.order++
	}
	c.counts[v]++
}

func (c *counter) top(n int) []string {
	items := make([]string, 0, len(c.counts))
	for v := range c.counts {
		items = append(items, v)
	}
	sort.Slice(items, func(i, j int) bool {
		if c.counts[items[i]] != c.counts[items[j]] {
			return c.counts[items[i]] > c.counts[items[j]]
		}
		return c.first[items[i]] < c.first[items[j]]
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}
