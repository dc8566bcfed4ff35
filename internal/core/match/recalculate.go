package match

import (
	"context"
	"fmt"

	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// StoredRecipe 重算分數所需的已入庫食譜欄位
type StoredRecipe struct {
	ID          string
	Title       string
	Cuisine     string
	Description string
	Ingredients []string
}

// Store 重算分數需要的持久層操作
type Store interface {
	ListFamilyPreferences(ctx context.Context) ([]common.FamilyPreferences, error)
	ListRecipesForScoring(ctx context.Context) ([]StoredRecipe, error)
	GetRecipeForScoring(ctx context.Context, recipeID string) (*StoredRecipe, error)
	UpdateRecipeFamilyMatch(ctx context.Context, recipeID string, familyMatch []common.FamilyMatch) error
}

// RecalculateAll 用當前偏好重算所有食譜的 familyMatch，偏好更新後呼叫
// 回傳實際更新的食譜數
func RecalculateAll(ctx context.Context, st Store, scorer *Scorer) (int, error) {
	members, err := st.ListFamilyPreferences(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load family preferences: %w", err)
	}

	recipes, err := st.ListRecipesForScoring(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load recipes: %w", err)
	}

	updated := 0
	for _, recipe := range recipes {
		familyMatch := scoreForMembers(recipe, members, scorer)
		if err := st.UpdateRecipeFamilyMatch(ctx, recipe.ID, familyMatch); err != nil {
			return updated, fmt.Errorf("failed to update recipe %s: %w", recipe.ID, err)
		}
		updated++
	}

	common.LogInfo("重算喜好分數完成",
		zap.Int("updated", updated),
		zap.Int("members", len(members)),
	)

	return updated, nil
}

// RecalculateOne 重算單一食譜的 familyMatch
func RecalculateOne(ctx context.Context, st Store, scorer *Scorer, recipeID string) ([]common.FamilyMatch, error) {
	members, err := st.ListFamilyPreferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load family preferences: %w", err)
	}

	recipe, err := st.GetRecipeForScoring(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("recipe not found: %s", recipeID)
	}

	familyMatch := scoreForMembers(*recipe, members, scorer)
	if err := st.UpdateRecipeFamilyMatch(ctx, recipeID, familyMatch); err != nil {
		return nil, fmt.Errorf("failed to update recipe %s: %w", recipeID, err)
	}

	return familyMatch, nil
}

func scoreForMembers(recipe StoredRecipe, members []common.FamilyPreferences, scorer *Scorer) []common.FamilyMatch {
	input := RecipeInput{
		Title:       recipe.Title,
		Cuisine:     recipe.Cuisine,
		Description: recipe.Description,
		Ingredients: recipe.Ingredients,
	}

	familyMatch := make([]common.FamilyMatch, 0, len(members))
	for _, member := range members {
		result := scorer.Score(input, member)
		familyMatch = append(familyMatch, common.FamilyMatch{
			Name:   member.MemberName,
			Score:  result.Score,
			Reason: result.Reason,
		})
	}
	return familyMatch
}
