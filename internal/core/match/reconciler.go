package match

import (
	"meal-planner/internal/pkg/common"
)

// 模型自報分數與決定性分數相差超過這個值時，連原因都不採用
const divergenceThreshold = 30

// Reconcile 合併模型自報的 familyMatch 與決定性重算結果
// 分數一律以決定性評分為準；模型只有在分數夠接近時保留它的文字原因
// 輸出順序跟 members 一致，不理會模型給的順序
func Reconcile(candidates []common.RecipeCandidate, members []common.FamilyPreferences, scorer *Scorer) []common.RecipeCandidate {
	out := make([]common.RecipeCandidate, len(candidates))

	for i, candidate := range candidates {
		// 模型給的分數以成員名稱對照
		modelMatch := make(map[string]common.FamilyMatch, len(candidate.FamilyMatch))
		for _, fm := range candidate.FamilyMatch {
			if _, exists := modelMatch[fm.Name]; !exists {
				modelMatch[fm.Name] = fm
			}
		}

		recipe := RecipeInput{
			Title:       candidate.Title,
			Cuisine:     candidate.Cuisine,
			Description: candidate.Description,
			Ingredients: candidate.Ingredients,
		}

		resolved := make([]common.FamilyMatch, 0, len(members))
		for _, member := range members {
			det := scorer.Score(recipe, member)

			entry := common.FamilyMatch{
				Name:   member.MemberName,
				Score:  det.Score,
				Reason: det.Reason,
			}

			if fm, ok := modelMatch[member.MemberName]; ok {
				diff := fm.Score - det.Score
				if diff < 0 {
					diff = -diff
				}
				// 分數接近時模型的文字說明通常比較具體，留下來
				if diff <= divergenceThreshold && fm.Reason != "" {
					entry.Reason = fm.Reason
				}
			}

			resolved = append(resolved, entry)
		}

		candidate.FamilyMatch = resolved
		out[i] = candidate
	}

	return out
}
