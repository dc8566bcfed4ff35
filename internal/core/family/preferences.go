package family

import (
	"meal-planner/internal/pkg/common"
)

// TaggedPreference 資料庫取出的單筆偏好列
type TaggedPreference struct {
	Category string
	Value    string
}

// BuildPreferences 將成員的偏好列組成結構化偏好
// 保留插入順序、不去重；每次需要時重新組出，不做任何快取
func BuildPreferences(memberID, memberName string, rows []TaggedPreference) common.FamilyPreferences {
	prefs := common.FamilyPreferences{
		MemberID:        memberID,
		MemberName:      memberName,
		Likes:           []string{},
		Dislikes:        []string{},
		Allergies:       []string{},
		Diets:           []string{},
		Cuisines:        []string{},
		FavoriteDishes:  []string{},
		FavoriteMeats:   []string{},
		FavoriteVeggies: []string{},
		WillingToTry:    []string{},
		Notes:           []string{},
	}

	for _, row := range rows {
		switch row.Category {
		case common.CategoryLike:
			prefs.Likes = append(prefs.Likes, row.Value)
		case common.CategoryDislike:
			prefs.Dislikes = append(prefs.Dislikes, row.Value)
		case common.CategoryAllergy:
			prefs.Allergies = append(prefs.Allergies, row.Value)
		case common.CategoryDiet:
			prefs.Diets = append(prefs.Diets, row.Value)
		case common.CategoryCuisine:
			prefs.Cuisines = append(prefs.Cuisines, row.Value)
		case common.CategoryFavoriteDish:
			prefs.FavoriteDishes = append(prefs.FavoriteDishes, row.Value)
		case common.CategoryFavoriteMeat:
			prefs.FavoriteMeats = append(prefs.FavoriteMeats, row.Value)
		case common.CategoryFavoriteVeggie:
			prefs.FavoriteVeggies = append(prefs.FavoriteVeggies, row.Value)
		case common.CategoryWillingToTry:
			prefs.WillingToTry = append(prefs.WillingToTry, row.Value)
		case common.CategoryNote:
			prefs.Notes = append(prefs.Notes, row.Value)
		}
		// 未知分類直接略過
	}

	return prefs
}

// KnownCategories 回傳所有合法的偏好分類
func KnownCategories() []string {
	return []string{
		common.CategoryLike,
		common.CategoryDislike,
		common.CategoryAllergy,
		common.CategoryDiet,
		common.CategoryCuisine,
		common.CategoryFavoriteDish,
		common.CategoryFavoriteMeat,
		common.CategoryFavoriteVeggie,
		common.CategoryWillingToTry,
		common.CategoryNote,
	}
}

// IsKnownCategory 檢查分類是否合法
func IsKnownCategory(category string) bool {
	for _, c := range KnownCategories() {
		if c == category {
			return true
		}
	}
	return false
}
