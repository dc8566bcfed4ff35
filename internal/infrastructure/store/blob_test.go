package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"meal-planner/internal/pkg/common"
)

func TestStringsBlobRoundTrip(t *testing.T) {
	values := []string{"2 chicken breasts", "1 cup breadcrumbs"}
	assert.Equal(t, values, decodeStrings(encodeStrings(values)))
}

func TestStringsBlobDefensiveDecode(t *testing.T) {
	// 欄位壞掉退空切片，不讓整筆食譜消失
	assert.Equal(t, []string{}, decodeStrings(""))
	assert.Equal(t, []string{}, decodeStrings("not json at all"))
	assert.Equal(t, []string{}, decodeStrings(`{"wrong": "shape"}`))
	assert.Equal(t, []string{}, decodeStrings("null"))
}

func TestEncodeStringsNilBecomesEmptyArray(t *testing.T) {
	assert.Equal(t, "[]", encodeStrings(nil))
}

func TestNutritionBlobRoundTrip(t *testing.T) {
	n := common.NutritionInfo{Calories: 450, Protein: "30g", Carbs: "40g", Fat: "15g"}
	assert.Equal(t, n, decodeNutrition(encodeNutrition(n)))
}

func TestNutritionBlobDefensiveDecode(t *testing.T) {
	assert.Equal(t, common.DefaultNutrition(), decodeNutrition(""))
	assert.Equal(t, common.DefaultNutrition(), decodeNutrition("garbage"))
}

func TestFamilyMatchBlobRoundTrip(t *testing.T) {
	fm := []common.FamilyMatch{
		{Name: "Amy", Score: 85, Reason: "loves Italian"},
		{Name: "Ben", Score: 0, Reason: "Contains allergen: shrimp"},
	}
	assert.Equal(t, fm, decodeFamilyMatch(encodeFamilyMatch(fm)))
}

func TestFamilyMatchBlobDefensiveDecode(t *testing.T) {
	assert.Equal(t, []common.FamilyMatch{}, decodeFamilyMatch(""))
	assert.Equal(t, []common.FamilyMatch{}, decodeFamilyMatch("{{"))
	assert.Equal(t, []common.FamilyMatch{}, decodeFamilyMatch("null"))
}
