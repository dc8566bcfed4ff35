package image

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveDeterministic(t *testing.T) {
	s := NewService()

	first := s.Resolve("Creamy Garlic Pasta", "Italian")
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, s.Resolve("Creamy Garlic Pasta", "Italian"))
	}
	assert.True(t, strings.HasPrefix(first, "https://images.unsplash.com/"))
	assert.Contains(t, first, "w=800&h=600&fit=crop")
}

func TestResolveDishTypeBeatsProtein(t *testing.T) {
	s := NewService()

	// "chicken tacos" 有 "tacos" 菜式，菜式優先於蛋白質
	url := s.Resolve("chicken tacos", "Mexican")
	assert.Contains(t, []string{
		unsplash("photo-1565299585323-38d6b0865b47"),
		unsplash("photo-1551504734-5ee1c4a1479b"),
	}, url)
}

func TestResolveLongerKeywordWins(t *testing.T) {
	s := NewService()

	// "stuffed shells" 要贏過 "shells"，兩者圖池相同但必須走長關鍵字
	url := s.Resolve("cheesy stuffed shells", "Italian")
	assert.Contains(t, []string{
		unsplash("photo-1574894709920-11b28e7367e3"),
		unsplash("photo-1595295333158-4742f28fbd85"),
	}, url)

	// "fried chicken" 是菜式，不可落到 "chicken" 蛋白質池
	fried := s.Resolve("southern fried chicken", "American")
	assert.Contains(t, []string{
		unsplash("photo-1626645738196-c2a7c87a8f58"),
		unsplash("photo-1598515214211-89d3c73ae83b"),
	}, fried)
}

func TestResolveSpecificStyle(t *testing.T) {
	s := NewService()

	url := s.Resolve("bulgogi beef lettuce cups", "Korean")
	// "bulgogi" 風格詞優先於 "beef" 蛋白質
	assert.Equal(t, unsplash("photo-1590301157890-4810ed352733"), url)
}

func TestResolveProteinFallback(t *testing.T) {
	s := NewService()

	url := s.Resolve("herbed salmon fillets", "Nordic")
	assert.Contains(t, []string{
		unsplash("photo-1467003909585-2f8a72700288"),
		unsplash("photo-1485921325833-c519f76c4927"),
	}, url)
}

func TestResolveProteinOrderIsFixed(t *testing.T) {
	s := NewService()

	// 同時命中 chicken 和 beef 時，永遠走排序在前的 chicken
	url := s.Resolve("surf beside chicken and beef platter", "Fusion")
	assert.Contains(t, proteinImages["chicken"], url)
}

func TestResolveCuisineFallback(t *testing.T) {
	s := NewService()

	url := s.Resolve("mystery delight", "Thai")
	assert.Contains(t, cuisineImages["Thai"], url)
}

func TestResolveGenericFallback(t *testing.T) {
	s := NewService()

	url := s.Resolve("mystery delight", "Atlantean")
	assert.Contains(t, fallbackImages, url)
}

func TestCuisineFallback(t *testing.T) {
	s := NewService()

	assert.Contains(t, cuisineImages["Italian"], s.CuisineFallback("Italian"))
	assert.Equal(t, fallbackImages[0], s.CuisineFallback("Atlantean"))
}

func TestHashStringStable(t *testing.T) {
	assert.Equal(t, hashString("Chicken Parmesan"), hashString("Chicken Parmesan"))
	assert.NotEqual(t, hashString("Chicken Parmesan"), hashString("chicken parmesan"))
	assert.GreaterOrEqual(t, hashString("anything at all"), 0)
	assert.Equal(t, 0, hashString(""))
}
