package store

import (
	"encoding/json"

	"meal-planner/internal/pkg/common"
)

// JSON 文字欄位的編解碼
// 讀取失敗一律退回空值，不往外傳錯誤：資料欄壞掉不該讓整個請求失敗

// encodeStrings 將字串切片編成 JSON 文字
func encodeStrings(values []string) string {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeStrings 將 JSON 文字解回字串切片，解不開回空切片
func decodeStrings(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return []string{}
	}
	if values == nil {
		return []string{}
	}
	return values
}

// encodeNutrition 編碼營養資訊
func encodeNutrition(n common.NutritionInfo) string {
	data, err := json.Marshal(n)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// decodeNutrition 解碼營養資訊，解不開回中性預設值
func decodeNutrition(raw string) common.NutritionInfo {
	if raw == "" {
		return common.DefaultNutrition()
	}
	var n common.NutritionInfo
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return common.DefaultNutrition()
	}
	return n
}

// encodeFamilyMatch 編碼成員喜好評分
func encodeFamilyMatch(fm []common.FamilyMatch) string {
	if fm == nil {
		fm = []common.FamilyMatch{}
	}
	data, err := json.Marshal(fm)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeFamilyMatch 解碼成員喜好評分，解不開回空切片
func decodeFamilyMatch(raw string) []common.FamilyMatch {
	if raw == "" {
		return []common.FamilyMatch{}
	}
	var fm []common.FamilyMatch
	if err := json.Unmarshal([]byte(raw), &fm); err != nil {
		return []common.FamilyMatch{}
	}
	if fm == nil {
		return []common.FamilyMatch{}
	}
	return fm
}
