package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// OpenRouterService OpenRouter 服務
type OpenRouterService struct {
	config *config.Config
	client *resty.Client
}

// NewOpenRouterService 創建 OpenRouter 服務
func NewOpenRouterService(cfg *config.Config) *OpenRouterService {
	client := resty.New().
		SetBaseURL("https://openrouter.ai/api/v1").
		SetTimeout(cfg.OpenRouter.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.OpenRouter.APIKey)).
		SetHeader("HTTP-Referer", "https://meal-planner.local").
		SetHeader("X-Title", "Meal Planner")

	return &OpenRouterService{
		config: cfg,
		client: client,
	}
}

// GenerateResponse 把 prompt 原封不動送出去
// prompt 的排版是刻意的，不做任何壓縮
func (s *OpenRouterService) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	req := map[string]interface{}{
		"model": s.config.OpenRouter.Model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"max_tokens": s.config.OpenRouter.MaxTokens,
	}

	start := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")

	if err != nil {
		common.LogError("OpenRouter 請求失敗", zap.Error(err))
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogError("OpenRouter 回傳錯誤狀態",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()))
		return "", fmt.Errorf("OpenRouter API returned error: %s", resp.String())
	}

	// 解析回應
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenRouter response")
	}

	content := result.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty content in OpenRouter response")
	}

	common.LogInfo("OpenRouter 回應成功",
		zap.Duration("duration", time.Since(start)),
		zap.Int("response_length", len(content)))

	return content, nil
}
