package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"meal-planner/internal/core/ai/cache"
	openrouter "meal-planner/internal/core/service"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"
)

// Service AI 服務，負責頻率限制與快取旁路
// 實作 generation.Completer
type Service struct {
	config      *config.Config
	openRouter  *openrouter.OpenRouterService
	cache       cache.Cache
	mu          sync.Mutex
	lastRequest time.Time
}

// NewService 創建 AI 服務。cache 可為 nil 表示不快取
func NewService(cfg *config.Config, c cache.Cache) *Service {
	return &Service{
		config:     cfg,
		openRouter: openrouter.NewOpenRouterService(cfg),
		cache:      c,
	}
}

// Complete 送出 prompt 拿回模型的原始回覆
// 快取鍵以原始 prompt 計算，不做空白正規化
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	if err := s.checkRequestRate(); err != nil {
		return "", err
	}

	start := time.Now()

	if s.cacheEnabled() {
		if val, err := s.cache.Get(ctx, prompt); err == nil && val != "" {
			return val, nil
		}
	}

	content, err := s.openRouter.GenerateResponse(ctx, prompt)
	common.LogAICall(prompt, time.Since(start), err, "")
	if err != nil {
		return "", err
	}

	if s.cacheEnabled() {
		_ = s.cache.Set(ctx, prompt, content)
	}

	return content, nil
}

func (s *Service) cacheEnabled() bool {
	return s.config.Cache.Enabled && s.cache != nil
}

// checkRequestRate 與上一次請求保持最小間隔，避免連打上游
func (s *Service) checkRequestRate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.config.Generation.MinInterval > 0 && now.Sub(s.lastRequest) < s.config.Generation.MinInterval {
		return errors.New("request rate limit exceeded")
	}

	s.lastRequest = now
	return nil
}
