package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	familyHandler "meal-planner/internal/api/handlers/family"
	generationHandler "meal-planner/internal/api/handlers/generation"
	"meal-planner/internal/api/handlers/health"
	mealplanHandler "meal-planner/internal/api/handlers/mealplan"
	recipesHandler "meal-planner/internal/api/handlers/recipes"
	"meal-planner/internal/api/middleware"
	"meal-planner/internal/core/ai/cache"
	aiService "meal-planner/internal/core/ai/service"
	coregen "meal-planner/internal/core/generation"
	"meal-planner/internal/core/image"
	"meal-planner/internal/core/match"
	"meal-planner/internal/core/variation"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/infrastructure/store"
	"meal-planner/internal/pkg/common"
)

const (
	// 一般請求的超時，生成流程本身在背景跑不受此限
	timeoutDuration = 30 * time.Second
	// 請求體大小限制 (1MB)，這個服務不收圖片
	maxBodySize = 1 << 20
)

// SetupRouter 組路由與服務
func SetupRouter(cfg *config.Config, db *gorm.DB) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(middleware.Deduplication(cfg))

	// 初始化服務
	var aiCache cache.Cache
	if cfg.Cache.Enabled {
		switch cfg.Cache.Backend {
		case "redis":
			redisCache, err := cache.NewRedisCache(&cfg.Cache)
			if err != nil {
				common.LogError("Redis 快取初始化失敗", zap.Error(err))
				return nil, err
			}
			aiCache = redisCache
		default:
			aiCache = cache.NewManager(cfg)
		}
	}

	st := store.New(db)
	ai := aiService.NewService(cfg, aiCache)
	images := image.NewService()
	scorer := match.NewScorer(nil)
	variations := variation.NewService(ai)
	hub := coregen.NewHub()

	runner := coregen.NewRunner(st, ai, images, scorer, coregen.Options{
		MealCount:   cfg.Generation.MealCount,
		SaveTimeout: cfg.Generation.SaveTimeout,
	}).WithNotifier(hub)

	common.LogInfo("Services initialized",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("model", cfg.OpenRouter.Model),
		zap.Int("meal_count", cfg.Generation.MealCount),
	)

	healthH := health.NewHandler(cfg, db)
	familyH := familyHandler.NewHandler(st, scorer)
	recipesH := recipesHandler.NewHandler(st, scorer, variations)
	mealplanH := mealplanHandler.NewHandler(st)
	generationH := generationHandler.NewHandler(runner, hub)

	timeout := requestTimeout(timeoutDuration)

	// 健康檢查
	router.GET("/health", timeout, healthH.HealthCheck)
	router.GET("/ready", timeout, healthH.ReadinessCheck)
	router.GET("/live", timeout, healthH.LivenessCheck)

	api := router.Group("/api/v1", timeout)
	{
		familyGroup := api.Group("/family")
		{
			familyGroup.POST("", familyH.HandleCreate)
			familyGroup.GET("", familyH.HandleList)
			familyGroup.GET("/:id", familyH.HandleGet)
			familyGroup.PUT("/:id", familyH.HandleUpdate)
			familyGroup.DELETE("/:id", familyH.HandleDelete)
			familyGroup.PUT("/:id/preferences", familyH.HandleReplacePreferences)
		}

		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.GET("", recipesH.HandleList)
			recipeGroup.DELETE("", recipesH.HandleClearRecipes)
			recipeGroup.POST("/recalculate", recipesH.HandleRecalculate)
			recipeGroup.GET("/:id", recipesH.HandleGet)
			recipeGroup.DELETE("/:id", recipesH.HandleDelete)
			recipeGroup.POST("/:id/variations", recipesH.HandleVariations)
			recipeGroup.POST("/:id/ratings", recipesH.HandleAddRating)
			recipeGroup.GET("/:id/ratings", recipesH.HandleListRatings)
		}

		planGroup := api.Group("/meal-plans")
		{
			planGroup.GET("", mealplanH.HandleList)
			planGroup.DELETE("", mealplanH.HandleClearHistory)
			planGroup.GET("/:id", mealplanH.HandleGet)
			planGroup.DELETE("/:id", mealplanH.HandleDelete)
		}

		generationGroup := api.Group("/generation")
		{
			generationGroup.POST("/start", generationH.HandleStart)
			generationGroup.GET("/job", generationH.HandleJob)
		}
	}

	// SSE 串流要活過整段生成流程，不掛一般請求超時
	router.GET("/api/v1/generation/stream", generationH.HandleStream)

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}

// requestTimeout 一般請求的超時，逾時且還沒寫出任何回應時回 504
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
			})
			c.Abort()
		}
	}
}
