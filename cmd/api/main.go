package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hankpharris/tempora-ai-sub000/api/swagger"
	"github.com/hankpharris/tempora-ai-sub000/internal/calendar"
	"github.com/hankpharris/tempora-ai-sub000/internal/handler"
	"github.com/hankpharris/tempora-ai-sub000/internal/middleware"
	"github.com/hankpharris/tempora-ai-sub000/internal/models"
	"github.com/hankpharris/tempora-ai-sub000/internal/repository"
	"github.com/hankpharris/tempora-ai-sub000/internal/service"
	"github.com/hankpharris/tempora-ai-sub000/pkg/cache"
	"github.com/hankpharris/tempora-ai-sub000/pkg/config"
	"github.com/hankpharris/tempora-ai-sub000/pkg/database"
	"github.com/hankpharris/tempora-ai-sub000/pkg/llm"
	"github.com/hankpharris/tempora-ai-sub000/pkg/logger"
	corsmiddleware "github.com/hankpharris/tempora-ai-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/hankpharris/tempora-ai-sub000/pkg/middleware/requestid"

	"github.com/go-playground/validator/v10"
)

// @title Tempora API
// @version 1.0.0
// @description Calendar and scheduling service with an assistant-driven chat interface
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Calendar.ViewCacheTTL, logr, true)
	}

	userRepo := repository.NewUserRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	eventRepo := repository.NewEventRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "tempora",
	})
	scheduleService := service.NewScheduleService(scheduleRepo, validate, logr)
	eventService := service.NewEventService(eventRepo, scheduleService, friendshipRepo, userRepo, cacheService, validate, logr)
	friendshipService := service.NewFriendshipService(friendshipRepo, userRepo, cacheService, cfg.Friends.CacheTTL, validate, logr)
	calendarService := service.NewCalendarService(scheduleRepo, eventRepo, cacheService, metricsService,
		calendar.Options{
			PastWindowDays:   cfg.Calendar.PastWindowDays,
			FutureWindowDays: cfg.Calendar.FutureWindowDays,
			MaxPerSlot:       cfg.Calendar.MaxPerSlot,
		},
		time.Duration(cfg.Calendar.MinBlockMinutes)*time.Minute,
		cfg.Calendar.ViewCacheTTL,
		logr)
	exportService := service.NewExportService(calendarService, logr)
	adminService := service.NewAdminService(adminRepo, userRepo, validate, logr)

	var chatClient *llm.Client
	if cfg.Chat.Enabled {
		chatClient = llm.NewClient(cfg.Chat.BaseURL, cfg.Chat.APIKey, cfg.Chat.Model, cfg.Chat.RequestTimeout)
	}
	chatService := service.NewChatService(chatClient, eventService, friendshipService, scheduleService, metricsService, cfg.Chat.MaxToolRounds, cfg.Chat.Enabled, logr)

	authHandler := handler.NewAuthHandler(authService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	eventHandler := handler.NewEventHandler(eventService)
	calendarHandler := handler.NewCalendarHandler(calendarService)
	friendshipHandler := handler.NewFriendshipHandler(friendshipService, eventService)
	chatHandler := handler.NewChatHandler(chatService)
	exportHandler := handler.NewExportHandler(exportService)
	adminHandler := handler.NewAdminHandler(adminService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authService), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))

	protected.GET("/schedules", scheduleHandler.List)
	protected.POST("/schedules", scheduleHandler.Create)
	protected.GET("/schedules/:id", scheduleHandler.Get)

	protected.GET("/events", eventHandler.List)
	protected.POST("/events", eventHandler.Create)
	protected.GET("/events/:id", eventHandler.Get)
	protected.PATCH("/events/:id", eventHandler.Update)
	protected.DELETE("/events/:id", eventHandler.Delete)

	protected.GET("/calendar/month", calendarHandler.Month)
	protected.GET("/calendar/week", calendarHandler.Week)
	protected.GET("/calendar/day", calendarHandler.Day)

	protected.GET("/friends", friendshipHandler.List)
	protected.GET("/friends/search", friendshipHandler.SearchUsers)
	protected.GET("/friends/requests", friendshipHandler.Pending)
	protected.POST("/friends/requests", friendshipHandler.Request)
	protected.POST("/friends/requests/:id", friendshipHandler.Respond)
	protected.GET("/friends/:id/events", friendshipHandler.FriendEvents)

	protected.POST("/chat", chatHandler.Converse)

	if cfg.Exports.Enabled {
		protected.GET("/exports/agenda", exportHandler.Agenda)
	}

	if cfg.Admin.Enabled {
		admin := protected.Group("/admin")
		admin.Use(middleware.RequireRoles(models.RoleAdmin))
		admin.POST("/edits", adminHandler.Edit)
		admin.GET("/edits/columns", adminHandler.Columns)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
