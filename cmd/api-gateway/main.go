package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/lms-insight-api/api/swagger"
	"github.com/noah-isme/lms-insight-api/internal/ai"
	"github.com/noah-isme/lms-insight-api/internal/handler"
	"github.com/noah-isme/lms-insight-api/internal/middleware"
	"github.com/noah-isme/lms-insight-api/internal/repository"
	"github.com/noah-isme/lms-insight-api/internal/service"
	"github.com/noah-isme/lms-insight-api/pkg/cache"
	"github.com/noah-isme/lms-insight-api/pkg/config"
	"github.com/noah-isme/lms-insight-api/pkg/database"
	"github.com/noah-isme/lms-insight-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-insight-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-insight-api/pkg/middleware/requestid"
)

// @title LMS Insight API
// @version 0.1.0
// @description Attendance analytics and AI assistant endpoints for the LMS
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Insights.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Insights.CacheTTL, logr, true)
			defer cacheRepo.Close()
		}
	}

	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	historyRepo := repository.NewChatHistoryRepository(db)

	authSvc := service.NewAuthService(cfg.JWT)
	insightSvc := service.NewInsightService(studentRepo, attendanceRepo, cacheSvc, metricsSvc, logr, cfg.Insights)
	lookupSvc := service.NewStudentLookupService(studentRepo, logr)
	historySvc := service.NewChatHistoryService(historyRepo, logr, cfg.Chat)
	historySvc.Start(context.Background())
	defer historySvc.Stop()

	provider := ai.NewOpenAIProvider(cfg.AI)
	chatSvc := service.NewChatService(provider, insightSvc, lookupSvc, historySvc, metricsSvc, logr)

	insightHandler := handler.NewInsightHandler(insightSvc)
	chatHandler := handler.NewChatHandler(chatSvc, historySvc, logr)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	{
		api.GET("/ai/attendance-summary", insightHandler.AttendanceSummary)
		api.GET("/ai/attendance-summary/export", insightHandler.ExportAttendanceSummary)
		api.GET("/ai/student-attendance/:id", insightHandler.StudentAttendance)

		api.POST("/chat", chatHandler.Converse)
		api.GET("/chat-history", chatHandler.History)
		api.DELETE("/chat-history/:id", middleware.StaffOnly(), chatHandler.DeleteHistory)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
