package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/cache"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/config"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/domain"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/handler"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/hub"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/presence"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/repository"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/service"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/database"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/jwt"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/log"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	logger := log.L()

	// Database
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db,
		&domain.User{},
		&domain.Channel{},
		&domain.ChannelMember{},
		&domain.Message{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Repositories
	userRepo := repository.NewGormUserRepository(db)
	channelRepo := repository.NewGormChannelRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	// Optional member cache
	var memberCache cache.MemberCache
	if cfg.Redis.Address != "" {
		rc, err := cache.NewRedisMemberCache(cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rc.Close()
		memberCache = rc
		logger.Info().Str("address", cfg.Redis.Address).Msg("member cache enabled")
	}

	// Realtime core
	h := hub.NewHub()
	go h.Run()

	registry := presence.NewRegistry()
	tracker := presence.NewTracker()
	syncService := service.NewSyncService(h, registry, tracker, channelRepo, messageRepo, memberCache)

	// Services
	tokens := jwt.NewManager(cfg.Auth.Secret, cfg.Auth.TokenDuration, cfg.Auth.Issuer)
	userService := service.NewUserService(userRepo, tokens)
	channelService := service.NewChannelService(channelRepo, memberCache)
	messageService := service.NewMessageService(messageRepo, userRepo, h, syncService)

	// HTTP + WebSocket
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(log.GinMiddleware(logger))
	router.Use(gin.Recovery())

	authMiddleware := middleware.NewAuthMiddleware(tokens)
	httpHandler := handler.NewHTTPHandler(
		userService,
		channelService,
		messageService,
		authMiddleware,
		int(cfg.Auth.TokenDuration.Seconds()),
		false,
	)
	httpHandler.RegisterRoutes(router)

	wsHandler := handler.NewWSHandler(h, syncService, cfg.WebSocket)
	router.GET("/ws", wsHandler.HandleWebSocket)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}

	logger.Info().Msg("server stopped")
}
