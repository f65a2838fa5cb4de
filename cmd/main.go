package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"trackline/internal/config"
	"trackline/internal/infrastructure/db"
	"trackline/internal/infrastructure/repository"
	"trackline/internal/realtime"
	"trackline/internal/transport"
	"trackline/internal/transport/handler"
	"trackline/internal/usecase/service"
	"trackline/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.App.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewDatabase(ctx, cfg.Database.URL, log)
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}
	defer pool.Close()

	// Репозитории
	userRepo := repository.NewUserRepository(pool, log)
	teamRepo := repository.NewTeamRepository(pool, log, cfg.Realtime.AllocatorMaxRetries)
	issueRepo := repository.NewIssueRepository(pool, log)
	commentRepo := repository.NewCommentRepository(pool, log)

	// Realtime ядро
	hub := realtime.NewHub(log)
	presence := realtime.NewTracker(cfg.Realtime.PresenceTTL, log)
	presence.StartReaper(cfg.Realtime.PresenceReapInterval)
	defer presence.Stop()

	accessSvc := service.NewAccessService(teamRepo, issueRepo, log)
	gateway := realtime.NewGateway(hub, presence, accessSvc, log)

	// Сервисы
	userSvc := service.NewUserService(userRepo, log)
	teamSvc := service.NewTeamService(teamRepo, hub, log)
	issueSvc := service.NewIssueService(issueRepo, teamRepo, hub, log)
	commentSvc := service.NewCommentService(commentRepo, hub, log)

	// Хендлеры
	userHandler := handler.NewUserHandler(userSvc, log)
	teamHandler := handler.NewTeamHandler(teamSvc, log)
	issueHandler := handler.NewIssueHandler(issueSvc, log)
	commentHandler := handler.NewCommentHandler(commentSvc, log)
	healthHandler := handler.NewHealthHandler(pool)
	wsHandler := handler.NewWSHandler(gateway, userSvc, cfg.Realtime.SendQueueSize, log)

	router := transport.NewRouter(
		userHandler,
		teamHandler,
		issueHandler,
		commentHandler,
		healthHandler,
		wsHandler,
		log,
	)

	server := transport.NewServer(cfg.App.Port, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("server start failed", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	log.Info("server stopped")
}
