package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/St1cky1/todo-service/internal/api"
	grpcapi "github.com/St1cky1/todo-service/internal/api/grpc"
	"github.com/St1cky1/todo-service/internal/config"
	"github.com/St1cky1/todo-service/internal/infrastructure/auth"
	"github.com/St1cky1/todo-service/internal/infrastructure/cache"
	"github.com/St1cky1/todo-service/internal/infrastructure/client"
	"github.com/St1cky1/todo-service/internal/repository"
	"github.com/St1cky1/todo-service/internal/usecase"
	"github.com/St1cky1/todo-service/internal/worker"
	"github.com/St1cky1/todo-service/migrations"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"
)

func main() {
	// .env нужен только локально
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Запускаем миграции
	if err := runMigrations(cfg.Database.URL()); err != nil {
		return err
	}
	logger.Info("migrations applied")

	db, err := client.NewPostgresClient(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to postgres", "host", cfg.Database.Host, "db", cfg.Database.DBName)

	rabbitMQ, err := client.NewRabbitMQClient(cfg.RabbitMQ.URL(), cfg.RabbitMQ.Queue)
	if err != nil {
		return err
	}
	defer rabbitMQ.Close()
	logger.Info("connected to rabbitmq", "queue", rabbitMQ.QueueName())

	// Инициализируем репозитории
	var taskRepo repository.ITaskRepository = repository.NewTaskRepository(db.Pool)
	if cfg.RedisEnabled() {
		taskCache, err := cache.NewTaskCache(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer taskCache.Close()
		taskRepo = repository.NewCachedTaskRepository(taskRepo, taskCache, logger)
		logger.Info("task cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}
	userRepo := repository.NewUserRepository(db.Pool)
	taskAuditRepo := repository.NewTaskAuditRepository(db.Pool)

	jwtManager := auth.NewJWTManager(cfg.JWT)

	// Инициализируем сервисы
	taskService := usecase.NewTaskService(taskRepo, rabbitMQ, logger)
	authService := usecase.NewAuthService(userRepo, auth.NewPasswordManager(), jwtManager, logger)
	auditService := usecase.NewAuditService(taskRepo, taskAuditRepo)

	if cfg.Admin.Password != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	var wg sync.WaitGroup

	// Запускаем воркер для обработки аудит-сообщений
	auditWorker := worker.NewAuditWorker(cfg.RabbitMQ.URL(), cfg.RabbitMQ.Queue, taskAuditRepo, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		auditWorker.Start(ctx)
	}()

	httpServer := &http.Server{
		Addr: ":" + cfg.Server.HTTPPort,
		Handler: api.NewRouter(api.RouterDeps{
			TaskService:  taskService,
			AuthService:  authService,
			AuditService: auditService,
			Tokens:       jwtManager,
			Health:       db,
			Logger:       logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcServer := grpcapi.NewGRPCServer(taskService, jwtManager, logger)

	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := grpcServer.Start(cfg.Server.GRPCPort); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		logger.Error("server failed, shutting down", "error", serveErr)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	grpcServer.Stop()

	wg.Wait()
	// аудит дописываем до закрытия соединения с RabbitMQ
	taskService.WaitPublishes()
	logger.Info("server stopped")
	return serveErr
}

func runMigrations(dbURL string) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
