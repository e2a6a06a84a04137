package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	rediscache "github.com/ogurasousui/codex-staff-ledger/internal/adapters/cache/redis"
	"github.com/ogurasousui/codex-staff-ledger/internal/adapters/http/handler"
	"github.com/ogurasousui/codex-staff-ledger/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/access"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/attendance"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/history"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/lifecycle"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/period"
	"github.com/ogurasousui/codex-staff-ledger/internal/platform/config"
	pg "github.com/ogurasousui/codex-staff-ledger/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-staff-ledger/internal/platform/logging"
	"github.com/ogurasousui/codex-staff-ledger/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize database pool")
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool, pg.WithLockTimeout(cfg.Database.LockTimeout))

	var profileCache access.Cache
	redisClient, err := rediscache.NewClient(ctx, cfg.Redis)
	if err != nil {
		logger.WithError(err).Warn("profile cache disabled")
	} else {
		defer redisClient.Close()
		profileCache = rediscache.NewProfileCache(redisClient, cfg.Redis.ProfileCacheTTL)
	}

	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	periodSvc := period.NewService(postgres.NewPeriodRepository(dbPool), nil, txManager)
	historySvc := history.NewService(postgres.NewHistoryRepository(dbPool), nil)
	employeeSvc := employee.NewService(employeeRepo, postgres.NewEmployeeNoSequence(dbPool), periodSvc, nil, txManager, logger)
	engine := lifecycle.NewEngine(employeeRepo, periodSvc, historySvc, nil, txManager, logger, lifecycle.WithLocation(cfg.Attendance.Location))
	attendanceSvc := attendance.NewService(
		postgres.NewAttendanceRepository(dbPool),
		postgres.NewRosterRepository(dbPool),
		nil,
		logger,
		attendance.Options{BulkConcurrency: cfg.Attendance.BulkConcurrency, Location: cfg.Attendance.Location},
	)
	accessSvc := access.NewService(postgres.NewProfileRepository(dbPool), profileCache, nil, logger)

	h := handler.New(handler.Dependencies{
		Employees:  employeeSvc,
		Lifecycle:  engine,
		Separation: lifecycle.NewSeparationWorkflow(engine),
		History:    historySvc,
		Periods:    periodSvc,
		Attendance: attendanceSvc,
		Principals: accessSvc,
		Tokens:     handler.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Health:     dbPool.Ping,
		Logger:     logger,
	})

	srv := server.New(server.Config{
		HTTPAddr:     cfg.Server.HTTPAddr,
		GRPCAddr:     cfg.Server.GRPCAddr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, h.Routes(handler.Options{
		RateLimitPerMinute: cfg.Server.RateLimitPerMin,
		RequestTimeout:     cfg.Server.RequestTimeout,
		Production:         cfg.Server.Production,
	}), dbPool.Ping, logger)

	if err := srv.Run(ctx); err != nil {
		logger.WithError(err).Fatal("server stopped with error")
	}
}
