package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"dialogue-platform/internal/appointment"
	"dialogue-platform/internal/audit"
	"dialogue-platform/internal/auth"
	"dialogue-platform/internal/classify"
	"dialogue-platform/internal/closing"
	"dialogue-platform/internal/compose"
	"dialogue-platform/internal/config"
	"dialogue-platform/internal/dialog"
	"dialogue-platform/internal/extract"
	"dialogue-platform/internal/httpapi"
	"dialogue-platform/internal/pipeline"
	"dialogue-platform/pkg/logger"
	"dialogue-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Audit stays in-memory until an insert-only table lands.
	var apptRepo appointment.Repository
	switch cfg.Dialogue.AppointmentStore {
	case "redis":
		apptRepo, err = appointment.NewRedisRepo(rdb, "appt")
	default:
		apptRepo, err = appointment.NewPostgresRepo(db)
	}
	if err != nil {
		log.Error("appointment repo init failed", "err", err)
		os.Exit(1)
	}
	appointments := appointment.NewService(apptRepo)
	auditLog := audit.NewService(audit.NewMemoryRepo())

	// Primary generator is optional; without an API key the gates run
	// template-only.
	var questionGen, closingGen compose.TextGenerator
	if cfg.OpenAI.APIKey != "" {
		gen, err := compose.NewOpenAIGeneratorFromAPIKey(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
		if err != nil {
			log.Error("generator init failed", "err", err)
			os.Exit(1)
		}
		questionGen, closingGen = gen, gen
		log.Info("primary generator enabled", "model", cfg.OpenAI.Model)
	} else {
		log.Info("no generator configured, using templates only")
	}

	questionCatalog := compose.NewCatalog(rand.New(rand.NewSource(time.Now().UnixNano())))
	closingCatalog := closing.NewCatalog(rand.New(rand.NewSource(time.Now().UnixNano())))

	questionGate := compose.NewGate(questionGen, questionCatalog.Fallback, cfg.Dialogue.QualityThreshold, cfg.Dialogue.MaxGenerationRetries)
	closingGate := compose.NewGate(closingGen, closingCatalog.Fallback, cfg.Dialogue.ClosingQualityThreshold, cfg.Dialogue.MaxGenerationRetries)
	closer := closing.NewCloser(closingGate, closingCatalog, rand.New(rand.NewSource(time.Now().UnixNano())))

	workers := cfg.Dialogue.WorkerCount
	if workers <= 0 {
		workers = max(1, runtime.NumCPU()/2)
	}
	pool := pipeline.NewWorkerPool(workers)
	defer pool.Close()

	turns := pipeline.New(
		log,
		dialog.NewRegistry(),
		classify.New(classify.NewKeywordProbe(), cfg.Dialogue.ClassificationThreshold),
		extract.New(extract.NewPatternProbe(), nil, cfg.Dialogue.ExtractionThreshold),
		dialog.NewGroupPlanner(dialog.DefaultAffinityTable()),
		questionGate,
		closer,
		appointments,
		pool,
		pipeline.NewLoadMonitor(0),
	)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := httpapi.Handlers{
		Auth:              authManager,
		Pipeline:          turns,
		Appointments:      appointments,
		Audit:             auditLog,
		Greeter:           questionCatalog,
		Redis:             rdb,
		MaxActiveSessions: cfg.Dialogue.MaxActiveSessions,
	}
	registerRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "workers", workers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
