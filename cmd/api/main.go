package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/authz"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/config"
	"callcenter-platform/internal/httpapi"
	"callcenter-platform/internal/metrics"
	"callcenter-platform/internal/mightycall"
	"callcenter-platform/internal/orgs"
	"callcenter-platform/internal/reportsync"
	"callcenter-platform/pkg/logger"
	"callcenter-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local development convenience; the file is optional.
	_ = godotenv.Load()

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

	// Authorization: platform roles, then the membership fallback chain,
	// then manager permission overlays.
	resolver := authz.NewResolver(
		authz.NewPGPlatformRoles(db),
		authz.NewPGMembershipChain(db),
		authz.NewPGOverlays(db),
		cfg.Authz.LookupTimeout,
	)

	// Metrics reads: Redis cache over the snapshot view, with a live
	// recompute from raw calls when the view is missing or broken.
	callRepo := calls.NewPGRepo(db)
	snapshotStore := metrics.NewPGStore(db)
	source := metrics.NewCachedSource(
		metrics.NewFallbackSource(snapshotStore, metrics.NewLiveSource(callRepo), log),
		rdb, cfg.Metrics.CacheTTL, log,
	)
	metricsSvc := metrics.NewService(source)

	auditSvc := audit.NewService(audit.NewPGRepo(db))
	orgRepo := orgs.NewPGRepo(db)
	orgSvc := orgs.NewService(orgRepo, auditSvc, log)

	provider := mightycall.NewClient(cfg.MightyCall)
	syncSvc := reportsync.NewService(provider, orgRepo, snapshotStore, source, auditSvc, rdb, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := httpapi.Handlers{
		Auth:     authManager,
		Metrics:  metricsSvc,
		Orgs:     orgSvc,
		Sync:     syncSvc,
		Provider: provider,
	}
	registerRoutes(r, h, authManager, resolver, cfg.Auth.AllowHeaderIdentity, db)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
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
}
