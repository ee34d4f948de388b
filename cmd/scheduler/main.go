package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cronhub/scheduler/config"
	"github.com/cronhub/scheduler/internal/auth"
	"github.com/cronhub/scheduler/internal/email"
	"github.com/cronhub/scheduler/internal/health"
	ctxlog "github.com/cronhub/scheduler/internal/log"
	"github.com/cronhub/scheduler/internal/jobsvc"
	"github.com/cronhub/scheduler/internal/metrics"
	"github.com/cronhub/scheduler/internal/registry"
	"github.com/cronhub/scheduler/internal/scheduler"
	"github.com/cronhub/scheduler/internal/store/postgres"
	httptransport "github.com/cronhub/scheduler/internal/transport/http"

	// Registering a job class is a side effect of importing its package.
	// Every class linked in here is registered and logged at startup;
	// JOB_CLASS_PACKAGES/JOB_CLASS_EXCLUDE_PACKAGES filter neither.
	_ "github.com/cronhub/scheduler/jobs/echo"
	_ "github.com/cronhub/scheduler/jobs/httpping"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	tableOverrides, err := cfg.TableNameOverrides()
	if err != nil {
		stop()
		log.Fatalf("config: %v", err)
	}
	tables := applyTableOverrides(postgres.DefaultTableNames(), tableOverrides)

	bootstrapCreds, err := cfg.BootstrapCredentials()
	if err != nil {
		stop()
		log.Fatalf("config: %v", err)
	}
	bootstrapUsers := make([]postgres.BootstrapUser, 0, len(bootstrapCreds))
	for _, c := range bootstrapCreds {
		bootstrapUsers = append(bootstrapUsers, postgres.BootstrapUser{Username: c.Username, BcryptHash: c.BcryptHash})
	}

	st, err := postgres.New(ctx, postgres.DefaultPoolConfig(cfg.DatabaseConfig), tables, bootstrapUsers)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer st.Close()
	logger.Info("db connected", "tables", tables)

	loc, err := cfg.Location()
	if err != nil {
		stop()
		log.Fatalf("config: %v", err)
	}

	metrics.Register()
	checker := health.NewChecker(st, logger, prometheus.DefaultRegisterer)

	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	notifier := email.NewNotifier(sender, cfg.AlertEmailTo)

	engineCfg := scheduler.DefaultConfig()
	engineCfg.ThreadPoolSize = cfg.ThreadPoolSize
	engineCfg.JobMaxInstances = cfg.JobMaxInstances
	engineCfg.MisfireGrace = time.Duration(cfg.MisfireGraceSec) * time.Second
	engineCfg.Coalesce = cfg.JobCoalesce
	engineCfg.Location = loc
	engineCfg.Hostname = hostname()
	engine := scheduler.New(engineCfg, st, logger, notifier, nil)
	if err := engine.LoadAll(ctx); err != nil {
		stop()
		log.Fatalf("scheduler: load jobs: %v", err)
	}

	engine.RunWorkers(ctx, cfg.ThreadPoolSize)
	go engine.RunLoop(ctx)
	go engine.RunStaleScan(ctx)
	metrics.WorkerStartTime.SetToCurrentTime()
	logger.Info("scheduler engine started", "registered_job_classes", registry.Names())

	authSvc := auth.New(st, []byte(cfg.JWTSecret), time.Duration(cfg.JWTExpirationDays)*24*time.Hour, logger)
	jobSvc := jobsvc.New(st, engine, logger)

	srv := &http.Server{
		Addr: cfg.ListenAddr(),
		Handler: httptransport.NewRouter(httptransport.Deps{
			Store:  st,
			Engine: engine,
			JobSvc: jobSvc,
			Auth:   authSvc,
			Health: checker,
			Logger: logger,
		}),
	}

	metricsSrv := metrics.NewServer(":" + cfg.MetricsPort)

	go func() {
		logger.Info("server started", "addr", cfg.ListenAddr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", "error", err)
		}
	}()
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	// The engine's own ctx was already cancelled above (it's derived from
	// the same signal context), so RunLoop stops dispatching new firings.
	// Wait lets in-flight workers drain with no hard timeout — an operator
	// kills the process to abandon a stuck job body.
	engine.Wait()
	metrics.WorkerShutdownsTotal.Inc()
	logger.Info("scheduler shut down")
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}

func applyTableOverrides(defaults postgres.TableNames, overrides map[string]string) postgres.TableNames {
	if v, ok := overrides["jobs"]; ok {
		defaults.Jobs = v
	}
	if v, ok := overrides["executions"]; ok {
		defaults.Executions = v
	}
	if v, ok := overrides["audit_logs"]; ok {
		defaults.AuditLogs = v
	}
	if v, ok := overrides["users"]; ok {
		defaults.Users = v
	}
	if v, ok := overrides["categories"]; ok {
		defaults.Categories = v
	}
	if v, ok := overrides["job_categories"]; ok {
		defaults.JobCategories = v
	}
	return defaults
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
