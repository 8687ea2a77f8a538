package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/houzhh15/resumedit/cmd/server/internal/api"
	"github.com/houzhh15/resumedit/cmd/server/internal/audit"
	"github.com/houzhh15/resumedit/cmd/server/internal/config"
	"github.com/houzhh15/resumedit/cmd/server/internal/factcheck"
	"github.com/houzhh15/resumedit/cmd/server/internal/history"
	"github.com/houzhh15/resumedit/cmd/server/internal/middleware"
	"github.com/houzhh15/resumedit/cmd/server/internal/services"
	"github.com/houzhh15/resumedit/pkg/logger"
	"github.com/houzhh15/resumedit/pkg/markupdiff"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logInstance, err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Environment: logEnvironment(cfg),
		WithSource:  !cfg.IsProduction(),
		File:        cfg.Log.File,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "web-server")

	// Validate configuration
	if err := config.ValidateConfig(cfg); err != nil {
		appLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)
	appLogger.Debug(cfg.PrintConfig())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// History store over the JSON file
	store := history.NewStore(
		history.NewFileStorage(cfg.Data.HistoryFile),
		history.WithLogger(logInstance.With("component", "history")),
	)
	appLogger.Info("history store ready", "file", cfg.Data.HistoryFile, "max_entries", history.MaxEntries)

	// Audit log
	var auditLogger audit.AuditLogger = audit.NopAuditLogger{}
	if cfg.Audit.LogPath != "" {
		fileAudit, err := audit.NewFileAuditLogger(cfg.Audit.LogPath, audit.Options{
			MaxSizeMB:  cfg.Audit.MaxSizeMB,
			MaxBackups: cfg.Audit.MaxBackups,
			MaxAgeDays: cfg.Audit.MaxAgeDays,
		})
		if err != nil {
			appLogger.Error("audit logger init failed", "error", err)
			os.Exit(1)
		}
		defer fileAudit.Close()
		auditLogger = fileAudit
		appLogger.Info("audit log ready", "path", cfg.Audit.LogPath)
	}

	editService := services.NewEditService(
		store,
		factcheck.NewChecker(cfg.FactCheck.SimilarityThreshold),
		auditLogger,
		logInstance,
		markupdiff.Options{
			IgnoreWhitespace: cfg.Diff.IgnoreWhitespace,
			IgnoreCase:       cfg.Diff.IgnoreCase,
		},
	)
	limiter := middleware.NewConcurrencyLimiter(cfg.Diff.MaxConcurrent, middleware.DefaultAcquireTimeout)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	startTime := time.Now()
	r.GET("/health", healthCheckHandler(cfg, startTime))
	r.GET("/api/v1/health", healthCheckHandler(cfg, startTime))
	r.GET("/readiness", readinessCheckHandler(cfg))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api.RegisterEditRoutes(r, api.NewEditHandler(editService), limiter, cfg.Diff.MaxInputBytes)

	// Create HTTP server with graceful shutdown
	serverAddr := cfg.GetServerAddr()
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("server starting", "addr", serverAddr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	appLogger.Info("shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	appLogger.Info("server shutdown complete")
}

// logEnvironment 生产环境或显式要求 json 格式时使用 JSON 日志
func logEnvironment(cfg *config.Config) string {
	if cfg.IsProduction() || strings.EqualFold(cfg.Log.Format, "json") {
		return "production"
	}
	return cfg.Server.Env
}

// HealthCheckResponse represents the response from the health check endpoint
type HealthCheckResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
	Env       string    `json:"env"`
}

// ReadinessCheckResponse represents the response from the readiness check endpoint
type ReadinessCheckResponse struct {
	Ready     bool             `json:"ready"`
	Checks    []ReadinessCheck `json:"checks"`
	Timestamp time.Time        `json:"timestamp"`
}

// ReadinessCheck represents a single readiness check
type ReadinessCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok" or "fail"
	Error  string `json:"error,omitempty"`
}

// healthCheckHandler returns the liveness probe handler
func healthCheckHandler(cfg *config.Config, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthCheckResponse{
			Status:    "healthy",
			Service:   "resumedit-server",
			Version:   "1.0.0",
			Uptime:    time.Since(startTime).String(),
			Timestamp: time.Now(),
			Env:       cfg.Server.Env,
		})
	}
}

// readinessCheckHandler returns the readiness probe handler.
// History persistence fails open, so an unwritable data directory only makes
// the instance not ready; it never breaks the edit endpoints.
func readinessCheckHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		check := ReadinessCheck{Name: "history_dir", Status: "ok"}
		if err := checkDirWritable(filepath.Dir(cfg.Data.HistoryFile)); err != nil {
			check.Status = "fail"
			check.Error = err.Error()
		}

		ready := check.Status == "ok"
		httpStatus := http.StatusOK
		if !ready {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, ReadinessCheckResponse{
			Ready:     ready,
			Checks:    []ReadinessCheck{check},
			Timestamp: time.Now(),
		})
	}
}

// checkDirWritable creates dir if needed and probes it with a temp file.
func checkDirWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("history directory not accessible: %w", err)
	}
	f, err := os.CreateTemp(dir, ".ready-*")
	if err != nil {
		return fmt.Errorf("history directory not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
