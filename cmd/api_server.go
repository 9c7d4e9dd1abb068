package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/Depado/ginprom"
	"github.com/charmbracelet/log"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	healthcheck "github.com/tavsec/gin-healthcheck"
	"github.com/tavsec/gin-healthcheck/checks"
	hc_config "github.com/tavsec/gin-healthcheck/config"

	"github.com/rm-hull/strip-slicer/internal"
	"github.com/rm-hull/strip-slicer/internal/config"
)

func ApiServer(logger *log.Logger, cfg *config.Config, rootDir string, port int, debug bool) error {
	internal.ShowVersion(logger)
	internal.UserInfo(logger)
	internal.EnvironmentVars(logger, os.Environ())

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return fmt.Errorf("failed to create root folder %s: %w", rootDir, err)
	}

	ttl, err := cfg.RetentionTTL()
	if err != nil {
		return err
	}
	var sched gocron.Scheduler
	if ttl > 0 {
		if sched, err = internal.NewRetentionScheduler(rootDir, ttl, cfg.Retention.Schedule, logger); err != nil {
			return err
		}
		defer func() {
			if err := sched.Shutdown(); err != nil {
				logger.Error("Failed to shutdown scheduler", "err", err)
			}
		}()
	} else {
		logger.Warn("Job retention is disabled; job output is never removed", "root", rootDir)
	}

	r := gin.New()

	prometheus := ginprom.New(
		ginprom.Engine(r),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz"),
	)

	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		prometheus.Instrument(),
	)

	if debug {
		logger.Warn("pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	if err := healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{}); err != nil {
		return fmt.Errorf("failed to initialize healthcheck: %w", err)
	}

	internal.RegisterJobRoutes(r, rootDir, cfg, logger)

	addr := fmt.Sprintf(":%d", port)
	logger.Info("Starting HTTP API Server", "port", port, "root", rootDir)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP API Server failed to start on port %d: %w", port, err)
	}
	return nil
}
