package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/argus-sec/argus/internal/application/reconcile/usecases"
	"github.com/argus-sec/argus/internal/infrastructure/cache"
	"github.com/argus-sec/argus/internal/infrastructure/config"
	"github.com/argus-sec/argus/internal/infrastructure/database"
	"github.com/argus-sec/argus/internal/infrastructure/metrics"
	"github.com/argus-sec/argus/internal/infrastructure/repository"
	"github.com/argus-sec/argus/internal/infrastructure/scheduler"
	"github.com/argus-sec/argus/internal/shared/db"
	"github.com/argus-sec/argus/internal/shared/logger"
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run periodic reconciliation",
		Long:  `Run reconciliation on a schedule over the configured scope and expose Prometheus metrics.`,
		RunE:  run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled in configuration")
	}
	if len(cfg.Scheduler.Scope) == 0 {
		return fmt.Errorf("scheduler scope is empty, nothing to reconcile")
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	gormDB := database.Get()
	txMgr := db.NewTransactionManager(gormDB)
	m := metrics.NewMetrics()

	vulnUC := usecases.NewReconcileVulnScanUseCase(
		repository.NewTicketRepository(gormDB),
		repository.NewVulnScanRepository(gormDB),
		repository.NewHostRepository(gormDB),
		cache.NewIntelCache(redisClient, repository.NewIntelRepository(gormDB), log),
		repository.NewNotificationRepository(gormDB),
		txMgr, m, log, cfg.Reconcile.ReopenDays,
	)
	portUC := usecases.NewReconcilePortScanUseCase(
		repository.NewTicketRepository(gormDB),
		repository.NewVulnScanRepository(gormDB),
		repository.NewPortScanRepository(gormDB),
		repository.NewHostRepository(gormDB),
		repository.NewNotificationRepository(gormDB),
		txMgr, m, log, cfg.Reconcile.ReopenDays,
	)
	hostUC := usecases.NewReconcileHostScanUseCase(
		repository.NewTicketRepository(gormDB),
		repository.NewVulnScanRepository(gormDB),
		repository.NewHostScanRepository(gormDB),
		txMgr, m, log,
	)

	manager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	interval := time.Duration(cfg.Scheduler.IntervalMinutes) * time.Minute
	err = manager.RegisterReconcileJobs(interval,
		scheduler.NewVulnReconcileJob(vulnUC, usecases.ReconcileVulnScanCommand{
			Source:     cfg.Scheduler.Source,
			SourceIDs:  cfg.Scheduler.SourceIDs,
			IPs:        cfg.Scheduler.Scope,
			Ports:      cfg.Scheduler.Ports,
			ManualScan: cfg.Reconcile.ManualScan,
		}),
		scheduler.NewPortReconcileJob(portUC, usecases.ReconcilePortScanCommand{
			IPs:        cfg.Scheduler.Scope,
			Ports:      cfg.Scheduler.Ports,
			Protocols:  cfg.Scheduler.Protocols,
			ManualScan: cfg.Reconcile.ManualScan,
		}),
		scheduler.NewHostReconcileJob(hostUC, usecases.ReconcileHostScanCommand{
			IPs:        cfg.Scheduler.Scope,
			ManualScan: cfg.Reconcile.ManualScan,
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to register reconcile jobs: %w", err)
	}

	metricsServer := &http.Server{
		Addr:    cfg.Scheduler.MetricsAddr,
		Handler: promhttp.Handler(),
	}
	go func() {
		log.Infow("metrics endpoint listening", "addr", cfg.Scheduler.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("metrics server failed", "error", err)
		}
	}()

	manager.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Errorw("metrics server shutdown failed", "error", err)
	}

	return manager.Stop()
}
