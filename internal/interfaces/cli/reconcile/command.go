package reconcile

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/argus-sec/argus/internal/application/reconcile/usecases"
	"github.com/argus-sec/argus/internal/infrastructure/cache"
	"github.com/argus-sec/argus/internal/infrastructure/config"
	"github.com/argus-sec/argus/internal/infrastructure/database"
	"github.com/argus-sec/argus/internal/infrastructure/metrics"
	"github.com/argus-sec/argus/internal/infrastructure/repository"
	"github.com/argus-sec/argus/internal/shared/db"
	"github.com/argus-sec/argus/internal/shared/logger"
)

var (
	scopeIPs   []string
	ports      []int
	protocols  []string
	source     string
	sourceIDs  []int
	reason     string
	manualScan bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile scan results against tickets",
		Long:  `Reconcile the latest stored scan results against persistent tickets: verify, reopen, open, and close tickets for a scanned scope.`,
	}

	cmd.PersistentFlags().StringSliceVar(&scopeIPs, "ips", nil, "Scanned scope as IPs and CIDR prefixes (required)")
	cmd.PersistentFlags().BoolVar(&manualScan, "manual", false, "Stamp events from this run as manual")

	cmd.AddCommand(
		newVulnScanCommand(),
		newPortScanCommand(),
		newHostScanCommand(),
	)

	return cmd
}

func newVulnScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vulnscan",
		Short: "Reconcile vulnerability scan results",
		RunE:  runVulnScan,
	}

	cmd.Flags().StringVar(&source, "source", "", "Scanner that produced the findings (required)")
	cmd.Flags().IntSliceVar(&sourceIDs, "source-ids", nil, "Scanner plugin IDs in scope (required)")
	cmd.Flags().IntSliceVar(&ports, "ports", nil, "Ports in scope (required)")
	cmd.Flags().StringVar(&reason, "reason", "", "Event reason recorded on this run")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("source-ids")
	cmd.MarkFlagRequired("ports")

	return cmd
}

func newPortScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portscan",
		Short: "Reconcile port scan results",
		RunE:  runPortScan,
	}

	cmd.Flags().IntSliceVar(&ports, "ports", nil, "Ports in scope (required)")
	cmd.Flags().StringSliceVar(&protocols, "protocols", []string{"tcp", "udp"}, "Protocols in scope")
	cmd.Flags().StringVar(&reason, "reason", "", "Event reason recorded on this run")
	cmd.MarkFlagRequired("ports")

	return cmd
}

func newHostScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hostscan",
		Short: "Reconcile host liveness results",
		RunE:  runHostScan,
	}
}

// deps bundles everything a reconciliation run needs.
type deps struct {
	cfg     *config.Config
	log     logger.Interface
	redis   *redis.Client
	metrics *metrics.Metrics
}

func initEnv() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	return &deps{
		cfg:     cfg,
		log:     logger.NewLogger(),
		redis:   redisClient,
		metrics: metrics.NewMetrics(),
	}, nil
}

func (d *deps) close() {
	if d.redis != nil {
		d.redis.Close()
	}
	database.Close()
}

func runVulnScan(cmd *cobra.Command, args []string) error {
	d, err := initEnv()
	if err != nil {
		return err
	}
	defer d.close()

	gormDB := database.Get()
	uc := usecases.NewReconcileVulnScanUseCase(
		repository.NewTicketRepository(gormDB),
		repository.NewVulnScanRepository(gormDB),
		repository.NewHostRepository(gormDB),
		cache.NewIntelCache(d.redis, repository.NewIntelRepository(gormDB), d.log),
		repository.NewNotificationRepository(gormDB),
		db.NewTransactionManager(gormDB),
		d.metrics,
		d.log,
		d.cfg.Reconcile.ReopenDays,
	)

	result, err := uc.Execute(context.Background(), usecases.ReconcileVulnScanCommand{
		Source:     source,
		SourceIDs:  sourceIDs,
		IPs:        scopeIPs,
		Ports:      ports,
		Reason:     reason,
		ManualScan: manualScan || d.cfg.Reconcile.ManualScan,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Reconciled %d vulnerability findings across %d addresses\n", result.Findings, result.Scope)
	return nil
}

func runPortScan(cmd *cobra.Command, args []string) error {
	d, err := initEnv()
	if err != nil {
		return err
	}
	defer d.close()

	gormDB := database.Get()
	uc := usecases.NewReconcilePortScanUseCase(
		repository.NewTicketRepository(gormDB),
		repository.NewVulnScanRepository(gormDB),
		repository.NewPortScanRepository(gormDB),
		repository.NewHostRepository(gormDB),
		repository.NewNotificationRepository(gormDB),
		db.NewTransactionManager(gormDB),
		d.metrics,
		d.log,
		d.cfg.Reconcile.ReopenDays,
	)

	result, err := uc.Execute(context.Background(), usecases.ReconcilePortScanCommand{
		IPs:        scopeIPs,
		Ports:      ports,
		Protocols:  protocols,
		Reason:     reason,
		ManualScan: manualScan || d.cfg.Reconcile.ManualScan,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Reconciled %d open-port findings across %d addresses\n", result.Findings, result.Scope)
	return nil
}

func runHostScan(cmd *cobra.Command, args []string) error {
	d, err := initEnv()
	if err != nil {
		return err
	}
	defer d.close()

	gormDB := database.Get()
	uc := usecases.NewReconcileHostScanUseCase(
		repository.NewTicketRepository(gormDB),
		repository.NewVulnScanRepository(gormDB),
		repository.NewHostScanRepository(gormDB),
		db.NewTransactionManager(gormDB),
		d.metrics,
		d.log,
	)

	result, err := uc.Execute(context.Background(), usecases.ReconcileHostScanCommand{
		IPs:        scopeIPs,
		ManualScan: manualScan || d.cfg.Reconcile.ManualScan,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Reconciled %d liveness observations across %d addresses\n", result.Findings, result.Scope)
	return nil
}
