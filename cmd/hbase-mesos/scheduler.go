package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/hbase-mesos/pkg/api"
	"github.com/cuemby/hbase-mesos/pkg/config"
	"github.com/cuemby/hbase-mesos/pkg/events"
	"github.com/cuemby/hbase-mesos/pkg/fleet"
	"github.com/cuemby/hbase-mesos/pkg/health"
	"github.com/cuemby/hbase-mesos/pkg/ledger"
	"github.com/cuemby/hbase-mesos/pkg/log"
	"github.com/cuemby/hbase-mesos/pkg/metrics"
	"github.com/cuemby/hbase-mesos/pkg/reconciler"
	"github.com/cuemby/hbase-mesos/pkg/scheduler"
	"github.com/cuemby/hbase-mesos/pkg/state"
	"github.com/cuemby/hbase-mesos/pkg/storage"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the HBase scheduler",
	Long: `Run the scheduler until it is interrupted or hits a fatal error.

The process exits with status 1 on a fatal error and with status 9 when
the master requires the framework to register again; in that case the
stored framework id has been erased and the next start registers anew.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := runScheduler(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(scheduler.ExitCode(err))
	},
}

func init() {
	schedulerCmd.Flags().String("master", "", "Mesos master URL (e.g. http://mesos:5050)")
	schedulerCmd.Flags().Duration("reconciliation-timeout", config.DefaultReconcileTimeout, "How long to wait for task reconciliation")
	schedulerCmd.Flags().String("api-addr", "127.0.0.1:9090", "Address of the status API")
	schedulerCmd.Flags().String("framework-name", "hbase", "Framework name registered with the master")
}

func runScheduler(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := log.WithComponent("main")
	metrics.SetVersion(Version)

	store, err := storage.Open(cfg.Store)
	if err != nil {
		metrics.UpdateComponent(metrics.ComponentStore, false, err.Error())
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer store.Close()
	metrics.UpdateComponent(metrics.ComponentStore, true, cfg.Store.Backend)

	live := state.New()
	l := ledger.New(store, live)

	frameworkID, err := l.FrameworkID()
	if err != nil {
		return fmt.Errorf("failed to read framework id: %w", err)
	}

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	driver := fleet.NewHTTPDriver(fleet.Options{
		Master: cfg.Mesos.Master,
		Framework: fleet.FrameworkInfo{
			ID:              frameworkID,
			Name:            cfg.Framework.Name,
			User:            cfg.Framework.User,
			Role:            cfg.Framework.Role,
			FailoverTimeout: cfg.Framework.FailoverTimeout,
			Checkpoint:      true,
			Principal:       cfg.Framework.Principal,
		},
		Secret: cfg.Framework.Secret,
	})
	engine := scheduler.New(cfg, driver, live, l, broker)
	recon := reconciler.NewReconciler(engine, cfg.Mesos.ReconcileInterval)
	collector := metrics.NewCollector(live, l, metrics.DefaultInterval)
	server := api.NewServer(live, l, broker, metrics.DefaultHealth())

	probes, err := health.Probes(cfg)
	if err != nil {
		return err
	}
	monitor := health.NewMonitor(health.Config{
		Interval: cfg.Probe.Interval,
		Timeout:  cfg.Probe.Timeout,
		Retries:  cfg.Probe.Retries,
	}, nil, probes...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("version", Version).
		Str("master", cfg.Mesos.Master).
		Str("framework_id", frameworkID).
		Str("store", cfg.Store.Backend).
		Str("api_addr", cfg.API.Addr).
		Msg("Starting hbase-mesos scheduler")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.Run(gctx)
	})
	g.Go(func() error {
		// the engine decides the exit code, so driver failures go through it
		err := driver.Run(gctx, engine)
		var se *fleet.StatusError
		if err != nil && !errors.As(err, &se) {
			engine.Error(err.Error())
		}
		return nil
	})
	g.Go(func() error {
		return recon.Run(gctx)
	})
	g.Go(func() error {
		return collector.Run(gctx)
	})
	g.Go(func() error {
		return monitor.Run(gctx)
	})
	g.Go(func() error {
		if err := server.Run(gctx, cfg.API.Addr); err != nil {
			return fmt.Errorf("status API: %w", err)
		}
		return nil
	})

	err = g.Wait()
	if err == nil {
		logger.Info().Msg("Shutdown complete")
	}
	return err
}
