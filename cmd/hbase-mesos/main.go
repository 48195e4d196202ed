package main

import (
	"fmt"
	"os"

	"github.com/cuemby/hbase-mesos/pkg/config"
	"github.com/cuemby/hbase-mesos/pkg/log"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hbase-mesos",
	Short: "hbase-mesos - HBase framework scheduler for Mesos",
	Long: `hbase-mesos runs an HBase cluster on a Mesos cluster.

The scheduler keeps two HBase masters running and places a region
server on every other host that offers enough resources. Placements are
recorded in a durable ledger so a restarted scheduler recovers the
cluster it left behind.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"hbase-mesos version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("store", config.StoreBolt, "Ledger backend (bolt, etcd)")
	rootCmd.PersistentFlags().String("data-dir", "./hbase-mesos-data", "Data directory of the bolt ledger")
	rootCmd.PersistentFlags().StringSlice("etcd-endpoints", nil, "etcd endpoints of the etcd ledger")

	rootCmd.AddCommand(schedulerCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig builds the configuration from --config, the environment and
// the command's flags, and initialises logging from it
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
		Output:     os.Stderr,
	})
	return cfg, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hbase-mesos version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime)
	},
}
