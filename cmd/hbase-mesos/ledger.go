package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/ledger"
	"github.com/cuemby/hbase-mesos/pkg/storage"
	"github.com/cuemby/hbase-mesos/pkg/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect or repair the durable ledger",
	Long: `Inspect or repair the durable ledger.

With the bolt backend the scheduler holds the database lock, so these
commands only work while it is stopped.`,
}

// ledgerDump is the output of ledger show
type ledgerDump struct {
	FrameworkID string              `json:"framework_id" yaml:"framework_id"`
	Nodes       []*types.NodeRecord `json:"nodes" yaml:"nodes"`
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the framework id and every node record",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		l, closeStore, err := openLedger(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		id, err := l.FrameworkID()
		if err != nil {
			return fmt.Errorf("failed to read framework id: %w", err)
		}
		nodes, err := l.Nodes()
		if err != nil {
			return fmt.Errorf("failed to list node records: %w", err)
		}
		return printLedger(os.Stdout, output, ledgerDump{FrameworkID: id, Nodes: nodes})
	},
}

var ledgerResetCmd = &cobra.Command{
	Use:   "reset-framework-id",
	Short: "Erase the stored framework id",
	Long: `Erase the stored framework id so the next scheduler start registers
as a new framework. Node records are kept; tasks of the old framework
are purged by the first reconciliation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, closeStore, err := openLedger(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		old, err := l.FrameworkID()
		if err != nil {
			return fmt.Errorf("failed to read framework id: %w", err)
		}
		if old == "" {
			fmt.Println("No framework id stored")
			return nil
		}
		if err := l.SetFrameworkID(""); err != nil {
			return fmt.Errorf("failed to erase framework id: %w", err)
		}
		fmt.Printf("Erased framework id %s\n", old)
		return nil
	},
}

func init() {
	ledgerCmd.AddCommand(ledgerShowCmd)
	ledgerCmd.AddCommand(ledgerResetCmd)

	ledgerShowCmd.Flags().StringP("output", "o", "table", "Output format (table, yaml, json)")
}

// openLedger opens the configured store. No live view is attached, so
// every record counts as dead for DeadNodes.
func openLedger(cmd *cobra.Command) (*ledger.Ledger, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.Open(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	return ledger.New(store, noTasks{}), func() { store.Close() }, nil
}

type noTasks struct{}

func (noTasks) IsLive(string) bool { return false }

func printLedger(w io.Writer, format string, dump ledgerDump) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(dump); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dump)
	case "table":
		id := dump.FrameworkID
		if id == "" {
			id = "<none>"
		}
		fmt.Fprintf(w, "Framework ID: %s\n\n", id)

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TASK NAME\tROLE\tHOST\tTASK ID\tCREATED")
		for _, n := range dump.Nodes {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.TaskName, n.Role, n.Hostname, n.TaskID, n.CreatedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	}
	return fmt.Errorf("unknown output format %q", format)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
