package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/api"
	"github.com/cuemby/hbase-mesos/pkg/client"
	"github.com/cuemby/hbase-mesos/pkg/events"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient(cmd)
		if err != nil {
			return err
		}
		st, err := c.State(cmd.Context())
		if err != nil {
			return err
		}
		h, err := c.Health(cmd.Context())
		if err != nil {
			return err
		}

		printState(os.Stdout, st)
		fmt.Printf("\nHealth: %s", h.Status)
		if h.Message != "" {
			fmt.Printf(" (%s)", h.Message)
		}
		fmt.Println()
		return nil
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent scheduler events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		follow, _ := cmd.Flags().GetBool("follow")

		c, err := apiClient(cmd)
		if err != nil {
			return err
		}

		if follow {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.Follow(ctx, func(ev *events.Event) { printEvent(os.Stdout, ev) })
		}

		evs, err := c.Events(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, ev := range evs {
			printEvent(os.Stdout, ev)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{statusCmd, eventsCmd} {
		cmd.Flags().String("api", "127.0.0.1:9090", "Address of the scheduler status API")
		rootCmd.AddCommand(cmd)
	}
	eventsCmd.Flags().IntP("limit", "n", 50, "Number of recent events")
	eventsCmd.Flags().BoolP("follow", "f", false, "Stream new events")
}

func apiClient(cmd *cobra.Command) (*client.Client, error) {
	addr, _ := cmd.Flags().GetString("api")
	if cmd.Context() == nil {
		cmd.SetContext(context.Background())
	}
	return client.NewClient(addr)
}

func printState(w io.Writer, st *api.StateResponse) {
	id := st.FrameworkID
	if id == "" {
		id = "<none>"
	}
	fmt.Fprintf(w, "Framework ID: %s\n", id)
	fmt.Fprintf(w, "Phase:        %s\n", st.Phase)
	fmt.Fprintf(w, "Tasks:        %d running, %d staging\n", len(st.Running), len(st.Staging))
	if st.LedgerError != "" {
		fmt.Fprintf(w, "Ledger:       unavailable (%s)\n", st.LedgerError)
	}
	fmt.Fprintln(w)

	running := make(map[string]bool, len(st.Running))
	for _, t := range st.Running {
		running[t.TaskID] = true
	}
	staging := make(map[string]bool, len(st.Staging))
	for _, t := range st.Staging {
		staging[t.TaskID] = true
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK NAME\tROLE\tHOST\tSTATE\tTASK ID")
	for _, n := range st.Nodes {
		state := "dead"
		switch {
		case running[n.TaskID]:
			state = "running"
		case staging[n.TaskID]:
			state = "staging"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.TaskName, n.Role, n.Hostname, state, n.TaskID)
	}
	tw.Flush()
}

func printEvent(w io.Writer, ev *events.Event) {
	var meta []string
	for _, k := range sortedKeys(ev.Metadata) {
		meta = append(meta, k+"="+ev.Metadata[k])
	}
	fmt.Fprintf(w, "%s  %-22s %s %s\n", ev.Timestamp.Format(time.RFC3339), ev.Type, ev.Message, strings.Join(meta, " "))
}
