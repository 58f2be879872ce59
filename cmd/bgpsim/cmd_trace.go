package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bgpsim/bgpsim/pkg/trace"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "View recorded scenario run traces",
	Long: `View the dispatched-event trace recorded by "scenario run --trace".

Every traced event carries:
  - Timestamp
  - Router performing the event, and neighbor (if any)
  - Event kind (bgp, advertise, withdraw, link_up, link_down, config, custom)
  - Rendered detail line
  - Success/failure status

Examples:
  bgpsim trace list --router r1
  bgpsim trace list --last 1h
  bgpsim trace list --kind withdraw`,
}

var (
	traceRouter   string
	traceNeighbor string
	traceKind     string
	traceLast     string
	traceLimit    int
	traceFailures bool
)

var traceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trace events",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := trace.Filter{
			Router:      traceRouter,
			Neighbor:    traceNeighbor,
			Kind:        traceKind,
			Limit:       traceLimit,
			FailureOnly: traceFailures,
		}

		if traceLast != "" {
			duration, err := time.ParseDuration(traceLast)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", traceLast)
			}
			filter.StartTime = time.Now().Add(-duration)
		}

		events, err := trace.Query(filter)
		if err != nil {
			return fmt.Errorf("querying trace log: %w", err)
		}

		if app.jsonOutput || app.jqFilter != "" {
			return printJSON(events)
		}

		if len(events) == 0 {
			fmt.Println("No trace events found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIMESTAMP\tROUTER\tNEIGHBOR\tKIND\tPREFIX\tSTATUS\tDETAIL")
		fmt.Fprintln(w, "---------\t------\t--------\t----\t------\t------\t------")

		for _, event := range events {
			status := green("ok")
			if !event.Success {
				status = red("failed")
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				event.Timestamp.Format("2006-01-02 15:04:05"),
				event.Router,
				dash(event.Neighbor),
				event.Kind,
				dash(event.Prefix),
				status,
				event.Detail,
			)
		}
		w.Flush()

		return nil
	},
}

func init() {
	traceListCmd.Flags().StringVar(&traceRouter, "router", "", "Filter by router")
	traceListCmd.Flags().StringVar(&traceNeighbor, "neighbor", "", "Filter by neighbor")
	traceListCmd.Flags().StringVar(&traceKind, "kind", "", "Filter by event kind")
	traceListCmd.Flags().StringVar(&traceLast, "last", "", "Show events from last duration (e.g., 1h, 30m)")
	traceListCmd.Flags().IntVar(&traceLimit, "limit", 100, "Maximum events to show")
	traceListCmd.Flags().BoolVar(&traceFailures, "failures", false, "Show only failed events")

	traceCmd.AddCommand(traceListCmd)
}

// dash returns s if non-empty, otherwise "-".
func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
