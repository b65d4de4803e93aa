package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show event counters from the daemon",
	RunE:  runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	c := newClient()

	var resp struct {
		UptimeSeconds int64             `json:"uptime_seconds"`
		TotalEvents   uint64            `json:"total_events"`
		Events        map[string]uint64 `json:"events"`
		Persons       int               `json:"persons"`
		Samples       int               `json:"samples"`
	}
	if err := c.get("/v1/metrics", &resp); err != nil {
		return err
	}

	fmt.Printf("Uptime:       %s\n", time.Duration(resp.UptimeSeconds)*time.Second)
	fmt.Printf("Total events: %d\n", resp.TotalEvents)

	names := make([]string, 0, len(resp.Events))
	for name := range resp.Events {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-18s %d\n", name, resp.Events[name])
	}

	fmt.Printf("Persons:      %d\n", resp.Persons)
	fmt.Printf("Samples:      %d\n", resp.Samples)

	return nil
}
