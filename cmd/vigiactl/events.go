package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var eventsLimit int

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recent events from the daemon journal",
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "How many events to list")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	c := newClient()

	var resp struct {
		Events []envelope `json:"events"`
		Count  int        `json:"count"`
	}
	if err := c.get(fmt.Sprintf("/v1/events/recent?limit=%d", eventsLimit), &resp); err != nil {
		return err
	}

	if resp.Count == 0 {
		fmt.Println("No events recorded yet.")
		return nil
	}

	for _, env := range resp.Events {
		fmt.Printf("%s  %-16s %s\n", env.Timestamp.Local().Format("15:04:05"), env.Type, env.Data)
	}

	return nil
}
