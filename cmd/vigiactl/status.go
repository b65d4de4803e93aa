package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/vigia/internal/sensor"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which feature is running and the store counters",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	c := newClient()

	var status sensor.Status
	if err := c.get("/v1/status", &status); err != nil {
		return err
	}

	active := status.ActiveFeature
	if active == "" {
		active = "none"
	}

	fmt.Printf("Active feature: %s\n", active)
	fmt.Printf("Wakeface:       %v\n", status.Wakeface)
	fmt.Printf("Presence:       %v\n", status.Presence)
	if status.Enrollment != nil {
		fmt.Printf("Enrollment:     %s (%d%%)\n", status.Enrollment.Name, status.Enrollment.Progress)
	}
	fmt.Printf("Persons:        %d\n", status.Persons)
	fmt.Printf("Samples:        %d\n", status.Samples)
	if status.LastError != "" {
		fmt.Printf("Last error:     %s\n", status.LastError)
	}

	return nil
}
