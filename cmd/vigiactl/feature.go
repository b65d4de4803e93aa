package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var wakefaceCmd = &cobra.Command{
	Use:   "wakeface",
	Short: "Control the attention detection feature",
}

var wakefaceStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start watching for attentive faces",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFeature("/v1/wakeface/start")
	},
}

var wakefaceStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the attention detection feature",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFeature("/v1/wakeface/stop")
	},
}

var presenceCmd = &cobra.Command{
	Use:   "presence",
	Short: "Control the person presence monitor",
}

var presenceStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start monitoring the room for persons",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFeature("/v1/presence/start")
	},
}

var presenceStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the person presence monitor",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFeature("/v1/presence/stop")
	},
}

func init() {
	wakefaceCmd.AddCommand(wakefaceStartCmd, wakefaceStopCmd)
	presenceCmd.AddCommand(presenceStartCmd, presenceStopCmd)
	rootCmd.AddCommand(wakefaceCmd, presenceCmd)
}

func runFeature(path string) error {
	c := newClient()

	var resp struct {
		Feature string `json:"feature"`
		Status  string `json:"status"`
	}
	if err := c.post(path, nil, &resp); err != nil {
		return err
	}

	fmt.Printf("%s %s\n", resp.Feature, resp.Status)
	return nil
}
