package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	addr   string
	apiKey string
)

var rootCmd = &cobra.Command{
	Use:   "vigiactl",
	Short: "Control a running Vigia daemon",
	Long: `Vigiactl talks to the vigiad HTTP API to start and stop camera
features, enroll new faces and follow the live event stream.

The daemon address and API key come from --addr/--api-key, from the
environment (VIGIA_ADDR, API_KEY) or from a .env file, in that order.

Examples:
  # Start watching for attentive faces
  vigiactl wakeface start

  # Enroll a new person (6 frames by default)
  vigiactl enroll alice

  # Follow every event the sensor emits
  vigiactl watch`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "Daemon address (host:port)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for the daemon")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
