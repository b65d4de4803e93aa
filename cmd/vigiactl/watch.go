package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream daemon events to the terminal",
	Long: `Watch connects to the daemon websocket and prints every event the
sensor emits, one per line, until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	c := newClient()

	conn, err := c.dialEvents()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Watching events from %s (Ctrl+C to stop)\n", c.addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Fechar a conexão é o que destrava o ReadMessage abaixo.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("stream closed: %w", err)
		}

		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			continue
		}
		fmt.Printf("%s  %-16s %s\n", env.Timestamp.Local().Format("15:04:05"), env.Type, env.Data)
	}
}
