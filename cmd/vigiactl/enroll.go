package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/vigia/internal/event"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <name>",
	Short: "Record face samples for a new person",
	Long: `Enroll opens a recording session on the daemon and follows its
progress over the event stream. The person must look straight at the
camera until the bar completes.

Examples:
  vigiactl enroll alice
  vigiactl enroll bob --addr otherhost:8600`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	name := args[0]
	c := newClient()

	// Conecta no stream antes de abrir a sessão para não perder os
	// primeiros eventos de progresso.
	conn, err := c.dialEvents()
	if err != nil {
		return err
	}
	defer conn.Close()

	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := c.post("/v1/enrollments", map[string]string{"name": name}, &resp); err != nil {
		return err
	}

	fmt.Printf("Recording %s (session %s), look at the camera...\n", name, resp.SessionID)

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("Recording"),
		progressbar.OptionShowCount(),
		progressbar.OptionFullWidth(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				done <- fmt.Errorf("stream closed: %w", err)
				return
			}

			var env envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			if env.Type != event.NameRecordingFace {
				continue
			}

			var data struct {
				Progress int `json:"progress"`
			}
			if err := json.Unmarshal(env.Data, &data); err != nil {
				continue
			}

			_ = bar.Set(data.Progress)
			if data.Progress >= 100 {
				done <- nil
				return
			}
		}
	}()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		_ = c.post("/v1/enrollments/stop", nil, nil)
		return fmt.Errorf("interrupted, session aborted")
	case <-time.After(2 * time.Minute):
		_ = c.post("/v1/enrollments/stop", nil, nil)
		return fmt.Errorf("enrollment timed out, session aborted")
	}

	fmt.Printf("\n%s enrolled\n", name)
	return nil
}
