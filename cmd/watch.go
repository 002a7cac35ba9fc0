package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/game-bridge/internal/config"
	"github.com/mj1618/game-bridge/internal/controller"
)

var watchDuration int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream bridge events as JSON lines",
	Long: `Streams events emitted by the bridge (such as elementTapped) to stdout,
one JSON object per line. Runs until the duration elapses or the process
is interrupted.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchDuration, "duration", 0, "Stop after this many seconds (0 = run until interrupted)")
	rootCmd.AddCommand(watchCmd)
}

type watchLine struct {
	Time  string          `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(_ context.Context, client *controller.Client, cfg *config.Config) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if watchDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(watchDuration)*time.Second)
			defer cancel()
		}

		enc := json.NewEncoder(os.Stdout)
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-client.Events():
				if !ok {
					return nil
				}
				line := watchLine{
					Time:  time.Now().Format(time.RFC3339),
					Event: ev.Event,
					Data:  ev.Data,
				}
				if err := enc.Encode(line); err != nil {
					return fmt.Errorf("writing event: %w", err)
				}
			}
		}
	})
}
