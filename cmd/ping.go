package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/game-bridge/internal/config"
	"github.com/mj1618/game-bridge/internal/controller"
	"github.com/mj1618/game-bridge/internal/output"
	"github.com/mj1618/game-bridge/internal/protocol"
)

// PingResult is the output of the `ping` command.
type PingResult struct {
	OK        bool  `yaml:"ok"        json:"ok"`
	LatencyMs int64 `yaml:"latencyMs" json:"latencyMs"`
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Round-trip check against the connected bridge",
	RunE:  runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, client *controller.Client, cfg *config.Config) error {
		start := time.Now()
		if _, err := client.Call(ctx, protocol.CmdPing, nil); err != nil {
			return err
		}
		return output.Print(PingResult{OK: true, LatencyMs: time.Since(start).Milliseconds()})
	})
}
