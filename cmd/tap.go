package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mj1618/game-bridge/internal/config"
	"github.com/mj1618/game-bridge/internal/controller"
	"github.com/mj1618/game-bridge/internal/output"
	"github.com/mj1618/game-bridge/internal/protocol"
)

// TapResult is the output of `tap`.
type TapResult struct {
	Path string `yaml:"path" json:"path"`
	OK   bool   `yaml:"ok"   json:"ok"`
}

var tapCmd = &cobra.Command{
	Use:   "tap <path>",
	Short: "Inject a synthetic tap on a registered element",
	Args:  cobra.ExactArgs(1),
	RunE:  runTap,
}

func init() {
	rootCmd.AddCommand(tapCmd)
}

func runTap(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, client *controller.Client, cfg *config.Config) error {
		params := map[string]any{"path": args[0]}
		if _, err := client.Call(ctx, protocol.CmdTapElement, params); err != nil {
			return err
		}
		return output.Print(TapResult{Path: args[0], OK: true})
	})
}
