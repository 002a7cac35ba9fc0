package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mj1618/game-bridge/internal/config"
	"github.com/mj1618/game-bridge/internal/controller"
	"github.com/mj1618/game-bridge/internal/output"
	"github.com/mj1618/game-bridge/internal/protocol"
)

var elementsCmd = &cobra.Command{
	Use:   "elements",
	Short: "List the bridge's registered UI elements and their positions",
	RunE:  runElements,
}

func init() {
	rootCmd.AddCommand(elementsCmd)
}

func runElements(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, client *controller.Client, cfg *config.Config) error {
		raw, err := client.Call(ctx, protocol.CmdListElements, nil)
		if err != nil {
			return err
		}
		var elements []protocol.ElementInfo
		if err := decodeInto(raw, &elements); err != nil {
			return err
		}
		return output.Print(elements)
	})
}
