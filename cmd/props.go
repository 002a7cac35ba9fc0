package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mj1618/game-bridge/internal/config"
	"github.com/mj1618/game-bridge/internal/controller"
	"github.com/mj1618/game-bridge/internal/output"
	"github.com/mj1618/game-bridge/internal/protocol"
)

// PropertyResult is the output of `props get`.
type PropertyResult struct {
	Name  string `yaml:"name"  json:"name"`
	Value string `yaml:"value" json:"value"`
}

var propsCmd = &cobra.Command{
	Use:   "props",
	Short: "List and read the bridge's custom properties",
}

var propsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered property names",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNameList(cmd, protocol.CmdListProperties)
	},
}

var propsGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Read one property's current value",
	Args:  cobra.ExactArgs(1),
	RunE:  runPropsGet,
}

func init() {
	rootCmd.AddCommand(propsCmd)
	propsCmd.AddCommand(propsListCmd)
	propsCmd.AddCommand(propsGetCmd)
}

func runPropsGet(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, client *controller.Client, cfg *config.Config) error {
		data, err := client.Call(ctx, protocol.CmdGetProperty, map[string]string{"name": args[0]})
		if err != nil {
			return err
		}
		var result struct {
			Value string `json:"value"`
		}
		if err := decodeInto(data, &result); err != nil {
			return err
		}
		return output.Print(PropertyResult{Name: args[0], Value: result.Value})
	})
}

// runNameList issues a list command and prints its names.
func runNameList(cmd *cobra.Command, command string) error {
	return withClient(cmd, func(ctx context.Context, client *controller.Client, cfg *config.Config) error {
		data, err := client.Call(ctx, command, nil)
		if err != nil {
			return err
		}
		names := []string{}
		if err := decodeInto(data, &names); err != nil {
			return err
		}
		return output.Print(names)
	})
}
