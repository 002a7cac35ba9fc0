package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mj1618/game-bridge/internal/config"
	"github.com/mj1618/game-bridge/internal/controller"
	"github.com/mj1618/game-bridge/internal/output"
	"github.com/mj1618/game-bridge/internal/protocol"
)

// CommandResult is the output of `cmds run`.
type CommandResult struct {
	Name   string `yaml:"name"            json:"name"`
	Param  string `yaml:"param,omitempty" json:"param,omitempty"`
	Result any    `yaml:"result"          json:"result"`
}

var cmdsCmd = &cobra.Command{
	Use:   "cmds",
	Short: "List and run the bridge's custom commands",
}

var cmdsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered command names",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNameList(cmd, protocol.CmdListCommands)
	},
}

var cmdsRunCmd = &cobra.Command{
	Use:   "run <name> [param]",
	Short: "Run a command with an optional string parameter",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCmdsRun,
}

func init() {
	rootCmd.AddCommand(cmdsCmd)
	cmdsCmd.AddCommand(cmdsListCmd)
	cmdsCmd.AddCommand(cmdsRunCmd)
}

func runCmdsRun(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, client *controller.Client, cfg *config.Config) error {
		result := CommandResult{Name: args[0]}
		params := map[string]any{"name": result.Name}
		if len(args) > 1 {
			result.Param = args[1]
			params["param"] = result.Param
		}
		raw, err := client.Call(ctx, protocol.CmdExecuteCommand, params)
		if err != nil {
			return err
		}
		if err := decodeInto(raw, &result.Result); err != nil {
			return err
		}
		return output.Print(result)
	})
}
