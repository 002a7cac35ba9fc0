package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mj1618/game-bridge/internal/config"
	"github.com/mj1618/game-bridge/internal/controller"
	"github.com/mj1618/game-bridge/internal/output"
	"github.com/mj1618/game-bridge/internal/protocol"
)

// ActionResult is the output of `actions run`.
type ActionResult struct {
	Name string   `yaml:"name"           json:"name"`
	Args []string `yaml:"args,omitempty" json:"args,omitempty"`
	OK   bool     `yaml:"ok"             json:"ok"`
}

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List and run the bridge's custom actions",
}

var actionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered action names",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNameList(cmd, protocol.CmdListActions)
	},
}

var actionsRunCmd = &cobra.Command{
	Use:   "run <name> [args...]",
	Short: "Run an action with ordered string arguments",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runActionsRun,
}

func init() {
	rootCmd.AddCommand(actionsCmd)
	actionsCmd.AddCommand(actionsListCmd)
	actionsCmd.AddCommand(actionsRunCmd)
}

func runActionsRun(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, client *controller.Client, cfg *config.Config) error {
		name, actionArgs := args[0], args[1:]
		params := map[string]any{"name": name}
		if len(actionArgs) > 0 {
			params["args"] = actionArgs
		}
		if _, err := client.Call(ctx, protocol.CmdExecuteAction, params); err != nil {
			return err
		}
		return output.Print(ActionResult{Name: name, Args: actionArgs, OK: true})
	})
}
