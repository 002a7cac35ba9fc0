package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mj1618/game-bridge/internal/config"
	"github.com/mj1618/game-bridge/internal/controller"
	"github.com/mj1618/game-bridge/internal/script"
)

var runCmd = &cobra.Command{
	Use:   "run <script.js>",
	Short: "Run a JavaScript automation script against the bridge",
	Long: `Executes a JavaScript file with a "bridge" object bound to the connected
bridge. Scripts can read properties, run actions and commands, list
elements and inject taps:

    const props = bridge.properties();
    bridge.runAction("newGame", "hard");
    bridge.tap("menu.start");
    sleep(250);
    console.log(bridge.getProperty("score"));`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, client *controller.Client, cfg *config.Config) error {
		engine := script.New(client, cfg.CallTimeout())
		_, err := engine.RunFile(args[0])
		return err
	})
}
