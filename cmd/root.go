package cmd

import (
	"fmt"
	"os"

	"github.com/mj1618/game-bridge/internal/output"
	"github.com/mj1618/game-bridge/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "game-bridge",
	Short: "Drive and observe an application through its embedded automation bridge",
	Long: `game-bridge is the controller side of the in-app automation bridge protocol.
It listens for the application's bridge connection, then issues commands
(ping, property reads, actions, element taps) and streams events.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().String("config", "", "Path to game-bridge.yaml (default: search working directory)")
	rootCmd.PersistentFlags().String("listen", "", "Listen address for the bridge connection (overrides config)")
	rootCmd.PersistentFlags().Int("wait", 30, "Max seconds to wait for the bridge to connect")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		if pretty, err := rootCmd.PersistentFlags().GetBool("pretty"); err == nil && pretty {
			output.PrettyOutput = true
		}
		return nil
	}
}
