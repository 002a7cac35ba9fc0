package cmd

import (
	"context"
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/mj1618/game-bridge/internal/config"
	"github.com/mj1618/game-bridge/internal/controller"
	"github.com/mj1618/game-bridge/internal/output"
	"github.com/mj1618/game-bridge/internal/protocol"
)

var (
	mapOutput string
	mapWidth  int
	mapHeight int
)

// MapResult is the output of `map`.
type MapResult struct {
	Path     string `yaml:"path"     json:"path"`
	Elements int    `yaml:"elements" json:"elements"`
	Width    int    `yaml:"width"    json:"width"`
	Height   int    `yaml:"height"   json:"height"`
}

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Render the registered elements to a PNG map",
	Long: `Fetches the bridge's registered UI elements and renders their positions
to a PNG image, one labeled marker per visible element. Useful for
eyeballing what the bridge thinks the screen looks like.`,
	RunE: runMap,
}

func init() {
	mapCmd.Flags().StringVarP(&mapOutput, "output", "o", "elements.png", "Output PNG path")
	mapCmd.Flags().IntVar(&mapWidth, "width", 0, "Canvas width in pixels (0 = auto)")
	mapCmd.Flags().IntVar(&mapHeight, "height", 0, "Canvas height in pixels (0 = auto)")
	rootCmd.AddCommand(mapCmd)
}

func runMap(cmd *cobra.Command, args []string) error {
	return withClient(cmd, func(ctx context.Context, client *controller.Client, cfg *config.Config) error {
		raw, err := client.Call(ctx, protocol.CmdListElements, nil)
		if err != nil {
			return err
		}
		var elements []protocol.ElementInfo
		if err := decodeInto(raw, &elements); err != nil {
			return err
		}

		img := RenderElementMap(elements, mapWidth, mapHeight)

		f, err := os.Create(mapOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", mapOutput, err)
		}
		defer f.Close()
		if err := png.Encode(f, img); err != nil {
			return fmt.Errorf("encoding PNG: %w", err)
		}

		bounds := img.Bounds()
		return output.Print(MapResult{
			Path:     mapOutput,
			Elements: len(elements),
			Width:    bounds.Dx(),
			Height:   bounds.Dy(),
		})
	})
}
