package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/game-bridge/internal/config"
	"github.com/mj1618/game-bridge/internal/controller"
)

// loadConfig resolves the controller configuration from --config, the
// working directory, and the --listen override, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if path, _ := rootCmd.PersistentFlags().GetString("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if listen, _ := rootCmd.PersistentFlags().GetString("listen"); listen != "" {
		cfg.Listen = listen
	}
	return cfg, nil
}

// withClient starts the controller listener, waits for the application's
// bridge to dial in, runs fn, and tears the listener down. The bridge
// retries on a fixed interval, so a freshly started CLI picks up the
// connection within one retry period.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, client *controller.Client, cfg *config.Config) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	client, err := controller.Listen(controller.Config{Address: cfg.Listen})
	if err != nil {
		return err
	}
	defer client.Close()

	waitSec, _ := rootCmd.PersistentFlags().GetInt("wait")
	waitCtx, cancel := context.WithTimeout(context.Background(), time.Duration(waitSec)*time.Second)
	defer cancel()
	if err := client.WaitBridge(waitCtx); err != nil {
		return fmt.Errorf("bridge did not connect on %s: %w", cfg.Listen, err)
	}

	callCtx, cancelCall := context.WithTimeout(context.Background(), cfg.CallTimeout())
	defer cancelCall()
	return fn(callCtx, client, cfg)
}

// decodeInto unmarshals raw response data, tolerating an absent payload.
func decodeInto(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
