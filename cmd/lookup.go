package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bite-app/bite-cli/internal/device"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <barcode>",
	Short: "Look up a barcode typed by hand",
	Long: `Look up a retail barcode without the scanner.

Examples:
  # Look up an EAN-13 code
  bite lookup 4006381333931

  # Machine-readable output
  bite lookup 4006381333931 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("api"); err != nil {
		return err
	}

	a, err := newApp(cmd, device.StaticPermissions{})
	if err != nil {
		return err
	}

	zap.L().Debug("lookup", zap.String("base_url", cfg.API.BaseURL))
	if err := a.Home().Lookup(ctx, args[0]); err != nil {
		return err
	}
	return showResult(cmd, a)
}
