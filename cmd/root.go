package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bite-app/bite-cli/internal/config"
	"github.com/bite-app/bite-cli/internal/flow"
	"github.com/bite-app/bite-cli/pkg/scanapi"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bite",
	Short: "Scan food barcodes and ingredient labels for health cues",
	Long:  "Looks up barcodes or uploads ingredient-label photos to the Bite analysis service and shows the score, risk flags and matched ingredient cues.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyOutputFlags(cmd, c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("format", "", "output format: text, json or yaml (overrides config)")
	f.String("color", "", "color mode: auto, always or never (overrides config)")
	f.Bool("raw", false, "append the raw service response to text output")
}

func applyOutputFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		c.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("color") {
		c.Output.Color, _ = flags.GetString("color")
	}
	if flags.Changed("raw") {
		c.Output.Raw, _ = flags.GetBool("raw")
	}
}

// alreadyShown reports whether err was surfaced to the user as an alert.
func alreadyShown(err error) bool {
	var ve *flow.ValidationError
	var pe *flow.PermissionDeniedError
	var ae *scanapi.APIError
	var ne *scanapi.NetworkError
	return errors.As(err, &ve) || errors.As(err, &pe) || errors.As(err, &ae) || errors.As(err, &ne)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !alreadyShown(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
