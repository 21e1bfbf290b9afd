package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bite-app/bite-cli/internal/app"
	"github.com/bite-app/bite-cli/internal/model"
	"github.com/bite-app/bite-cli/internal/nav"
)

var renderCmd = &cobra.Command{
	Use:   "render <file|->",
	Short: "Render a saved scan response",
	Long: `Normalize and render a scan response saved from the service, without
contacting it.

Examples:
  bite render response.json
  curl -s -X POST localhost:5000/api/scan/barcode -d '{"barcode":"123"}' | bite render -`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().String("title", nav.Result.Title(), "screen title")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate("render"); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return eris.Wrap(err, "render: read response")
	}

	opts, err := renderOptions(cmd)
	if err != nil {
		return err
	}
	title, _ := cmd.Flags().GetString("title")

	screen := app.NewResultScreen(nav.ResultParams{Title: title, Payload: model.NewScanResponse(data)}, opts)
	return screen.Show(cmd.OutOrStdout())
}
