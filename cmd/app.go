package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bite-app/bite-cli/internal/app"
	"github.com/bite-app/bite-cli/internal/device"
	"github.com/bite-app/bite-cli/internal/render"
	"github.com/bite-app/bite-cli/pkg/scanapi"
)

func renderOptions(cmd *cobra.Command) (render.Options, error) {
	format, err := render.ParseFormat(cfg.Output.Format)
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{
		Format: format,
		Color:  render.ColorEnabled(cfg.Output.Color, cmd.OutOrStdout()),
		Raw:    cfg.Output.Raw,
	}, nil
}

func newApp(cmd *cobra.Command, perms device.Permissions) (*app.App, error) {
	opts, err := renderOptions(cmd)
	if err != nil {
		return nil, err
	}
	client := scanapi.NewClient(cfg.API.BaseURL, scanapi.WithLogger(zap.L()))
	return app.New(client, perms, app.WriterNotifier{W: cmd.ErrOrStderr()}, opts), nil
}

// showResult renders the Result screen the app navigated to.
func showResult(cmd *cobra.Command, a *app.App) error {
	res, err := a.Result()
	if err != nil {
		return err
	}
	return res.Show(cmd.OutOrStdout())
}
