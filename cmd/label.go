package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bite-app/bite-cli/internal/app"
	"github.com/bite-app/bite-cli/internal/device"
	"github.com/bite-app/bite-cli/internal/flow"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Upload an ingredient-label photo for analysis",
	Long: `Capture an ingredient-label photo from the camera source, or pick one
from the photo library directory, and upload it for OCR analysis.

Examples:
  # Capture from a specific image
  bite label --image ./label.jpg --barcode 4006381333931

  # Pick the newest photo from the configured library
  bite label --library

  # Pick a named photo and attach product details
  bite label --library --pick IMG_0042.jpg --name "Oat Bar" --brand Acme`,
	RunE: runLabel,
}

func init() {
	f := labelCmd.Flags()
	f.String("image", "", "camera source image (overrides device.camera_source)")
	f.Bool("library", false, "pick from device.library_dir instead of capturing")
	f.String("library-dir", "", "photo library directory (overrides device.library_dir)")
	f.String("pick", "", "file name to pick from the library (default: newest)")
	f.String("barcode", "", "barcode to link the label to (optional)")
	f.String("name", "", "product name (optional)")
	f.String("brand", "", "product brand (optional)")
	rootCmd.AddCommand(labelCmd)
}

func runLabel(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flags := cmd.Flags()
	if image, _ := flags.GetString("image"); image != "" {
		cfg.Device.CameraSource = image
	}
	if dir, _ := flags.GetString("library-dir"); dir != "" {
		cfg.Device.LibraryDir = dir
	}
	if err := cfg.Validate("label"); err != nil {
		return err
	}

	useLibrary, _ := flags.GetBool("library")
	pick, _ := flags.GetString("pick")
	barcode, _ := flags.GetString("barcode")
	name, _ := flags.GetString("name")
	brand, _ := flags.GetString("brand")

	a, err := newApp(cmd, device.NewFilePermissions(cfg.Device.CameraSource, cfg.Device.LibraryDir))
	if err != nil {
		return err
	}

	var cameras app.CameraOpener
	if cfg.Device.CameraSource != "" {
		source := cfg.Device.CameraSource
		cameras = func() (device.Camera, error) { return device.OpenFileCamera(source) }
	}
	var library device.Library
	if cfg.Device.LibraryDir != "" {
		library = device.DirLibrary{Dir: cfg.Device.LibraryDir, Name: pick}
	}

	screen, err := a.OpenLabelScanner(cameras, library)
	if err != nil {
		return err
	}
	if err := screen.Mount(ctx); err != nil {
		return err
	}
	defer func() {
		if err := screen.Unmount(); err != nil {
			zap.L().Warn("label: release camera", zap.Error(err))
		}
	}()

	if useLibrary || cameras == nil {
		ok, err := screen.Pick(ctx)
		if err != nil {
			return err
		}
		if !ok {
			zap.L().Info("label: nothing picked from library", zap.String("dir", cfg.Device.LibraryDir))
		}
	} else if err := screen.Capture(ctx); err != nil {
		return err
	}

	if err := screen.Submit(ctx, flow.LabelForm{Barcode: barcode, Name: name, Brand: brand}); err != nil {
		return err
	}
	return showResult(cmd, a)
}
