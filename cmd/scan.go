package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bite-app/bite-cli/internal/device"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan barcodes from a live decoder feed",
	Long: `Read decoded barcodes from a scanner feed, one per line, and look up
the first one the service accepts. Lines are "symbology:data" or bare data.
Recognized symbologies: ean13, ean8, upc_a, upc_e, code128, code39.

Examples:
  # Hardware scanner in keyboard mode
  bite scan

  # Decoder output saved to a file
  bite scan --input frames.txt`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().String("input", "-", `scan feed to read ("-" for stdin)`)
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("scan"); err != nil {
		return err
	}

	input, _ := cmd.Flags().GetString("input")
	feed, perms, err := openScanFeed(ctx, cmd, input)
	if err != nil {
		return err
	}
	defer func() {
		if err := feed.Close(); err != nil {
			zap.L().Warn("scan: close feed", zap.Error(err))
		}
	}()

	a, err := newApp(cmd, perms)
	if err != nil {
		return err
	}
	screen, err := a.OpenScanner()
	if err != nil {
		return err
	}

	if err := screen.Run(ctx, feed); err != nil {
		return err
	}
	return showResult(cmd, a)
}

// openScanFeed builds the throttled feed for input ("-" is stdin) and the
// camera permission that goes with it. The caller owns the feed.
func openScanFeed(ctx context.Context, cmd *cobra.Command, input string) (*device.ReaderFeed, device.Permissions, error) {
	var (
		src   io.Reader
		perms device.Permissions
	)
	if input == "-" {
		// The feed must not close stdin.
		src = io.NopCloser(cmd.InOrStdin())
		perms = device.StaticPermissions{device.ResourceCamera: device.PermissionGranted}
	} else {
		perms = device.NewFilePermissions(input, "")
		status, err := device.Ensure(ctx, perms, device.ResourceCamera)
		if err != nil {
			return nil, nil, err
		}
		if status.Granted() {
			f, err := os.Open(input)
			if err != nil {
				return nil, nil, eris.Wrapf(err, "scan: open feed %s", input)
			}
			src = f
		} else {
			// Run reports the refusal before reading.
			src = eofReader{}
		}
	}

	limiter := device.NewLimiter(cfg.Device.ScanRate, cfg.Device.ScanBurst)
	return device.NewReaderFeed(src, limiter), perms, nil
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
