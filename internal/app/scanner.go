package app

import (
	"context"
	"errors"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bite-app/bite-cli/internal/device"
	"github.com/bite-app/bite-cli/internal/flow"
	"github.com/bite-app/bite-cli/internal/nav"
)

// ErrNoScan is returned when the feed ends before any barcode succeeded.
var ErrNoScan = errors.New("app: scan feed ended without a result")

var errScanHandled = errors.New("app: scan handled")

// ScannerScreen listens to a live barcode feed.
type ScannerScreen struct {
	app  *App
	flow *flow.BarcodeFlow
}

// Run consumes feed until one barcode lookup succeeds, then replaces the
// scanner with Result. Failed lookups are alerted and scanning continues.
// The feed is closed on every exit path.
func (s *ScannerScreen) Run(ctx context.Context, feed device.BarcodeFeed) (err error) {
	log := zap.L().With(zap.String("screen", string(nav.Scanner)))
	defer func() {
		if cerr := feed.Close(); cerr != nil {
			log.Warn("close scan feed", zap.Error(cerr))
		}
	}()

	status, err := device.Ensure(ctx, s.app.perms, device.ResourceCamera)
	if err != nil {
		return eris.Wrap(err, "app: camera permission")
	}
	if !status.Granted() {
		perr := &flow.PermissionDeniedError{Resource: device.ResourceCamera}
		s.app.alert(perr)
		return perr
	}

	events := make(chan device.ScanEvent)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(events)
		for {
			ev, err := feed.Next(gctx)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
			select {
			case events <- ev:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		for ev := range events {
			resp, err := s.flow.OnScanned(gctx, ev)
			if errors.Is(err, flow.ErrIgnored) {
				continue
			}
			if err != nil {
				s.app.alert(err)
				continue
			}
			if err := s.app.Nav.Replace(nav.Result, &nav.ResultParams{Title: titleBarcodeResult, Payload: resp}); err != nil {
				return err
			}
			return errScanHandled
		}
		return ErrNoScan
	})

	err = g.Wait()
	if errors.Is(err, errScanHandled) {
		return nil
	}
	return err
}
