package flow

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/width"

	"github.com/bite-app/bite-cli/internal/device"
	"github.com/bite-app/bite-cli/internal/model"
	"github.com/bite-app/bite-cli/pkg/scanapi"
)

// Barcode flow states.
const (
	BarcodeIdle      State = "idle"
	BarcodeBusy      State = "busy"
	BarcodeSucceeded State = "succeeded"
	BarcodeFailed    State = "failed"
)

var barcodeTable = map[edge]State{
	{BarcodeIdle, evSubmit}:     BarcodeBusy,
	{BarcodeBusy, evSucceed}:    BarcodeSucceeded,
	{BarcodeBusy, evFail}:       BarcodeFailed,
	{BarcodeFailed, evReset}:    BarcodeIdle,
	{BarcodeSucceeded, evReset}: BarcodeIdle,
}

// NormalizeBarcode trims input and folds full-width characters to their
// ASCII forms, so codes typed on an IME keyboard match printed codes.
func NormalizeBarcode(raw string) string {
	return strings.TrimSpace(width.Fold.String(strings.TrimSpace(raw)))
}

// BarcodeFlow submits one barcode at a time. A failure puts the flow back
// in BarcodeIdle so the camera may fire again; a success holds it in
// BarcodeSucceeded until Reset.
type BarcodeFlow struct {
	client scanapi.Client
	m      *machine
	log    *zap.Logger
}

// NewBarcodeFlow creates an idle barcode flow.
func NewBarcodeFlow(client scanapi.Client) *BarcodeFlow {
	return &BarcodeFlow{
		client: client,
		m:      newMachine(BarcodeIdle, barcodeTable),
		log:    zap.L().With(zap.String("flow", "barcode")),
	}
}

// State returns the current state.
func (f *BarcodeFlow) State() State {
	return f.m.current()
}

// Submit looks up a typed barcode. Blank input is rejected with a
// ValidationError before any request is made.
func (f *BarcodeFlow) Submit(ctx context.Context, raw string) (*model.ScanResponse, error) {
	code := NormalizeBarcode(raw)
	if code == "" {
		return nil, errMissingBarcode
	}

	f.m.mu.Lock()
	if f.m.state != BarcodeIdle {
		f.m.mu.Unlock()
		return nil, ErrBusy
	}
	err := f.m.fireLocked(evSubmit)
	f.m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return f.send(ctx, code)
}

// OnScanned handles a decoded camera event. Events that arrive while a
// request is in flight, or after one has succeeded, return ErrIgnored.
func (f *BarcodeFlow) OnScanned(ctx context.Context, ev device.ScanEvent) (*model.ScanResponse, error) {
	code := NormalizeBarcode(ev.Data)

	f.m.mu.Lock()
	if f.m.state != BarcodeIdle || code == "" {
		f.m.mu.Unlock()
		f.log.Debug("scan event ignored", zap.String("data", ev.Data), zap.String("state", string(f.State())))
		return nil, ErrIgnored
	}
	err := f.m.fireLocked(evSubmit)
	f.m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	f.log.Info("barcode scanned", zap.String("symbology", string(ev.Symbology)), zap.String("barcode", code))
	return f.send(ctx, code)
}

func (f *BarcodeFlow) send(ctx context.Context, code string) (*model.ScanResponse, error) {
	resp, err := f.client.ScanBarcode(ctx, code)
	if err != nil {
		_ = f.m.fire(evFail)
		_ = f.m.fire(evReset)
		f.log.Warn("barcode lookup failed", zap.String("barcode", code), zap.Error(err))
		return nil, err
	}
	_ = f.m.fire(evSucceed)
	return resp, nil
}

// Reset returns a settled flow to BarcodeIdle.
func (f *BarcodeFlow) Reset() error {
	return f.m.fire(evReset)
}
