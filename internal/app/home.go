package app

import (
	"context"

	"github.com/bite-app/bite-cli/internal/flow"
	"github.com/bite-app/bite-cli/internal/nav"
)

// HomeScreen offers manual barcode lookup and entry to both scanners.
type HomeScreen struct {
	app  *App
	flow *flow.BarcodeFlow
}

// Busy reports whether a lookup is in flight.
func (h *HomeScreen) Busy() bool {
	return h.flow.State() == flow.BarcodeBusy
}

// Lookup submits a typed barcode and pushes the result.
func (h *HomeScreen) Lookup(ctx context.Context, code string) error {
	resp, err := h.flow.Submit(ctx, code)
	if err != nil {
		h.app.alert(err)
		return err
	}
	// Home stays usable for the next lookup once Result is dismissed.
	defer h.flow.Reset() //nolint:errcheck

	return h.app.Nav.Push(nav.Result, &nav.ResultParams{Title: titleBarcodeResult, Payload: resp})
}
