package app

import (
	"io"

	"github.com/bite-app/bite-cli/internal/model"
	"github.com/bite-app/bite-cli/internal/nav"
	"github.com/bite-app/bite-cli/internal/normalize"
	"github.com/bite-app/bite-cli/internal/render"
)

// ResultScreen renders the payload it was navigated to with.
type ResultScreen struct {
	params nav.ResultParams
	opts   render.Options
}

// NewResultScreen builds a result screen outside of navigation, for
// payloads loaded from disk.
func NewResultScreen(params nav.ResultParams, opts render.Options) *ResultScreen {
	return &ResultScreen{params: params, opts: opts}
}

// View derives a fresh view model.
func (r *ResultScreen) View() model.ViewModel {
	vm := normalize.Normalize(r.params.Payload)
	vm.Title = r.params.Title
	return vm
}

// Show writes the rendered result to w.
func (r *ResultScreen) Show(w io.Writer) error {
	return render.Write(w, r.View(), r.params.Payload, r.opts)
}
