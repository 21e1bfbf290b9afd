// Package app wires the screens together: Home, the barcode Scanner, the
// LabelScanner and Result. Screens share nothing but navigation params.
package app

import (
	"errors"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bite-app/bite-cli/internal/device"
	"github.com/bite-app/bite-cli/internal/flow"
	"github.com/bite-app/bite-cli/internal/nav"
	"github.com/bite-app/bite-cli/internal/render"
	"github.com/bite-app/bite-cli/pkg/scanapi"
)

const (
	titleBarcodeResult = "Barcode Result"
	titleLabelResult   = "Label OCR Result"
)

// Notifier shows a blocking notice to the user.
type Notifier interface {
	Alert(title, message string)
}

// WriterNotifier writes notices to a stream.
type WriterNotifier struct {
	W io.Writer
}

// Alert writes "title: message".
func (n WriterNotifier) Alert(title, message string) {
	zap.L().Debug("alert", zap.String("title", title), zap.String("message", message))
	_ = render.Alert(n.W, title, message)
}

// App holds the navigator and the collaborators every screen uses.
type App struct {
	Nav *nav.Navigator

	client scanapi.Client
	perms  device.Permissions
	notify Notifier
	opts   render.Options
}

// New creates an app sitting on Home.
func New(client scanapi.Client, perms device.Permissions, notify Notifier, opts render.Options) *App {
	return &App{
		Nav:    nav.NewNavigator(),
		client: client,
		perms:  perms,
		notify: notify,
		opts:   opts,
	}
}

// Home returns the home screen.
func (a *App) Home() *HomeScreen {
	return &HomeScreen{app: a, flow: flow.NewBarcodeFlow(a.client)}
}

// OpenScanner navigates to the barcode scanner.
func (a *App) OpenScanner() (*ScannerScreen, error) {
	if err := a.Nav.Push(nav.Scanner, nil); err != nil {
		return nil, err
	}
	return &ScannerScreen{app: a, flow: flow.NewBarcodeFlow(a.client)}, nil
}

// OpenLabelScanner navigates to the label scanner. Callers Mount the
// screen and must Unmount it to release the camera.
func (a *App) OpenLabelScanner(cameras CameraOpener, library device.Library) (*LabelScreen, error) {
	if err := a.Nav.Push(nav.LabelScanner, nil); err != nil {
		return nil, err
	}
	return &LabelScreen{
		app:     a,
		flow:    flow.NewLabelFlow(a.client),
		cameras: cameras,
		library: library,
	}, nil
}

// Result returns the result screen for the current route.
func (a *App) Result() (*ResultScreen, error) {
	route := a.Nav.Current()
	if route.Screen != nav.Result || route.Params == nil {
		return nil, eris.Errorf("app: current screen is %s, not %s", route.Screen, nav.Result)
	}
	return &ResultScreen{params: *route.Params, opts: a.opts}, nil
}

// Back leaves the current screen.
func (a *App) Back() bool {
	return a.Nav.Pop()
}

// alert surfaces err to the user. Gate errors are not user-facing.
func (a *App) alert(err error) {
	if err == nil || errors.Is(err, flow.ErrBusy) || errors.Is(err, flow.ErrIgnored) {
		return
	}
	title, msg := flow.UserMessage(err)
	a.notify.Alert(title, msg)
}
