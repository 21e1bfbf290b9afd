package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bite-app/bite-cli/internal/device"
	"github.com/bite-app/bite-cli/internal/flow"
	"github.com/bite-app/bite-cli/internal/nav"
	"github.com/bite-app/bite-cli/internal/render"
	"github.com/bite-app/bite-cli/pkg/scanapi"
)

type alert struct{ title, message string }

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []alert
}

func (n *recordingNotifier) Alert(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert{title, message})
}

func (n *recordingNotifier) all() []alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]alert(nil), n.alerts...)
}

type staticPerms struct{ status device.PermissionStatus }

func (p staticPerms) Status(context.Context, device.Resource) (device.PermissionStatus, error) {
	return p.status, nil
}

func (p staticPerms) Request(context.Context, device.Resource) (device.PermissionStatus, error) {
	return p.status, nil
}

var granted = staticPerms{device.PermissionGranted}

// scanService is a fake analysis service. Barcodes listed in missing
// answer 404 with {"error":"not found"}.
func scanService(t *testing.T, missing ...string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/scan/barcode":
			body := new(bytes.Buffer)
			body.ReadFrom(r.Body)
			for _, m := range missing {
				if strings.Contains(body.String(), m) {
					w.WriteHeader(http.StatusNotFound)
					w.Write([]byte(`{"error":"not found"}`))
					return
				}
			}
			w.Write([]byte(`{"barcode":"4006381333931","found":true,"product":{"name":"Oat Bar","brand":"Acme"},"analysis":{"score_label":"A","risk_flags":[],"matches":{}}}`))
		case "/api/scan/label":
			w.Write([]byte(`{"result":{"analysis":{"score_label":"C"},"normalized_ingredients":["sugar","salt"],"raw_text":"SUGAR, SALT"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestApp(t *testing.T, srv *httptest.Server, perms device.Permissions) (*App, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	client := scanapi.NewClient(srv.URL, scanapi.WithLogger(zap.NewNop()))
	return New(client, perms, n, render.Options{Format: render.FormatText}), n
}

func TestHome_LookupPushesResult(t *testing.T) {
	t.Parallel()

	srv, _ := scanService(t)
	a, n := newTestApp(t, srv, granted)
	home := a.Home()

	require.NoError(t, home.Lookup(context.Background(), "4006381333931"))
	assert.Empty(t, n.all())
	assert.False(t, home.Busy())

	res, err := a.Result()
	require.NoError(t, err)
	vm := res.View()
	assert.Equal(t, "Barcode Result", vm.Title)
	assert.Equal(t, "Oat Bar", vm.ProductName)
	assert.Equal(t, "A", vm.ScoreLabel)

	var out bytes.Buffer
	require.NoError(t, res.Show(&out))
	assert.Contains(t, out.String(), "Oat Bar")

	require.True(t, a.Back())
	assert.Equal(t, nav.Home, a.Nav.Current().Screen)

	// Home can look up again after returning.
	require.NoError(t, home.Lookup(context.Background(), "4006381333931"))
}

func TestHome_BlankInputNeverCallsService(t *testing.T) {
	t.Parallel()

	srv, calls := scanService(t)
	a, n := newTestApp(t, srv, granted)

	err := a.Home().Lookup(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
	assert.Equal(t, []alert{{"Missing barcode", "Please enter a barcode."}}, n.all())
	assert.Equal(t, nav.Home, a.Nav.Current().Screen)
}

func TestHome_NotFoundSurfacesServiceMessage(t *testing.T) {
	t.Parallel()

	srv, _ := scanService(t, "000")
	a, n := newTestApp(t, srv, granted)
	home := a.Home()

	err := home.Lookup(context.Background(), "000")
	require.Error(t, err)
	assert.Equal(t, []alert{{"Error", "not found"}}, n.all())
	assert.Equal(t, flow.BarcodeIdle, home.flow.State())
	assert.Equal(t, nav.Home, a.Nav.Current().Screen)
}

func TestScanner_FirstGoodScanReplacesWithResult(t *testing.T) {
	t.Parallel()

	srv, calls := scanService(t, "0000000000000")
	a, n := newTestApp(t, srv, granted)

	sc, err := a.OpenScanner()
	require.NoError(t, err)

	src := &closeTracker{Reader: strings.NewReader(strings.Join([]string{
		"qr:https://example.com",
		"ean13:0000000000000",
		"ean13:4006381333931",
		"ean13:4006381333931",
	}, "\n"))}
	feed := device.NewReaderFeed(src, nil)

	require.NoError(t, sc.Run(context.Background(), feed))

	assert.Equal(t, []alert{{"Error", "not found"}}, n.all())
	assert.Equal(t, int32(2), atomic.LoadInt32(calls), "duplicate frame after success is ignored")
	assert.Equal(t, flow.BarcodeSucceeded, sc.flow.State())
	assert.True(t, src.closed(), "feed closed on exit")

	assert.Equal(t, nav.Result, a.Nav.Current().Screen)
	require.True(t, a.Back())
	assert.Equal(t, nav.Home, a.Nav.Current().Screen, "Result replaced the scanner")
}

func TestScanner_ThrottledFeedRetriesAfterFailure(t *testing.T) {
	t.Parallel()

	srv, calls := scanService(t, "0000000000000")
	a, n := newTestApp(t, srv, granted)

	sc, err := a.OpenScanner()
	require.NoError(t, err)

	src := strings.NewReader("ean13:0000000000000\nean13:4006381333931\n")
	feed := device.NewReaderFeed(src, device.NewLimiter(4, 1))

	require.NoError(t, sc.Run(context.Background(), feed))

	assert.Equal(t, []alert{{"Error", "not found"}}, n.all())
	assert.Equal(t, int32(2), atomic.LoadInt32(calls), "the code after a failed lookup reaches the service")
	assert.Equal(t, nav.Result, a.Nav.Current().Screen)
}

func TestScanner_FeedEndsWithoutResult(t *testing.T) {
	t.Parallel()

	srv, _ := scanService(t)
	a, _ := newTestApp(t, srv, granted)
	sc, err := a.OpenScanner()
	require.NoError(t, err)

	src := &closeTracker{Reader: strings.NewReader("qr:nothing\n")}
	err = sc.Run(context.Background(), device.NewReaderFeed(src, nil))
	assert.ErrorIs(t, err, ErrNoScan)
	assert.True(t, src.closed())
	assert.Equal(t, nav.Scanner, a.Nav.Current().Screen)
}

func TestScanner_PermissionDenied(t *testing.T) {
	t.Parallel()

	srv, calls := scanService(t)
	a, n := newTestApp(t, srv, staticPerms{device.PermissionDenied})
	sc, err := a.OpenScanner()
	require.NoError(t, err)

	src := &closeTracker{Reader: strings.NewReader("4006381333931\n")}
	err = sc.Run(context.Background(), device.NewReaderFeed(src, nil))

	var pe *flow.PermissionDeniedError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, []alert{{"Permission needed", "Camera permission is required."}}, n.all())
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
	assert.True(t, src.closed(), "feed closed even when permission is denied")
}

func TestLabel_CaptureSubmitReplacesWithResult(t *testing.T) {
	t.Parallel()

	srv, _ := scanService(t)
	a, n := newTestApp(t, srv, granted)

	source := filepath.Join(t.TempDir(), "label.jpg")
	require.NoError(t, os.WriteFile(source, []byte("jpeg"), 0o600))

	var cam *device.FileCamera
	screen, err := a.OpenLabelScanner(func() (device.Camera, error) {
		c, err := device.OpenFileCamera(source)
		cam = c
		return c, err
	}, nil)
	require.NoError(t, err)
	require.NoError(t, screen.Mount(context.Background()))
	defer screen.Unmount()

	require.NoError(t, screen.Capture(context.Background()))
	require.NoError(t, screen.Submit(context.Background(), flow.LabelForm{Barcode: "4006381333931"}))
	assert.Empty(t, n.all())

	require.NoError(t, screen.Unmount())
	_, statErr := os.Stat(cam.Dir())
	assert.True(t, os.IsNotExist(statErr), "camera released on unmount")

	res, err := a.Result()
	require.NoError(t, err)
	vm := res.View()
	assert.Equal(t, "Label OCR Result", vm.Title)
	assert.Equal(t, "C", vm.ScoreLabel)
	assert.Equal(t, []string{"sugar", "salt"}, vm.Ingredients)
	assert.Equal(t, "SUGAR, SALT", vm.RawText)

	require.True(t, a.Back())
	assert.Equal(t, nav.Home, a.Nav.Current().Screen)
}

func TestLabel_SubmitWithoutImage(t *testing.T) {
	t.Parallel()

	srv, calls := scanService(t)
	a, n := newTestApp(t, srv, granted)
	screen, err := a.OpenLabelScanner(nil, nil)
	require.NoError(t, err)
	require.NoError(t, screen.Mount(context.Background()))

	err = screen.Submit(context.Background(), flow.LabelForm{})
	require.Error(t, err)
	assert.Equal(t, []alert{{"Missing image", "Capture or choose a label photo first."}}, n.all())
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
	assert.Equal(t, nav.LabelScanner, a.Nav.Current().Screen)
}

func TestLabel_PickFromLibrary(t *testing.T) {
	t.Parallel()

	srv, _ := scanService(t)
	a, _ := newTestApp(t, srv, granted)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "label.jpg"), []byte("jpeg"), 0o600))

	screen, err := a.OpenLabelScanner(nil, device.DirLibrary{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, screen.Mount(context.Background()))

	ok, err := screen.Pick(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, flow.LabelCaptured, screen.Flow().State())

	require.NoError(t, screen.Retake())
	assert.Equal(t, flow.LabelEmpty, screen.Flow().State())
}

func TestLabel_CaptureWithoutCamera(t *testing.T) {
	t.Parallel()

	srv, _ := scanService(t)
	a, n := newTestApp(t, srv, staticPerms{device.PermissionDenied})

	opened := false
	screen, err := a.OpenLabelScanner(func() (device.Camera, error) {
		opened = true
		return nil, errors.New("should not open")
	}, nil)
	require.NoError(t, err)
	require.NoError(t, screen.Mount(context.Background()))
	assert.False(t, opened)

	err = screen.Capture(context.Background())
	require.Error(t, err)
	assert.Equal(t, []alert{{"Permission needed", "Camera permission is required."}}, n.all())
	require.NoError(t, screen.Unmount())
}

func TestResult_RequiresResultRoute(t *testing.T) {
	t.Parallel()

	srv, _ := scanService(t)
	a, _ := newTestApp(t, srv, granted)
	_, err := a.Result()
	assert.Error(t, err)
}

func TestWriterNotifier(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	WriterNotifier{W: &buf}.Alert("Error", "not found")
	assert.Equal(t, "Error: not found\n", buf.String())
}

type closeTracker struct {
	*strings.Reader
	n int32
}

func (c *closeTracker) Close() error {
	atomic.AddInt32(&c.n, 1)
	return nil
}

func (c *closeTracker) closed() bool {
	return atomic.LoadInt32(&c.n) > 0
}
