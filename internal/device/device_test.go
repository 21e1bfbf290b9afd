package device

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestParseScanEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line   string
		want   ScanEvent
		wantOK bool
	}{
		{"ean13:4006381333931", ScanEvent{SymbologyEAN13, "4006381333931"}, true},
		{"  EAN8 : 96385074 ", ScanEvent{SymbologyEAN8, "96385074"}, true},
		{"4006381333931", ScanEvent{SymbologyEAN13, "4006381333931"}, true},
		{"036000291452", ScanEvent{SymbologyUPCA, "036000291452"}, true},
		{"96385074", ScanEvent{SymbologyEAN8, "96385074"}, true},
		{"012345", ScanEvent{SymbologyUPCE, "012345"}, true},
		{"ABC-123", ScanEvent{SymbologyCode128, "ABC-123"}, true},
		{"qr:https://example.com", ScanEvent{"qr", "https://example.com"}, true},
		{"ean13:", ScanEvent{}, false},
		{"   ", ScanEvent{}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseScanEvent(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSymbologySupported(t *testing.T) {
	t.Parallel()

	for _, s := range Recognized {
		assert.True(t, s.Supported(), string(s))
	}
	assert.False(t, Symbology("qr").Supported())
	assert.False(t, Symbology("").Supported())
}

func TestReaderFeed_FiltersUnsupported(t *testing.T) {
	t.Parallel()

	feed := NewReaderFeed(strings.NewReader("qr:hello\n\nean13:4006381333931\ncode39:ABC\n"), nil)
	defer feed.Close()

	ev, err := feed.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanEvent{SymbologyEAN13, "4006381333931"}, ev)

	ev, err = feed.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanEvent{SymbologyCode39, "ABC"}, ev)

	_, err = feed.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderFeed_ThrottlesRepeats(t *testing.T) {
	t.Parallel()

	// One token, refilled far slower than the test runs.
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	feed := NewReaderFeed(strings.NewReader("111111\n111111\n111111\n222222\n222222\n"), limiter)
	defer feed.Close()

	ev, err := feed.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "111111", ev.Data)

	ev, err = feed.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "222222", ev.Data)

	_, err = feed.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderFeed_DistinctCodesNotThrottled(t *testing.T) {
	t.Parallel()

	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	feed := NewReaderFeed(strings.NewReader("111111\n222222\n111111\n"), limiter)
	defer feed.Close()

	var got []string
	for {
		ev, err := feed.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, ev.Data)
	}
	assert.Equal(t, []string{"111111", "222222", "111111"}, got)
}

func TestReaderFeed_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	feed := NewReaderFeed(strings.NewReader("4006381333931\n"), nil)
	defer feed.Close()
	_, err := feed.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type closeRecorder struct {
	io.Reader
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestReaderFeed_CloseOnce(t *testing.T) {
	t.Parallel()

	src := &closeRecorder{Reader: strings.NewReader("")}
	feed := NewReaderFeed(src, nil)
	require.NoError(t, feed.Close())
	require.NoError(t, feed.Close())
	assert.Equal(t, 1, src.closed)
}

func TestNewLimiter(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewLimiter(0, 3))
	l := NewLimiter(2, 0)
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Burst())
}

func TestFileCamera_CaptureAndClose(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "label.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpeg"), 0o600))

	cam, err := OpenFileCamera(src)
	require.NoError(t, err)

	ref, err := cam.TakePicture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cam.Dir(), filepath.Dir(ref.Path))
	data, err := os.ReadFile(ref.Path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	second, err := cam.TakePicture(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, ref.Path, second.Path)

	require.NoError(t, cam.Close())
	require.NoError(t, cam.Close())
	_, err = os.Stat(cam.Dir())
	assert.True(t, os.IsNotExist(err), "capture dir should be removed on close")

	_, err = cam.TakePicture(context.Background())
	assert.Error(t, err)
}

func TestOpenFileCamera_BadSource(t *testing.T) {
	t.Parallel()

	_, err := OpenFileCamera(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)

	_, err = OpenFileCamera(t.TempDir())
	assert.Error(t, err)
}

func TestDirLibrary_Pick(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	older := filepath.Join(dir, "older.jpg")
	newer := filepath.Join(dir, "newer.png")
	require.NoError(t, os.WriteFile(older, []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(newer, []byte("b"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("c"), 0o600))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	ref, ok, err := DirLibrary{Dir: dir}.Pick(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, newer, ref.Path)

	ref, ok, err = DirLibrary{Dir: dir, Name: "older.jpg"}.Pick(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, older, ref.Path)
	assert.Equal(t, "older.jpg", ref.Name())

	_, ok, err = DirLibrary{Dir: dir, Name: "missing.jpg"}.Pick(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirLibrary_EmptyIsCancel(t *testing.T) {
	t.Parallel()

	_, ok, err := DirLibrary{Dir: t.TempDir()}.Pick(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = DirLibrary{Dir: filepath.Join(t.TempDir(), "nope")}.Pick(context.Background())
	assert.Error(t, err)
}

func TestFilePermissions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "cam.jpg")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))

	p := NewFilePermissions(src, "")
	ctx := context.Background()

	s, err := p.Status(ctx, ResourceCamera)
	require.NoError(t, err)
	assert.Equal(t, PermissionUndetermined, s)

	s, err = Ensure(ctx, p, ResourceCamera)
	require.NoError(t, err)
	assert.True(t, s.Granted())

	s, err = p.Status(ctx, ResourceCamera)
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, s)

	s, err = Ensure(ctx, p, ResourceLibrary)
	require.NoError(t, err)
	assert.Equal(t, PermissionDenied, s)

	missing := NewFilePermissions(filepath.Join(dir, "missing.jpg"), dir)
	s, err = missing.Request(ctx, ResourceCamera)
	require.NoError(t, err)
	assert.Equal(t, PermissionDenied, s)

	_, err = p.Request(ctx, Resource("microphone"))
	assert.Error(t, err)
}

func TestReaderFeed_NextReturnsOnCancel(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	defer pw.Close()

	feed := NewReaderFeed(pr, nil)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := feed.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, feed.Close())
}

func TestStaticPermissions(t *testing.T) {
	t.Parallel()

	p := StaticPermissions{ResourceCamera: PermissionGranted}
	s, err := Ensure(context.Background(), p, ResourceCamera)
	require.NoError(t, err)
	assert.True(t, s.Granted())

	s, err = Ensure(context.Background(), p, ResourceLibrary)
	require.NoError(t, err)
	assert.Equal(t, PermissionDenied, s)
}
