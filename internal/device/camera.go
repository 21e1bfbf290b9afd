package device

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FileCamera "captures" by copying a source image into a private capture
// directory, the way a device camera writes frames to a cache file.
// The capture directory and every frame in it are removed by Close.
type FileCamera struct {
	source string

	mu     sync.Mutex
	dir    string
	frames int
	closed bool
}

// OpenFileCamera opens a camera backed by the image at source.
func OpenFileCamera(source string) (*FileCamera, error) {
	fi, err := os.Stat(source)
	if err != nil {
		return nil, eris.Wrapf(err, "device: open camera source %s", source)
	}
	if fi.IsDir() {
		return nil, eris.Errorf("device: camera source %s is a directory", source)
	}

	dir, err := os.MkdirTemp("", "bite-capture-*")
	if err != nil {
		return nil, eris.Wrap(err, "device: create capture dir")
	}

	zap.L().Debug("device: camera opened", zap.String("source", source), zap.String("dir", dir))
	return &FileCamera{source: source, dir: dir}, nil
}

// TakePicture copies the current source frame into the capture directory.
func (c *FileCamera) TakePicture(ctx context.Context) (ImageRef, error) {
	if err := ctx.Err(); err != nil {
		return ImageRef{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ImageRef{}, eris.New("device: camera is closed")
	}

	src, err := os.Open(c.source)
	if err != nil {
		return ImageRef{}, eris.Wrap(err, "device: read camera source")
	}
	defer src.Close() //nolint:errcheck

	c.frames++
	path := filepath.Join(c.dir, fmt.Sprintf("frame-%03d.jpg", c.frames))
	dst, err := os.Create(path)
	if err != nil {
		return ImageRef{}, eris.Wrap(err, "device: create frame")
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return ImageRef{}, eris.Wrap(err, "device: write frame")
	}
	if err := dst.Close(); err != nil {
		return ImageRef{}, eris.Wrap(err, "device: close frame")
	}

	return ImageRef{Path: path}, nil
}

// Dir returns the capture directory.
func (c *FileCamera) Dir() string {
	return c.dir
}

// Close removes the capture directory. It is safe to call more than once.
func (c *FileCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	zap.L().Debug("device: camera closed", zap.String("dir", c.dir), zap.Int("frames", c.frames))
	if err := os.RemoveAll(c.dir); err != nil {
		return eris.Wrap(err, "device: remove capture dir")
	}
	return nil
}
