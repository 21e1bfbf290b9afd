package device

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/rotisserie/eris"
)

// FilePermissions derives permissions from whether the backing paths can
// be read. A path that was never configured is denied. Request re-checks
// the path, which lets a user fix file modes and retry.
type FilePermissions struct {
	mu    sync.Mutex
	paths map[Resource]string
	cache map[Resource]PermissionStatus
}

// NewFilePermissions creates permissions for the camera source and the
// library directory.
func NewFilePermissions(cameraSource, libraryDir string) *FilePermissions {
	return &FilePermissions{
		paths: map[Resource]string{
			ResourceCamera:  cameraSource,
			ResourceLibrary: libraryDir,
		},
		cache: map[Resource]PermissionStatus{},
	}
}

// Status returns the last known status, undetermined until requested.
func (p *FilePermissions) Status(_ context.Context, r Resource) (PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.cache[r]; ok {
		return s, nil
	}
	return PermissionUndetermined, nil
}

// Request checks access to the backing path and records the result.
func (p *FilePermissions) Request(ctx context.Context, r Resource) (PermissionStatus, error) {
	if err := ctx.Err(); err != nil {
		return PermissionUndetermined, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	path, ok := p.paths[r]
	if !ok {
		return PermissionUndetermined, eris.Errorf("device: unknown resource %q", r)
	}

	status := PermissionGranted
	if path == "" {
		status = PermissionDenied
	} else if f, err := os.Open(path); err != nil {
		if !errors.Is(err, fs.ErrPermission) && !errors.Is(err, fs.ErrNotExist) {
			return PermissionUndetermined, eris.Wrapf(err, "device: check %s access", r)
		}
		status = PermissionDenied
	} else {
		_ = f.Close()
	}

	p.cache[r] = status
	return status, nil
}

// Ensure returns the permission status, requesting it when undetermined.
func Ensure(ctx context.Context, p Permissions, r Resource) (PermissionStatus, error) {
	s, err := p.Status(ctx, r)
	if err != nil {
		return s, err
	}
	if s != PermissionUndetermined {
		return s, nil
	}
	return p.Request(ctx, r)
}

// StaticPermissions answers every query from a fixed table. Resources not
// in the table are denied.
type StaticPermissions map[Resource]PermissionStatus

// Status returns the configured status.
func (p StaticPermissions) Status(_ context.Context, r Resource) (PermissionStatus, error) {
	if s, ok := p[r]; ok {
		return s, nil
	}
	return PermissionDenied, nil
}

// Request returns the configured status; there is nobody to ask.
func (p StaticPermissions) Request(ctx context.Context, r Resource) (PermissionStatus, error) {
	return p.Status(ctx, r)
}
