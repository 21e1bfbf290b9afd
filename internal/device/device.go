// Package device adapts local files and streams to the device capabilities
// the scan screens need: permissions, a camera, a photo library and a
// decoded barcode feed.
package device

import (
	"context"
	"path/filepath"
	"strings"
)

// ImageRef is an opaque handle to a captured or picked image on local disk.
type ImageRef struct {
	Path string
}

// IsZero reports whether the ref points at nothing.
func (r ImageRef) IsZero() bool {
	return r.Path == ""
}

// Name returns the file's base name.
func (r ImageRef) Name() string {
	if r.Path == "" {
		return ""
	}
	return filepath.Base(r.Path)
}

// PermissionStatus is the state of a capability permission.
type PermissionStatus string

const (
	PermissionUndetermined PermissionStatus = "undetermined"
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
)

// Granted reports whether the permission allows access.
func (s PermissionStatus) Granted() bool {
	return s == PermissionGranted
}

// Resource names a permission-gated capability.
type Resource string

const (
	ResourceCamera  Resource = "camera"
	ResourceLibrary Resource = "library"
)

// Permissions queries and requests capability permissions.
type Permissions interface {
	Status(ctx context.Context, r Resource) (PermissionStatus, error)
	Request(ctx context.Context, r Resource) (PermissionStatus, error)
}

// Camera captures still images to local files. Close releases the device
// and anything it captured.
type Camera interface {
	TakePicture(ctx context.Context) (ImageRef, error)
	Close() error
}

// Library picks an existing image. ok is false when the user cancels.
type Library interface {
	Pick(ctx context.Context) (ref ImageRef, ok bool, err error)
}

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".heic": true,
}

func isImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}
