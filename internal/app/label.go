package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/bite-app/bite-cli/internal/device"
	"github.com/bite-app/bite-cli/internal/flow"
	"github.com/bite-app/bite-cli/internal/nav"
)

// CameraOpener opens the camera when the label screen mounts.
type CameraOpener func() (device.Camera, error)

// LabelScreen captures or picks a label photo and uploads it.
type LabelScreen struct {
	app     *App
	flow    *flow.LabelFlow
	cameras CameraOpener
	library device.Library
	camera  device.Camera
}

// Mount asks for camera permission and opens the camera when granted.
// Without a camera the screen still accepts library picks.
func (s *LabelScreen) Mount(ctx context.Context) error {
	if s.cameras == nil {
		return nil
	}
	status, err := device.Ensure(ctx, s.app.perms, device.ResourceCamera)
	if err != nil {
		return err
	}
	if !status.Granted() {
		zap.L().Info("label screen: camera permission denied")
		return nil
	}
	cam, err := s.cameras()
	if err != nil {
		s.app.alert(err)
		return err
	}
	s.camera = cam
	return nil
}

// Unmount releases the camera. Safe to call more than once.
func (s *LabelScreen) Unmount() error {
	if s.camera == nil {
		return nil
	}
	err := s.camera.Close()
	s.camera = nil
	return err
}

// Flow exposes the screen's state machine.
func (s *LabelScreen) Flow() *flow.LabelFlow {
	return s.flow
}

// Capture takes a photo with the mounted camera.
func (s *LabelScreen) Capture(ctx context.Context) error {
	if s.camera == nil {
		err := &flow.PermissionDeniedError{Resource: device.ResourceCamera}
		s.app.alert(err)
		return err
	}
	if err := s.flow.Capture(ctx, s.camera); err != nil {
		s.app.alert(err)
		return err
	}
	return nil
}

// Pick chooses a photo from the library. It returns false when the pick
// was cancelled.
func (s *LabelScreen) Pick(ctx context.Context) (bool, error) {
	if s.library == nil {
		err := &flow.PermissionDeniedError{Resource: device.ResourceLibrary}
		s.app.alert(err)
		return false, err
	}
	ok, err := s.flow.Pick(ctx, s.library, s.app.perms)
	if err != nil {
		s.app.alert(err)
	}
	return ok, err
}

// Retake discards the captured photo.
func (s *LabelScreen) Retake() error {
	return s.flow.Discard()
}

// Submit uploads the photo and replaces this screen with Result.
func (s *LabelScreen) Submit(ctx context.Context, form flow.LabelForm) error {
	resp, err := s.flow.Submit(ctx, form)
	if err != nil {
		s.app.alert(err)
		return err
	}
	return s.app.Nav.Replace(nav.Result, &nav.ResultParams{Title: titleLabelResult, Payload: resp})
}
