package flow

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bite-app/bite-cli/internal/device"
	"github.com/bite-app/bite-cli/internal/model"
	"github.com/bite-app/bite-cli/pkg/scanapi"
)

// Label flow states.
const (
	LabelEmpty     State = "empty"
	LabelCaptured  State = "captured"
	LabelBusy      State = "busy"
	LabelSucceeded State = "succeeded"
	LabelFailed    State = "failed"
)

var labelTable = map[edge]State{
	{LabelEmpty, evCapture}:    LabelCaptured,
	{LabelCaptured, evDiscard}: LabelEmpty,
	{LabelCaptured, evSubmit}:  LabelBusy,
	{LabelBusy, evSucceed}:     LabelSucceeded,
	{LabelBusy, evFail}:        LabelFailed,
	{LabelFailed, evReset}:     LabelCaptured,
}

// LabelForm holds the optional fields sent with a label image.
type LabelForm struct {
	Barcode string
	Name    string
	Brand   string
}

// LabelFlow acquires one label image, by camera or library pick, and
// submits it. A failed upload keeps the image so it can be resubmitted.
type LabelFlow struct {
	client scanapi.Client
	m      *machine
	image  device.ImageRef
	log    *zap.Logger
}

// NewLabelFlow creates an empty label flow.
func NewLabelFlow(client scanapi.Client) *LabelFlow {
	return &LabelFlow{
		client: client,
		m:      newMachine(LabelEmpty, labelTable),
		log:    zap.L().With(zap.String("flow", "label")),
	}
}

// State returns the current state.
func (f *LabelFlow) State() State {
	return f.m.current()
}

// Image returns the captured image, zero when none.
func (f *LabelFlow) Image() device.ImageRef {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.image
}

// CanSubmit reports whether an image is ready to upload.
func (f *LabelFlow) CanSubmit() bool {
	return f.m.can(evSubmit)
}

// Capture takes a picture with cam. Only an empty flow can capture; a
// captured image must be discarded first.
func (f *LabelFlow) Capture(ctx context.Context, cam device.Camera) error {
	if err := f.acquirable(); err != nil {
		return err
	}

	ref, err := cam.TakePicture(ctx)
	if err != nil {
		return err
	}
	return f.setImage(ref)
}

// Pick selects an image from the library, asking for permission first.
// Like Capture it needs an empty flow. A cancelled pick returns false and
// leaves the flow unchanged.
func (f *LabelFlow) Pick(ctx context.Context, lib device.Library, perms device.Permissions) (bool, error) {
	if err := f.acquirable(); err != nil {
		return false, err
	}

	status, err := device.Ensure(ctx, perms, device.ResourceLibrary)
	if err != nil {
		return false, err
	}
	if !status.Granted() {
		return false, &PermissionDeniedError{Resource: device.ResourceLibrary}
	}

	ref, ok, err := lib.Pick(ctx)
	if err != nil || !ok {
		return false, err
	}
	if err := f.setImage(ref); err != nil {
		return false, err
	}
	return true, nil
}

func (f *LabelFlow) acquirable() error {
	switch s := f.State(); s {
	case LabelEmpty:
		return nil
	case LabelBusy:
		return ErrBusy
	default:
		return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, evCapture, s)
	}
}

func (f *LabelFlow) setImage(ref device.ImageRef) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if err := f.m.fireLocked(evCapture); err != nil {
		return err
	}
	f.image = ref
	f.log.Debug("label image set", zap.String("image", ref.Name()))
	return nil
}

// Discard drops the captured image so the user can retake it.
func (f *LabelFlow) Discard() error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if err := f.m.fireLocked(evDiscard); err != nil {
		return err
	}
	f.image = device.ImageRef{}
	return nil
}

// Submit uploads the captured image. Without one it returns a
// ValidationError and makes no request.
func (f *LabelFlow) Submit(ctx context.Context, form LabelForm) (*model.ScanResponse, error) {
	f.m.mu.Lock()
	switch f.m.state {
	case LabelEmpty:
		f.m.mu.Unlock()
		return nil, errMissingImage
	case LabelBusy:
		f.m.mu.Unlock()
		return nil, ErrBusy
	}
	if err := f.m.fireLocked(evSubmit); err != nil {
		f.m.mu.Unlock()
		return nil, err
	}
	image := f.image
	f.m.mu.Unlock()

	upload := scanapi.LabelUpload{
		Barcode:   NormalizeBarcode(form.Barcode),
		Name:      strings.TrimSpace(form.Name),
		Brand:     strings.TrimSpace(form.Brand),
		ImagePath: image.Path,
	}

	resp, err := f.client.UploadLabelImage(ctx, upload)
	if err != nil {
		_ = f.m.fire(evFail)
		_ = f.m.fire(evReset)
		f.log.Warn("label upload failed", zap.String("image", image.Name()), zap.Error(err))
		return nil, err
	}
	_ = f.m.fire(evSucceed)
	return resp, nil
}
