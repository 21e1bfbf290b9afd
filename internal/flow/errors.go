package flow

import (
	"errors"
	"fmt"

	"github.com/bite-app/bite-cli/internal/device"
	"github.com/bite-app/bite-cli/pkg/scanapi"
)

var (
	// ErrBusy is returned when an action arrives while a request is in flight.
	ErrBusy = errors.New("flow: request already in flight")
	// ErrIgnored is returned for scan events dropped by the scanner gate.
	ErrIgnored = errors.New("flow: scan event ignored")
	// ErrInvalidTransition is returned when an event is not allowed in the
	// current state.
	ErrInvalidTransition = errors.New("flow: invalid transition")
)

// ValidationError rejects user input before any network call.
type ValidationError struct {
	Title   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("flow: %s: %s", e.Title, e.Message)
}

// PermissionDeniedError means the user refused access to a capability.
type PermissionDeniedError struct {
	Resource device.Resource
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("flow: %s permission denied", e.Resource)
}

var (
	errMissingBarcode = &ValidationError{Title: "Missing barcode", Message: "Please enter a barcode."}
	errMissingImage   = &ValidationError{Title: "Missing image", Message: "Capture or choose a label photo first."}
)

// UserMessage maps an error to the title and message shown to the user.
func UserMessage(err error) (title, message string) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Title, ve.Message
	}

	var pe *PermissionDeniedError
	if errors.As(err, &pe) {
		switch pe.Resource {
		case device.ResourceLibrary:
			return "Permission needed", "Photo library permission is required."
		default:
			return "Permission needed", "Camera permission is required."
		}
	}

	if ae, ok := scanapi.AsAPIError(err); ok {
		return "Error", ae.Message
	}

	var ne *scanapi.NetworkError
	if errors.As(err, &ne) {
		return "Error", "Network error during " + ne.Op
	}

	if err == nil || err.Error() == "" {
		return "Error", "Failed"
	}
	return "Error", err.Error()
}
