package model

import (
	"bytes"
	"encoding/json"
)

// ScanResponse is the JSON document returned by the analysis service.
// It is kept as raw bytes because the service emits more than one shape
// (flat and result-nested) with no version marker.
type ScanResponse struct {
	Raw json.RawMessage
}

// NewScanResponse wraps a raw JSON body.
func NewScanResponse(raw []byte) *ScanResponse {
	return &ScanResponse{Raw: json.RawMessage(raw)}
}

// Bytes returns the raw body, or nil for a nil response.
func (r *ScanResponse) Bytes() []byte {
	if r == nil {
		return nil
	}
	return r.Raw
}

// Pretty returns the body indented for display. Invalid JSON is returned as is.
func (r *ScanResponse) Pretty() string {
	raw := r.Bytes()
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// MarshalJSON emits the raw document unchanged.
func (r ScanResponse) MarshalJSON() ([]byte, error) {
	if len(r.Raw) == 0 {
		return []byte("null"), nil
	}
	return r.Raw, nil
}

// UnmarshalJSON stores a copy of the document.
func (r *ScanResponse) UnmarshalJSON(data []byte) error {
	r.Raw = append(r.Raw[:0], data...)
	return nil
}
