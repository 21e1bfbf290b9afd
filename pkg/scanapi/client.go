// Package scanapi provides a client for the Bite scan analysis service.
package scanapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/bite-app/bite-cli/internal/model"
)

const (
	barcodePath = "/api/scan/barcode"
	labelPath   = "/api/scan/label"

	labelFieldImage    = "image"
	labelFilename      = "label.jpg"
	labelContentType   = "image/jpeg"
	requestIDHeader    = "X-Request-ID"
	barcodeFallbackMsg = "Barcode scan failed"
	labelFallbackMsg   = "Label upload failed"
)

// Client defines the scan service operations.
type Client interface {
	// ScanBarcode looks up a retail product code.
	ScanBarcode(ctx context.Context, code string) (*model.ScanResponse, error)
	// UploadLabelImage sends an ingredient-label photo for OCR analysis.
	UploadLabelImage(ctx context.Context, upload LabelUpload) (*model.ScanResponse, error)
}

// LabelUpload is the multipart form for a label scan. Empty optional
// fields are left out of the form.
type LabelUpload struct {
	Barcode string
	Name    string
	Brand   string
	// ImagePath is the local file holding the JPEG bytes.
	ImagePath string
}

// Option configures the scan client.
type Option func(*httpClient)

// WithBaseURL sets the service base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLogger sets the logger used for request outcomes.
func WithLogger(l *zap.Logger) Option {
	return func(c *httpClient) {
		c.log = l
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient creates a scan service client. The HTTP client has no timeout
// of its own; requests end when the transport or ctx gives up.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     zap.L(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ScanBarcode(ctx context.Context, code string) (*model.ScanResponse, error) {
	payload, err := json.Marshal(map[string]string{"barcode": code})
	if err != nil {
		return nil, eris.Wrap(err, "scanapi: marshal barcode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+barcodePath, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "scanapi: create barcode request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, "barcode scan", barcodeFallbackMsg, zap.String("barcode", code))
}

func (c *httpClient) UploadLabelImage(ctx context.Context, upload LabelUpload) (*model.ScanResponse, error) {
	body, contentType, err := buildLabelForm(upload)
	if err != nil {
		return nil, err
	}
	size := body.Len()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+labelPath, body)
	if err != nil {
		return nil, eris.Wrap(err, "scanapi: create label request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	return c.do(req, "label upload", labelFallbackMsg,
		zap.String("barcode", upload.Barcode),
		zap.String("size", humanize.Bytes(uint64(size))),
	)
}

// do sends req once and applies the failure contract: transport failures
// become NetworkError, non-2xx responses become APIError.
func (c *httpClient) do(req *http.Request, op, fallback string, fields ...zap.Field) (*model.ScanResponse, error) {
	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)

	log := c.log.With(append(fields, zap.String("op", op), zap.String("request_id", reqID))...)
	log.Debug("scanapi: sending request", zap.String("url", req.URL.String()))

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("scanapi: transport failure", zap.Error(err))
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: eris.Wrap(err, "read response body")}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fallback
		if e := gjson.GetBytes(body, "error"); e.Type == gjson.String && e.Str != "" {
			msg = e.Str
		}
		log.Info("scanapi: request rejected", zap.Int("status", resp.StatusCode), zap.String("error", msg))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if !json.Valid(body) {
		return nil, eris.Errorf("scanapi: %s: unmarshal response: invalid JSON (%d bytes)", op, len(body))
	}

	log.Debug("scanapi: request complete", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))
	return model.NewScanResponse(body), nil
}

func buildLabelForm(upload LabelUpload) (*bytes.Buffer, string, error) {
	if upload.ImagePath == "" {
		return nil, "", eris.New("scanapi: label upload requires an image")
	}

	f, err := os.Open(upload.ImagePath)
	if err != nil {
		return nil, "", eris.Wrapf(err, "scanapi: open image %s", upload.ImagePath)
	}
	defer f.Close() //nolint:errcheck

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range []struct{ name, value string }{
		{"barcode", upload.Barcode},
		{"name", upload.Name},
		{"brand", upload.Brand},
	} {
		if field.value == "" {
			continue
		}
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", eris.Wrapf(err, "scanapi: write field %s", field.name)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, labelFieldImage, labelFilename))
	h.Set("Content-Type", labelContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", eris.Wrap(err, "scanapi: create image part")
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", eris.Wrap(err, "scanapi: copy image")
	}

	if err := w.Close(); err != nil {
		return nil, "", eris.Wrap(err, "scanapi: close multipart writer")
	}
	return &buf, w.FormDataContentType(), nil
}
