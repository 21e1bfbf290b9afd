package device

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Symbology is a barcode encoding.
type Symbology string

const (
	SymbologyEAN13   Symbology = "ean13"
	SymbologyEAN8    Symbology = "ean8"
	SymbologyUPCA    Symbology = "upc_a"
	SymbologyUPCE    Symbology = "upc_e"
	SymbologyCode128 Symbology = "code128"
	SymbologyCode39  Symbology = "code39"
)

// Recognized lists the symbologies the scanner reports.
var Recognized = []Symbology{
	SymbologyEAN13, SymbologyEAN8, SymbologyUPCA, SymbologyUPCE, SymbologyCode128, SymbologyCode39,
}

// Supported reports whether s is one of the recognized symbologies.
func (s Symbology) Supported() bool {
	for _, r := range Recognized {
		if s == r {
			return true
		}
	}
	return false
}

// ScanEvent is one decoded barcode from the live feed.
type ScanEvent struct {
	Symbology Symbology
	Data      string
}

// BarcodeFeed delivers decoded barcodes. Next returns io.EOF when the feed
// ends. Close releases the underlying source and unblocks Next.
type BarcodeFeed interface {
	Next(ctx context.Context) (ScanEvent, error)
	Close() error
}

// ParseScanEvent parses a feed line: "symbology:data" or bare data whose
// symbology is inferred from its shape.
func ParseScanEvent(line string) (ScanEvent, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return ScanEvent{}, false
	}

	if sym, data, ok := strings.Cut(line, ":"); ok {
		ev := ScanEvent{
			Symbology: Symbology(strings.ToLower(strings.TrimSpace(sym))),
			Data:      strings.TrimSpace(data),
		}
		if ev.Data == "" {
			return ScanEvent{}, false
		}
		return ev, true
	}

	return ScanEvent{Symbology: inferSymbology(line), Data: line}, true
}

func inferSymbology(data string) Symbology {
	if !allDigits(data) {
		return SymbologyCode128
	}
	switch len(data) {
	case 13:
		return SymbologyEAN13
	case 12:
		return SymbologyUPCA
	case 8:
		return SymbologyEAN8
	case 6:
		return SymbologyUPCE
	default:
		return SymbologyCode128
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ReaderFeed reads scan events line by line from a stream, such as a
// hardware scanner in keyboard mode or a decoder process piped to stdin.
// Events for unrecognized symbologies are dropped, and a token bucket
// drops repeats of the last admitted code that arrive faster than the
// configured rate. A different code always starts a fresh bucket.
// Next must not be called concurrently.
type ReaderFeed struct {
	src     io.Reader
	limiter *rate.Limiter
	last    string

	startOnce sync.Once
	lines     chan string
	done      chan struct{}
	readErr   error

	closeOnce sync.Once
	closeErr  error
}

// NewReaderFeed creates a feed over r. A nil limiter admits every event.
func NewReaderFeed(r io.Reader, limiter *rate.Limiter) *ReaderFeed {
	return &ReaderFeed{
		src:     r,
		limiter: limiter,
		lines:   make(chan string),
		done:    make(chan struct{}),
	}
}

// NewLimiter builds the frame limiter for a feed. A non-positive rate
// disables throttling.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// read pumps lines from the source until EOF or Close. readErr is
// published by closing lines.
func (f *ReaderFeed) read() {
	defer close(f.lines)
	sc := bufio.NewScanner(f.src)
	for sc.Scan() {
		select {
		case f.lines <- sc.Text():
		case <-f.done:
			return
		}
	}
	f.readErr = sc.Err()
}

// Next blocks until the next admitted event, the end of the stream or
// ctx is done.
func (f *ReaderFeed) Next(ctx context.Context) (ScanEvent, error) {
	f.startOnce.Do(func() { go f.read() })

	for {
		if err := ctx.Err(); err != nil {
			return ScanEvent{}, err
		}

		var line string
		select {
		case <-ctx.Done():
			return ScanEvent{}, ctx.Err()
		case l, ok := <-f.lines:
			if !ok {
				if f.readErr != nil {
					return ScanEvent{}, eris.Wrap(f.readErr, "device: read scan feed")
				}
				return ScanEvent{}, io.EOF
			}
			line = l
		}

		ev, ok := ParseScanEvent(line)
		if !ok {
			continue
		}
		if !ev.Symbology.Supported() {
			zap.L().Debug("device: unsupported symbology", zap.String("symbology", string(ev.Symbology)))
			continue
		}
		if !f.admit(ev) {
			zap.L().Debug("device: scan frame throttled", zap.String("data", ev.Data))
			continue
		}
		return ev, nil
	}
}

func (f *ReaderFeed) admit(ev ScanEvent) bool {
	if f.limiter == nil {
		return true
	}
	if ev.Data != f.last {
		f.last = ev.Data
		f.limiter = rate.NewLimiter(f.limiter.Limit(), f.limiter.Burst())
	}
	return f.limiter.Allow()
}

// Close stops the reader and closes the source when it is closable.
func (f *ReaderFeed) Close() error {
	f.closeOnce.Do(func() {
		close(f.done)
		if c, ok := f.src.(io.Closer); ok {
			f.closeErr = c.Close()
		}
	})
	return f.closeErr
}
