// Package render presents a ViewModel as text, JSON or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/bite-app/bite-cli/internal/model"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", eris.Errorf("render: unknown format %q (want text, json or yaml)", s)
	}
}

// ColorEnabled resolves a color mode (auto, always, never) for w. Auto
// colors only terminals.
func ColorEnabled(mode string, w io.Writer) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Options controls rendering.
type Options struct {
	Format Format
	Color  bool
	// Raw appends the service response as received.
	Raw bool
}

// Write renders vm to w. raw is the original response, used when
// opts.Raw is set.
func Write(w io.Writer, vm model.ViewModel, raw *model.ScanResponse, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(vm), "render: encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(vm); err != nil {
			return eris.Wrap(err, "render: encode yaml")
		}
		return eris.Wrap(enc.Close(), "render: close yaml encoder")
	default:
		return writeText(w, vm, raw, opts)
	}
}

// Alert writes a blocking notice.
func Alert(w io.Writer, title, message string) error {
	_, err := fmt.Fprintf(w, "%s: %s\n", title, message)
	return err
}

type textWriter struct {
	w     io.Writer
	color bool
	err   error
}

func (t *textWriter) linef(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format+"\n", args...)
}

func (t *textWriter) section(name string) {
	t.linef("")
	t.linef("%s", t.paint(strings.ToUpper(name), "1"))
}

func (t *textWriter) paint(s, sgr string) string {
	if !t.color {
		return s
	}
	return "\x1b[" + sgr + "m" + s + "\x1b[0m"
}

func (t *textWriter) bullets(items []string, empty string) {
	if len(items) == 0 {
		t.linef("  %s", t.paint(empty, "2"))
		return
	}
	for _, it := range items {
		t.linef("  • %s", it)
	}
}

func writeText(w io.Writer, vm model.ViewModel, raw *model.ScanResponse, opts Options) error {
	t := &textWriter{w: w, color: opts.Color}

	title := vm.Title
	if title == "" {
		title = "Result"
	}
	t.linef("%s", t.paint(title, "1"))
	t.linef("%s", strings.Repeat("=", len([]rune(title))))

	t.section("Product")
	t.linef("%s", vm.ProductName)
	if vm.Brand != "" {
		t.linef("%s", vm.Brand)
	}
	if vm.BarcodeDisplay != "" {
		t.linef("Barcode: %s", vm.BarcodeDisplay)
	}
	if vm.StatusDisplay != "" {
		t.linef("Status: %s", vm.StatusDisplay)
	}

	if vm.Message != "" {
		t.linef("")
		t.linef("> %s", vm.Message)
	}

	t.section("Health summary")
	label := vm.ScoreLabel
	if label == "" {
		label = "—"
	}
	t.linef("%s", t.paint("Score "+label, scoreSGR(vm.ScoreColor)))

	t.linef("")
	t.linef("Risk flags")
	t.bullets(vm.RiskFlags, "No major risks flagged.")

	t.linef("")
	t.linef("Detected cues")
	cues := make([]string, 0, len(vm.MatchEntries))
	for _, e := range vm.MatchEntries {
		cues = append(cues, e.Category+": "+strings.Join(e.Terms, ", "))
	}
	t.bullets(cues, "No matched ingredient cues.")

	if vm.Disclaimer != "" {
		t.linef("")
		t.linef("%s", t.paint(vm.Disclaimer, "2"))
	}

	t.section("Ingredients")
	t.bullets(vm.Ingredients, "No ingredients parsed.")
	if vm.RawText != "" {
		t.linef("")
		t.linef("OCR text")
		for _, line := range strings.Split(vm.RawText, "\n") {
			t.linef("  %s", line)
		}
	}

	if opts.Raw && len(raw.Bytes()) > 0 {
		t.section("Raw response")
		t.linef("%s", raw.Pretty())
	}

	return t.err
}

// scoreSGR returns a 24-bit foreground escape for the score's theme color.
func scoreSGR(c model.ScoreColor) string {
	hex := strings.TrimPrefix(c.Hex(), "#")
	r, _ := strconv.ParseUint(hex[0:2], 16, 8)
	g, _ := strconv.ParseUint(hex[2:4], 16, 8)
	b, _ := strconv.ParseUint(hex[4:6], 16, 8)
	return fmt.Sprintf("1;38;2;%d;%d;%d", r, g, b)
}
