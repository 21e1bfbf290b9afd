package model

// PlaceholderProductName is shown when the response carries no product name.
const PlaceholderProductName = "Unknown product"

// ScoreColor is the display category for a score label.
type ScoreColor string

const (
	ScoreColorPositive ScoreColor = "positive"
	ScoreColorCaution  ScoreColor = "caution"
	ScoreColorNegative ScoreColor = "negative"
	ScoreColorNeutral  ScoreColor = "neutral"
)

// Hex returns the theme color for the category.
func (c ScoreColor) Hex() string {
	switch c {
	case ScoreColorPositive:
		return "#2E6D4B" // moss
	case ScoreColorCaution:
		return "#FFC857" // sun
	case ScoreColorNegative:
		return "#F26A5A" // coral
	default:
		return "#6B6F6C" // muted
	}
}

// ScoreColorFor maps a score label to its display color. Only the exact
// labels A, B and C have a color of their own.
func ScoreColorFor(label string) ScoreColor {
	switch label {
	case "A":
		return ScoreColorPositive
	case "B":
		return ScoreColorCaution
	case "C":
		return ScoreColorNegative
	default:
		return ScoreColorNeutral
	}
}

// ResponseShape records which layout of the response supplied the analysis.
type ResponseShape string

const (
	ShapeUnknown ResponseShape = ""
	ShapeFlat    ResponseShape = "flat"
	ShapeNested  ResponseShape = "nested"
)

// MatchEntry is one risk category with the ingredient terms matched for it.
type MatchEntry struct {
	Category string   `json:"category" yaml:"category"`
	Terms    []string `json:"terms" yaml:"terms"`
}

// ViewModel is the presentation-ready form of a ScanResponse. Empty strings
// mean the field was absent.
type ViewModel struct {
	Title          string        `json:"title,omitempty" yaml:"title,omitempty"`
	ProductName    string        `json:"product_name" yaml:"product_name"`
	Brand          string        `json:"brand,omitempty" yaml:"brand,omitempty"`
	BarcodeDisplay string        `json:"barcode,omitempty" yaml:"barcode,omitempty"`
	StatusDisplay  string        `json:"status,omitempty" yaml:"status,omitempty"`
	Message        string        `json:"message,omitempty" yaml:"message,omitempty"`
	ScoreLabel     string        `json:"score_label,omitempty" yaml:"score_label,omitempty"`
	ScoreColor     ScoreColor    `json:"score_color" yaml:"score_color"`
	RiskFlags      []string      `json:"risk_flags" yaml:"risk_flags"`
	MatchEntries   []MatchEntry  `json:"matches" yaml:"matches"`
	Ingredients    []string      `json:"ingredients" yaml:"ingredients"`
	RawText        string        `json:"raw_text,omitempty" yaml:"raw_text,omitempty"`
	Disclaimer     string        `json:"disclaimer,omitempty" yaml:"disclaimer,omitempty"`
	Shape          ResponseShape `json:"shape,omitempty" yaml:"shape,omitempty"`
}

// HasScore reports whether the response carried a score label.
func (v ViewModel) HasScore() bool {
	return v.ScoreLabel != ""
}
