package normalize

import "github.com/tidwall/gjson"

// kind is the JSON type a rule accepts.
type kind int

const (
	kindScalar kind = iota
	kindObject
	kindArray
)

// rule resolves one view-model field. Paths are tried in order and the
// first one holding a usable value of the expected kind wins, so the
// top-level layout always takes precedence over the result-nested one.
type rule struct {
	field string
	kind  kind
	paths []string
}

var (
	analysisRule    = rule{field: "analysis", kind: kindObject, paths: []string{"analysis", "result.analysis"}}
	ingredientsRule = rule{field: "ingredients", kind: kindArray, paths: []string{"ingredients", "result.normalized_ingredients"}}
	rawTextRule     = rule{field: "raw_text", kind: kindScalar, paths: []string{"ocr_text", "result.raw_text"}}
	nameRule        = rule{field: "name", kind: kindScalar, paths: []string{"product.name", "name"}}
	brandRule       = rule{field: "brand", kind: kindScalar, paths: []string{"product.brand", "brand"}}
	barcodeRule     = rule{field: "barcode", kind: kindScalar, paths: []string{"product.barcode", "barcode"}}
	statusRule      = rule{field: "status", kind: kindScalar, paths: []string{"product.status"}}
	messageRule     = rule{field: "message", kind: kindScalar, paths: []string{"message"}}
)

// rules lists every field rule in evaluation order.
func rules() []rule {
	return []rule{analysisRule, ingredientsRule, rawTextRule, nameRule, brandRule, barcodeRule, statusRule, messageRule}
}

// Paths returns the lookup order for a field, or nil for an unknown field.
func Paths(field string) []string {
	for _, r := range rules() {
		if r.field == field {
			return append([]string(nil), r.paths...)
		}
	}
	return nil
}

// resolve returns the first usable value and the index of the path that
// supplied it. idx is -1 when nothing resolved.
func (r rule) resolve(doc []byte) (gjson.Result, int) {
	for i, p := range r.paths {
		v := gjson.GetBytes(doc, p)
		if usable(v) && r.kind.accepts(v) {
			return v, i
		}
	}
	return gjson.Result{}, -1
}

func (k kind) accepts(v gjson.Result) bool {
	switch k {
	case kindObject:
		return v.IsObject()
	case kindArray:
		return v.IsArray()
	default:
		return v.Type == gjson.String || v.Type == gjson.Number || v.Type == gjson.True
	}
}

// usable reports whether v counts as present: it exists and is not null,
// false, zero or the empty string. Empty objects and arrays are present.
func usable(v gjson.Result) bool {
	if !v.Exists() {
		return false
	}
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return v.Str != ""
	case gjson.Number:
		return v.Num != 0
	default:
		return true
	}
}
