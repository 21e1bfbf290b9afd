// Package normalize turns a loosely-shaped scan response into a ViewModel.
package normalize

import (
	"github.com/tidwall/gjson"

	"github.com/bite-app/bite-cli/internal/model"
)

// Normalize derives the view model for resp. It never fails: missing or
// mistyped fields degrade to empty values and a nil or non-JSON response
// yields the placeholder product.
func Normalize(resp *model.ScanResponse) model.ViewModel {
	vm := model.ViewModel{
		ProductName:  model.PlaceholderProductName,
		ScoreColor:   model.ScoreColorNeutral,
		RiskFlags:    []string{},
		MatchEntries: []model.MatchEntry{},
		Ingredients:  []string{},
	}

	doc := resp.Bytes()
	if len(doc) == 0 || !gjson.ValidBytes(doc) {
		return vm
	}

	if analysis, idx := analysisRule.resolve(doc); idx >= 0 {
		vm.Shape = shapeOf(idx)
		applyAnalysis(&vm, analysis)
	}

	if ing, idx := ingredientsRule.resolve(doc); idx >= 0 {
		vm.Ingredients = stringList(ing)
	}

	vm.RawText = scalar(rawTextRule, doc)
	if name := scalar(nameRule, doc); name != "" {
		vm.ProductName = name
	}
	vm.Brand = scalar(brandRule, doc)
	vm.BarcodeDisplay = scalar(barcodeRule, doc)
	vm.Message = scalar(messageRule, doc)

	vm.StatusDisplay = scalar(statusRule, doc)
	if vm.StatusDisplay == "" {
		// A lookup miss registers the product as pending on the service.
		if found := gjson.GetBytes(doc, "found"); found.Type == gjson.False {
			vm.StatusDisplay = "pending"
		}
	}

	return vm
}

func applyAnalysis(vm *model.ViewModel, analysis gjson.Result) {
	if label := analysis.Get("score_label"); usable(label) && kindScalar.accepts(label) {
		vm.ScoreLabel = label.String()
	}
	vm.ScoreColor = model.ScoreColorFor(vm.ScoreLabel)

	if flags := analysis.Get("risk_flags"); flags.IsArray() {
		vm.RiskFlags = stringList(flags)
	}

	if matches := analysis.Get("matches"); matches.IsObject() {
		vm.MatchEntries = matchEntries(matches)
	}

	if d := analysis.Get("disclaimer"); usable(d) && kindScalar.accepts(d) {
		vm.Disclaimer = d.String()
	}
}

// matchEntries keeps categories in document order and drops any whose
// term list is empty after filtering.
func matchEntries(matches gjson.Result) []model.MatchEntry {
	entries := []model.MatchEntry{}
	matches.ForEach(func(key, value gjson.Result) bool {
		if !value.IsArray() {
			return true
		}
		terms := stringList(value)
		if len(terms) == 0 {
			return true
		}
		entries = append(entries, model.MatchEntry{Category: key.String(), Terms: terms})
		return true
	})
	return entries
}

// stringList returns the scalar elements of an array as strings, skipping
// nulls and nested containers.
func stringList(arr gjson.Result) []string {
	out := []string{}
	for _, v := range arr.Array() {
		switch v.Type {
		case gjson.String, gjson.Number, gjson.True, gjson.False:
			out = append(out, v.String())
		}
	}
	return out
}

func scalar(r rule, doc []byte) string {
	v, idx := r.resolve(doc)
	if idx < 0 {
		return ""
	}
	return v.String()
}

func shapeOf(idx int) model.ResponseShape {
	if idx == 0 {
		return model.ShapeFlat
	}
	return model.ShapeNested
}
