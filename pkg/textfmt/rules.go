package textfmt

import (
	"strings"

	"github.com/AnTengye/jurieasy/model"
)

// Formatter maps a raw value to its display form.
type Formatter func(string) string

// Rule applies Format to any field whose key (or label) contains Substring.
type Rule struct {
	Name      string
	Substring string
	Format    Formatter
}

// KeyRules is the ordered rule table for answer keys; the first match wins.
var KeyRules = []Rule{
	{Name: "date", Substring: "data", Format: FormatDate},
	{Name: "proper_name", Substring: "nome", Format: CapitalizeProperName},
	{Name: "place", Substring: "cidade", Format: CapitalizePlace},
}

// LabelRules apply to variable labels when synthesizing text without a
// template; dates are recognised by variable type instead.
var LabelRules = []Rule{
	{Name: "proper_name", Substring: "nome", Format: CapitalizeProperName},
	{Name: "place", Substring: "cidade", Format: CapitalizePlace},
}

// Match returns the first rule whose substring occurs in s, case-insensitively.
func Match(rules []Rule, s string) (Rule, bool) {
	lower := strings.ToLower(s)
	for _, r := range rules {
		if strings.Contains(lower, r.Substring) {
			return r, true
		}
	}
	return Rule{}, false
}

func applyEach(a model.Answer, f Formatter) string {
	if !a.IsList() {
		return f(a.String())
	}
	items := a.Items()
	for i, it := range items {
		items[i] = f(it)
	}
	return strings.Join(items, ", ")
}

// FormatForKey formats an answer by the substring rules on its key.
func FormatForKey(key string, a model.Answer) string {
	if r, ok := Match(KeyRules, key); ok {
		return applyEach(a, r.Format)
	}
	return a.String()
}

// FormatForVariable formats an answer using the variable's type and label.
func FormatForVariable(v model.TemplateVariable, a model.Answer) string {
	if v.Type == model.TypeDate {
		return applyEach(a, FormatDate)
	}
	if r, ok := Match(LabelRules, v.Label); ok {
		return applyEach(a, r.Format)
	}
	return a.String()
}
