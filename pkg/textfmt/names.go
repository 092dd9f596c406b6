package textfmt

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// nameConnectives stay lowercase inside proper names, except as the first word.
var nameConnectives = map[string]bool{
	"de": true, "da": true, "do": true, "das": true, "dos": true,
	"e": true, "em": true, "por": true, "para": true, "com": true,
	"sem": true, "sob": true, "sobre": true, "entre": true, "a": true, "o": true,
}

// placeForms maps lowercase tokens to their fixed form in place names.
var placeForms = map[string]string{
	"são":  "São",
	"rio":  "Rio",
	"nova": "Nova",
	"novo": "Novo",
	"do":   "do",
	"da":   "da",
	"de":   "de",
	"dos":  "dos",
	"das":  "das",
}

// capitalize upper-cases the first letter and lower-cases the rest. Letters
// after hyphens and apostrophes stay lowercase. A Caser is stateful, so each
// call gets its own.
func capitalize(word string) string {
	lower := cases.Lower(language.BrazilianPortuguese).String(word)
	_, size := utf8.DecodeRuneInString(lower)
	if size == 0 {
		return lower
	}
	return cases.Upper(language.BrazilianPortuguese).String(lower[:size]) + lower[size:]
}

// CapitalizeProperName capitalizes every word of a person's name except
// Portuguese connectives; the first word is always capitalized.
func CapitalizeProperName(value string) string {
	words := strings.Split(value, " ")
	first := true
	for i, w := range words {
		if w == "" {
			continue
		}
		lower := strings.ToLower(w)
		if !first && nameConnectives[lower] {
			words[i] = lower
		} else {
			words[i] = capitalize(lower)
		}
		first = false
	}
	return strings.Join(words, " ")
}

// CapitalizePlace capitalizes a city or place name, keeping the fixed forms
// of placeForms.
func CapitalizePlace(value string) string {
	words := strings.Split(value, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		lower := strings.ToLower(w)
		if form, ok := placeForms[lower]; ok {
			words[i] = form
			continue
		}
		words[i] = capitalize(lower)
	}
	return strings.Join(words, " ")
}

// Upper is the Portuguese upper-case transform used for titles.
func Upper(value string) string {
	return cases.Upper(language.BrazilianPortuguese).String(value)
}
