package render

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/AnTengye/jurieasy/model"
	"github.com/AnTengye/jurieasy/pkg/textfmt"
)

// EmptyPreviewMessage is shown when there is no content to preview.
const EmptyPreviewMessage = "Nenhum conteúdo disponível para visualização."

// Span is a run of block text. Field is set when the run is an answer value.
type Span struct {
	Text  string `json:"text"`
	Field string `json:"field,omitempty"`
}

type PreviewBlock struct {
	Block
	Spans []Span `json:"spans,omitempty"`
}

// FieldView is one entry of the filled data list.
type FieldView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type Preview struct {
	Empty   bool           `json:"empty"`
	Message string         `json:"message,omitempty"`
	Title   string         `json:"title,omitempty"`
	Blocks  []PreviewBlock `json:"blocks,omitempty"`
	Fields  []FieldView    `json:"fields"`
}

// BuildPreview segments text and highlights every occurrence of a
// non-blank formatted answer value. tmpl may be nil.
func BuildPreview(text string, answers model.Answers, tmpl *model.DocumentTemplate) *Preview {
	fields := filledFields(answers, tmpl)
	p := &Preview{Fields: fields}
	if tmpl != nil {
		p.Title = tmpl.Title
	}
	if !HasContent(text) {
		p.Empty = true
		p.Message = EmptyPreviewMessage
		return p
	}

	needles := highlightNeedles(fields)
	for _, b := range Segment(text) {
		pb := PreviewBlock{Block: b}
		if b.Kind != KindSpacer {
			pb.Spans = highlight(b.Label(), needles)
		}
		p.Blocks = append(p.Blocks, pb)
	}
	return p
}

// filledFields lists answers in template variable order, then any answers
// with no matching variable in key order.
func filledFields(answers model.Answers, tmpl *model.DocumentTemplate) []FieldView {
	fields := make([]FieldView, 0, len(answers))
	seen := make(map[string]bool, len(answers))
	if tmpl != nil {
		for _, v := range tmpl.Variables {
			a, ok := answers[v.ID]
			if !ok || a.IsBlank() {
				continue
			}
			seen[v.ID] = true
			fields = append(fields, FieldView{Key: v.ID, Label: v.Label, Value: textfmt.FormatForKey(v.ID, a)})
		}
	}
	for _, key := range answers.Keys() {
		a := answers[key]
		if seen[key] || a.IsBlank() {
			continue
		}
		fields = append(fields, FieldView{Key: key, Label: key, Value: textfmt.FormatForKey(key, a)})
	}
	return fields
}

type needle struct {
	value string
	key   string
}

func highlightNeedles(fields []FieldView) []needle {
	needles := make([]needle, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		needles = append(needles, needle{value: f.Value, key: f.Key})
	}
	// longest first so a value that contains another wins
	sort.SliceStable(needles, func(i, j int) bool {
		return len(needles[i].value) > len(needles[j].value)
	})
	return needles
}

func highlight(s string, needles []needle) []Span {
	if len(needles) == 0 {
		return []Span{{Text: s}}
	}
	var spans []Span
	start := 0
	for i := 0; i < len(s); {
		matched := false
		for _, n := range needles {
			if strings.HasPrefix(s[i:], n.value) {
				if start < i {
					spans = append(spans, Span{Text: s[start:i]})
				}
				spans = append(spans, Span{Text: n.value, Field: n.key})
				i += len(n.value)
				start = i
				matched = true
				break
			}
		}
		if !matched {
			_, size := utf8.DecodeRuneInString(s[i:])
			i += size
		}
	}
	if start < len(s) {
		spans = append(spans, Span{Text: s[start:]})
	}
	return spans
}
