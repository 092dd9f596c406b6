package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/AnTengye/jurieasy/model"
)

const (
	triggerOpen  = "{{"
	triggerClose = "}}"
)

// Trigger is an unclosed "{{" before the cursor. Start is the rune offset
// of the trigger and Query the text typed after it.
type Trigger struct {
	Start int    `json:"start"`
	Query string `json:"query"`
}

// DetectTrigger finds the last "{{" before cursor (a rune offset) that is
// not closed by "}}" before the cursor. A cursor outside the value means
// the end of the value.
func DetectTrigger(value string, cursor int) (Trigger, bool) {
	runes := []rune(value)
	if cursor < 0 || cursor > len(runes) {
		cursor = len(runes)
	}
	before := string(runes[:cursor])
	idx := strings.LastIndex(before, triggerOpen)
	if idx < 0 {
		return Trigger{}, false
	}
	typed := before[idx+len(triggerOpen):]
	if strings.Contains(typed, triggerClose) {
		return Trigger{}, false
	}
	return Trigger{
		Start: utf8.RuneCountInString(before[:idx]),
		Query: strings.TrimSpace(typed),
	}, true
}

// ApplySuggestion replaces the span from the trigger to the first "}}"
// after it (or to the end of the value) with the item value. It returns the
// new value and the rune offset right after the inserted text.
func ApplySuggestion(value string, t Trigger, item model.LibraryItem) (string, int) {
	runes := []rune(value)
	if t.Start < 0 || t.Start > len(runes) {
		t.Start = len(runes)
	}
	head := string(runes[:t.Start])
	tail := string(runes[t.Start:])

	rest := ""
	if strings.HasPrefix(tail, triggerOpen) {
		after := tail[len(triggerOpen):]
		if end := strings.Index(after, triggerClose); end >= 0 {
			rest = after[end+len(triggerClose):]
		}
	}
	return head + item.Value + rest, t.Start + utf8.RuneCountInString(item.Value)
}

// Suggestions is the inline library lookup for one field value.
type Suggestions struct {
	Active  bool                `json:"active"`
	Trigger Trigger             `json:"trigger"`
	Items   []model.LibraryItem `json:"items"`
}

// Suggester queries the library when a field contains an open trigger.
type Suggester struct {
	library LibraryRepository
	limit   int
}

func NewSuggester(library LibraryRepository, limit int) *Suggester {
	return &Suggester{library: library, limit: limit}
}

// Suggest returns the owner's matching items, or an inactive result when
// the value has no open trigger before the cursor.
func (s *Suggester) Suggest(ctx context.Context, owner, value string, cursor int) (*Suggestions, error) {
	t, ok := DetectTrigger(value, cursor)
	if !ok {
		return &Suggestions{Items: []model.LibraryItem{}}, nil
	}
	items, err := s.library.SearchLibrary(ctx, owner, t.Query, s.limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.LibraryItem{}
	}
	return &Suggestions{Active: true, Trigger: t, Items: items}, nil
}
