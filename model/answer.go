package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Answer is a collected value: a single string, a list of strings
// (checkbox) or null when nothing was entered.
type Answer struct {
	text  string
	items []string
	list  bool
	set   bool
}

// TextAnswer returns a single-string answer.
func TextAnswer(s string) Answer {
	return Answer{text: s, set: true}
}

// ListAnswer returns a multi-choice answer.
func ListAnswer(items ...string) Answer {
	cp := make([]string, len(items))
	copy(cp, items)
	return Answer{items: cp, list: true, set: true}
}

func (a Answer) IsList() bool { return a.list }

func (a Answer) IsNull() bool { return !a.set }

// Items returns the chosen options of a list answer, or the single value
// as a one-element slice.
func (a Answer) Items() []string {
	if a.list {
		cp := make([]string, len(a.items))
		copy(cp, a.items)
		return cp
	}
	if !a.set {
		return nil
	}
	return []string{a.text}
}

// IsBlank reports whether the answer counts as unanswered: null, an
// empty or whitespace-only string, or an empty list.
func (a Answer) IsBlank() bool {
	if !a.set {
		return true
	}
	if a.list {
		for _, it := range a.items {
			if strings.TrimSpace(it) != "" {
				return false
			}
		}
		return true
	}
	return strings.TrimSpace(a.text) == ""
}

// String is the raw display form; lists are joined with ", ".
func (a Answer) String() string {
	if a.list {
		return strings.Join(a.items, ", ")
	}
	return a.text
}

func (a Answer) Equal(b Answer) bool {
	if a.set != b.set || a.list != b.list || a.text != b.text || len(a.items) != len(b.items) {
		return false
	}
	for i := range a.items {
		if a.items[i] != b.items[i] {
			return false
		}
	}
	return true
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch {
	case !a.set:
		return []byte("null"), nil
	case a.list:
		if a.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.items)
	default:
		return json.Marshal(a.text)
	}
}

// UnmarshalJSON accepts a string, an array of strings or null. Numbers
// and booleans are kept as their literal text.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("answer list must contain strings: %w", err)
		}
		*a = ListAnswer(items...)
	case '{':
		return fmt.Errorf("answer must be a string, a list of strings or null")
	default:
		*a = TextAnswer(string(data))
	}
	return nil
}

// Answers maps TemplateVariable.ID to the collected value.
type Answers map[string]Answer

// Clone returns an independent copy.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Keys returns the answer keys in sorted order.
func (a Answers) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a Answers) Equal(b Answers) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}
