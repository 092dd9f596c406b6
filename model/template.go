package model

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AnTengye/jurieasy/pkg/apperr"
)

// VariableType is the input kind of a TemplateVariable.
type VariableType string

const (
	TypeText     VariableType = "text"
	TypeTextarea VariableType = "textarea"
	TypeSelect   VariableType = "select"
	TypeDate     VariableType = "date"
	TypeCheckbox VariableType = "checkbox"
	TypeRadio    VariableType = "radio"
)

// Valid reports whether t is one of the supported input kinds.
func (t VariableType) Valid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeSelect, TypeDate, TypeCheckbox, TypeRadio:
		return true
	}
	return false
}

// HasChoices reports whether answers come from Options.
func (t VariableType) HasChoices() bool {
	return t == TypeSelect || t == TypeCheckbox || t == TypeRadio
}

// TemplateVariable is one question of a template. ID is both the answer key
// and the placeholder name inside the template text.
type TemplateVariable struct {
	ID          string       `json:"id" yaml:"id"`
	Label       string       `json:"label" yaml:"label"`
	Type        VariableType `json:"type" yaml:"type"`
	Options     []string     `json:"options,omitempty" yaml:"options,omitempty"`
	Required    *bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Placeholder string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// IsRequired treats an omitted Required as true.
func (v TemplateVariable) IsRequired() bool {
	return v.Required == nil || *v.Required
}

// Witness is appended to the signature block of exported documents.
type Witness struct {
	Name     string `json:"name" yaml:"name"`
	Document string `json:"document" yaml:"document"`
}

// DocumentTemplate is a read-only document blueprint. Variable order is the
// wizard step order.
type DocumentTemplate struct {
	ID           string             `json:"id" yaml:"id"`
	Title        string             `json:"title" yaml:"title"`
	Description  string             `json:"description,omitempty" yaml:"description,omitempty"`
	Category     string             `json:"category,omitempty" yaml:"category,omitempty"`
	Variables    []TemplateVariable `json:"variables" yaml:"variables"`
	TemplateText string             `json:"template_text,omitempty" yaml:"template_text,omitempty"`
	Witnesses    []Witness          `json:"witnesses,omitempty" yaml:"witnesses,omitempty"`
}

var placeholderPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Placeholder returns the token for a variable id.
func Placeholder(id string) string {
	return "{{" + id + "}}"
}

// Placeholders lists the distinct {{key}} names in text in first-seen order.
func Placeholders(text string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}

// TotalSteps is the number of wizard steps.
func (t *DocumentTemplate) TotalSteps() int {
	return len(t.Variables)
}

// HasText reports whether the template carries raw text to substitute into.
func (t *DocumentTemplate) HasText() bool {
	return strings.TrimSpace(t.TemplateText) != ""
}

// Variable finds a variable by id.
func (t *DocumentTemplate) Variable(id string) (*TemplateVariable, bool) {
	for i := range t.Variables {
		if t.Variables[i].ID == id {
			return &t.Variables[i], true
		}
	}
	return nil, false
}

// UnknownPlaceholders lists placeholders in TemplateText with no matching
// variable. They are left verbatim on substitution.
func (t *DocumentTemplate) UnknownPlaceholders() []string {
	var unknown []string
	for _, key := range Placeholders(t.TemplateText) {
		if _, ok := t.Variable(key); !ok {
			unknown = append(unknown, key)
		}
	}
	return unknown
}

// Validate checks that variable ids are present and unique, types are
// known and choice types carry options.
func (t *DocumentTemplate) Validate() error {
	if len(t.Variables) == 0 && !t.HasText() {
		return apperr.Validation("variables", "template has no variables and no text")
	}
	seen := make(map[string]bool, len(t.Variables))
	for i, v := range t.Variables {
		if strings.TrimSpace(v.ID) == "" {
			return apperr.Validation(fmt.Sprintf("variables[%d].id", i), "variable id is required")
		}
		if seen[v.ID] {
			return apperr.Validation(v.ID, fmt.Sprintf("duplicate variable id %q", v.ID))
		}
		seen[v.ID] = true
		if !v.Type.Valid() {
			return apperr.Validation(v.ID, fmt.Sprintf("unsupported variable type %q", v.Type))
		}
		if v.Type.HasChoices() && len(v.Options) == 0 {
			return apperr.Validation(v.ID, fmt.Sprintf("variable %q of type %s needs options", v.ID, v.Type))
		}
	}
	return nil
}

// CheckAnswer validates a value for v: required variables reject blank
// values and choice variables only accept their options.
func (v TemplateVariable) CheckAnswer(a Answer) error {
	label := v.Label
	if label == "" {
		label = v.ID
	}
	if a.IsBlank() {
		if v.IsRequired() {
			return apperr.Validation(v.ID, fmt.Sprintf("%s é obrigatório", label))
		}
		return nil
	}
	if !v.Type.HasChoices() || len(v.Options) == 0 {
		return nil
	}
	if a.IsList() && v.Type != TypeCheckbox {
		return apperr.Validation(v.ID, fmt.Sprintf("%s aceita apenas uma opção", label))
	}
	for _, item := range a.Items() {
		if strings.TrimSpace(item) == "" {
			continue
		}
		if !containsString(v.Options, item) {
			return apperr.Validation(v.ID, fmt.Sprintf("%q não é uma opção válida para %s", item, label))
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, it := range list {
		if it == s {
			return true
		}
	}
	return false
}
