package textfmt

import (
	"regexp"
	"strings"
	"time"

	"github.com/AnTengye/jurieasy/model"
)

// NotInformed is shown for unanswered fields in synthesized text.
const NotInformed = "Não informado"

var tokenPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Substitute replaces every {{key}} in text with the formatted answer for key.
// Tokens without an answer (or with a null answer) are kept verbatim.
// Inserted values are never rescanned for tokens.
func Substitute(text string, answers model.Answers) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		key := token[2 : len(token)-2]
		a, ok := answers[key]
		if !ok || a.IsNull() {
			return token
		}
		return FormatForKey(key, a)
	})
}

// Synthesize lays answers out as "Label: value" lines under the uppercase
// title, followed by a generation trailer stamped with generatedAt.
func Synthesize(t *model.DocumentTemplate, answers model.Answers, generatedAt time.Time) string {
	var b strings.Builder
	b.WriteString(Upper(t.Title))
	b.WriteString("\n\n")
	for _, v := range t.Variables {
		value := NotInformed
		if a, ok := answers[v.ID]; ok && !a.IsBlank() {
			value = FormatForVariable(v, a)
		}
		b.WriteString(v.Label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}
	b.WriteString("\nDocumento gerado em ")
	b.WriteString(ShortDateTime(generatedAt))
	return b.String()
}

// Compose produces the document text: substitution when the template has
// text, synthesis otherwise.
func Compose(t *model.DocumentTemplate, answers model.Answers, at time.Time) string {
	if t.HasText() {
		return Substitute(t.TemplateText, answers)
	}
	return Synthesize(t, answers, at)
}
