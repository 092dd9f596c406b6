// Package render turns final document text into an interactive preview and
// into exported artifacts. Every output goes through Segment, so clause
// detection and numbering are identical across targets.
package render

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// BlockKind classifies one line of document text.
type BlockKind string

const (
	KindHeading   BlockKind = "heading"
	KindParagraph BlockKind = "paragraph"
	KindSpacer    BlockKind = "spacer"
)

// Block is one classified line. Number is set for headings only, counting
// from 1 in document order.
type Block struct {
	Kind   BlockKind `json:"kind"`
	Text   string    `json:"text"`
	Number int       `json:"number,omitempty"`
}

// Label is the display text of the block; headings carry their number.
func (b Block) Label() string {
	if b.Kind == KindHeading {
		return fmt.Sprintf("%d. %s", b.Number, b.Text)
	}
	return b.Text
}

// IsClauseHeading reports whether a line is a clause heading: after
// trimming it equals its own upper-case form and is longer than 4 characters.
func IsClauseHeading(line string) bool {
	t := strings.TrimSpace(line)
	return utf8.RuneCountInString(t) > 4 && t == strings.ToUpper(t)
}

// Segment splits text into lines and classifies each one.
func Segment(text string) []Block {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	blocks := make([]Block, 0, len(lines))
	clause := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			blocks = append(blocks, Block{Kind: KindSpacer})
		case IsClauseHeading(trimmed):
			clause++
			blocks = append(blocks, Block{Kind: KindHeading, Text: trimmed, Number: clause})
		default:
			blocks = append(blocks, Block{Kind: KindParagraph, Text: trimmed})
		}
	}
	return blocks
}

// Headings returns the numbered heading labels of blocks in order.
func Headings(blocks []Block) []string {
	var out []string
	for _, b := range blocks {
		if b.Kind == KindHeading {
			out = append(out, b.Label())
		}
	}
	return out
}

// HasContent reports whether text has at least one non-blank line.
func HasContent(text string) bool {
	return strings.TrimSpace(text) != ""
}
