package render

import (
	"strings"

	"github.com/AnTengye/jurieasy/model"
	"github.com/AnTengye/jurieasy/pkg/textfmt"
)

// PageSize is in millimetres.
type PageSize struct {
	Width  float64
	Height float64
}

var pageSizes = map[string]PageSize{
	"A4":     {Width: 210, Height: 297},
	"LETTER": {Width: 215.9, Height: 279.4},
	"LEGAL":  {Width: 215.9, Height: 355.6},
}

// PageSizeByName resolves A4, Letter or Legal (case-insensitive).
func PageSizeByName(name string) (PageSize, bool) {
	ps, ok := pageSizes[strings.ToUpper(strings.TrimSpace(name))]
	return ps, ok
}

// Geometry is a fixed page rectangle with equal margins on every side.
type Geometry struct {
	Page   PageSize
	Margin float64
}

func (g Geometry) ContentWidth() float64 {
	return g.Page.Width - 2*g.Margin
}

// Bottom is the lowest y content may reach.
func (g Geometry) Bottom() float64 {
	return g.Page.Height - g.Margin
}

// Paginator tracks the write position and starts a new page when the next
// block does not fit.
type Paginator struct {
	geo  Geometry
	page int
	y    float64
}

func NewPaginator(geo Geometry) *Paginator {
	return &Paginator{geo: geo, page: 1, y: geo.Margin}
}

// Ensure starts a new page if h does not fit below the current position.
// It reports whether a page break happened.
func (p *Paginator) Ensure(h float64) bool {
	if p.y+h <= p.geo.Bottom() {
		return false
	}
	p.page++
	p.y = p.geo.Margin
	return true
}

func (p *Paginator) Advance(h float64) { p.y += h }

func (p *Paginator) Y() float64 { return p.y }

func (p *Paginator) Page() int { return p.page }

// Style selects the font variant used for measuring and drawing.
type Style struct {
	Size float64
	Bold bool
}

// Measurer returns the rendered width of text in millimetres.
type Measurer interface {
	Width(text string, style Style) float64
}

// Wrap breaks text into lines no wider than width, splitting on spaces and
// hard-breaking words that are wider than a whole line.
func Wrap(text string, width float64, style Style, m Measurer) []string {
	var lines []string
	cur := ""
	for _, word := range strings.Fields(text) {
		if m.Width(word, style) > width {
			if cur != "" {
				lines = append(lines, cur)
				cur = ""
			}
			pieces := breakWord(word, width, style, m)
			lines = append(lines, pieces[:len(pieces)-1]...)
			cur = pieces[len(pieces)-1]
			continue
		}
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if cur != "" && m.Width(candidate, style) > width {
			lines = append(lines, cur)
			cur = word
			continue
		}
		cur = candidate
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func breakWord(word string, width float64, style Style, m Measurer) []string {
	var pieces []string
	var cur []rune
	for _, r := range word {
		next := append(cur, r)
		if len(cur) > 0 && m.Width(string(next), style) > width {
			pieces = append(pieces, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	return append(pieces, string(cur))
}

// ItemKind identifies a positioned element of a layout plan.
type ItemKind string

const (
	ItemLogo           ItemKind = "logo"
	ItemTitle          ItemKind = "title"
	ItemRule           ItemKind = "rule"
	ItemHeading        ItemKind = "heading"
	ItemParagraphLine  ItemKind = "paragraph_line"
	ItemSignatureRule  ItemKind = "signature_rule"
	ItemCaption        ItemKind = "caption"
	ItemWitnessHeading ItemKind = "witness_heading"
)

// Item is one element placed on a page. Block is the index into the
// segmented body for heading and paragraph lines, -1 otherwise.
type Item struct {
	Kind   ItemKind
	Page   int
	X, Y   float64
	W, H   float64
	Text   string
	Number int
	Block  int
	Last   bool
	Style  Style
}

// Plan is the paginated layout shared by the export targets.
type Plan struct {
	Geometry Geometry
	Pages    int
	Blocks   []Block
	Items    []Item
}

// BlockPages maps each body block index to the page its first line lands on.
func (p *Plan) BlockPages() map[int]int {
	pages := make(map[int]int)
	for _, it := range p.Items {
		if it.Block < 0 {
			continue
		}
		if _, ok := pages[it.Block]; !ok {
			pages[it.Block] = it.Page
		}
	}
	return pages
}

// SignaturePages lists the page of every signature rule in plan order:
// the party signatures first, then one per witness.
func (p *Plan) SignaturePages() []int {
	var pages []int
	for _, it := range p.Items {
		if it.Kind == ItemSignatureRule {
			pages = append(pages, it.Page)
		}
	}
	return pages
}

// WitnessHeadingPage is the page of the witness heading, 0 when the plan
// has no witnesses.
func (p *Plan) WitnessHeadingPage() int {
	for _, it := range p.Items {
		if it.Kind == ItemWitnessHeading {
			return it.Page
		}
	}
	return 0
}

// HeadingLabels returns the numbered heading labels in plan order.
func (p *Plan) HeadingLabels() []string {
	var out []string
	for _, it := range p.Items {
		if it.Kind == ItemHeading && it.Number > 0 {
			out = append(out, it.Text)
		}
	}
	return out
}

// Layout metrics in millimetres.
const (
	titleFontSize     = 16
	titleLineHeight   = 8
	logoGap           = 6
	ruleGap           = 6
	headingGapBefore  = 2
	signatureGap      = 15
	signatureRuleW    = 80
	signatureSpace    = 12
	captionHeight     = 5
	signatureBlockH   = signatureSpace + 2 + captionHeight + 6
	witnessBlockH     = signatureSpace + 2 + 2*captionHeight + 6
	witnessHeadingGap = 4
)

// PartyCaptions are the fixed signature captions.
var PartyCaptions = []string{"Assinatura da Parte 1", "Assinatura da Parte 2"}

// WitnessHeading titles the witness signature section.
const WitnessHeading = "Testemunhas"

// PlanInput is everything the layout needs besides the measurer.
type PlanInput struct {
	Title     string
	Text      string
	Witnesses []model.Witness
	// LogoW and LogoH are the scaled logo size; zero means no logo.
	LogoW, LogoH float64
	FontSize     float64
}

// LineHeight for a font size in points.
func LineHeight(fontSize float64) float64 {
	return fontSize * 0.5
}

// BuildPlan lays out logo, title, body, signature blocks and witnesses,
// paginating whenever the next element does not fit.
func BuildPlan(geo Geometry, in PlanInput, m Measurer) *Plan {
	p := NewPaginator(geo)
	plan := &Plan{Geometry: geo, Blocks: Segment(in.Text)}
	add := func(it Item) {
		it.Page = p.Page()
		plan.Items = append(plan.Items, it)
	}
	width := geo.ContentWidth()
	body := Style{Size: in.FontSize}
	bold := Style{Size: in.FontSize, Bold: true}
	lineH := LineHeight(in.FontSize)

	if in.LogoW > 0 && in.LogoH > 0 {
		add(Item{Kind: ItemLogo, X: (geo.Page.Width - in.LogoW) / 2, Y: p.Y(), W: in.LogoW, H: in.LogoH, Block: -1})
		p.Advance(in.LogoH + logoGap)
	}

	titleStyle := Style{Size: titleFontSize, Bold: true}
	for _, line := range Wrap(textfmt.Upper(in.Title), width, titleStyle, m) {
		p.Ensure(titleLineHeight)
		add(Item{Kind: ItemTitle, X: geo.Margin, Y: p.Y(), W: width, H: titleLineHeight, Text: line, Block: -1, Style: titleStyle})
		p.Advance(titleLineHeight)
	}
	p.Advance(2)
	add(Item{Kind: ItemRule, X: geo.Margin, Y: p.Y(), W: width, Block: -1})
	p.Advance(ruleGap)

	for i, b := range plan.Blocks {
		switch b.Kind {
		case KindSpacer:
			p.Advance(lineH / 2)
		case KindHeading:
			p.Advance(headingGapBefore)
			lines := Wrap(b.Label(), width, bold, m)
			for j, line := range lines {
				p.Ensure(lineH)
				number := 0
				if j == 0 {
					number = b.Number
				}
				add(Item{Kind: ItemHeading, X: geo.Margin, Y: p.Y(), W: width, H: lineH, Text: line, Number: number, Block: i, Last: j == len(lines)-1, Style: bold})
				p.Advance(lineH)
			}
		case KindParagraph:
			lines := Wrap(b.Text, width, body, m)
			for j, line := range lines {
				p.Ensure(lineH)
				add(Item{Kind: ItemParagraphLine, X: geo.Margin, Y: p.Y(), W: width, H: lineH, Text: line, Block: i, Last: j == len(lines)-1, Style: body})
				p.Advance(lineH)
			}
		}
	}

	ruleX := (geo.Page.Width - signatureRuleW) / 2
	p.Advance(signatureGap)
	for _, caption := range PartyCaptions {
		p.Ensure(signatureBlockH)
		y := p.Y() + signatureSpace
		add(Item{Kind: ItemSignatureRule, X: ruleX, Y: y, W: signatureRuleW, Block: -1})
		add(Item{Kind: ItemCaption, X: ruleX, Y: y + 2, W: signatureRuleW, H: captionHeight, Text: caption, Block: -1, Style: body})
		p.Advance(signatureBlockH)
	}

	if len(in.Witnesses) > 0 {
		p.Ensure(lineH + witnessHeadingGap + witnessBlockH)
		add(Item{Kind: ItemWitnessHeading, X: geo.Margin, Y: p.Y(), W: width, H: lineH, Text: WitnessHeading, Block: -1, Style: bold})
		p.Advance(lineH + witnessHeadingGap)
		for _, w := range in.Witnesses {
			p.Ensure(witnessBlockH)
			y := p.Y() + signatureSpace
			add(Item{Kind: ItemSignatureRule, X: ruleX, Y: y, W: signatureRuleW, Block: -1})
			add(Item{Kind: ItemCaption, X: ruleX, Y: y + 2, W: signatureRuleW, H: captionHeight, Text: w.Name, Block: -1, Style: body})
			add(Item{Kind: ItemCaption, X: ruleX, Y: y + 2 + captionHeight, W: signatureRuleW, H: captionHeight, Text: WitnessDocumentCaption(w), Block: -1, Style: body})
			p.Advance(witnessBlockH)
		}
	}

	plan.Pages = p.Page()
	return plan
}

// WitnessDocumentCaption is the line under a witness name.
func WitnessDocumentCaption(w model.Witness) string {
	return "Documento: " + w.Document
}
