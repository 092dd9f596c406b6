package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"strings"

	"github.com/AnTengye/jurieasy/pkg/textfmt"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const (
	styleCenter    = "text-align:center"
	styleJustify   = "text-align:justify"
	styleTitle     = "text-align:center;font-weight:bold;text-transform:uppercase"
	styleHeading   = "font-weight:bold;margin-top:12pt"
	stylePageBreak = "page-break-before:always"
	signatureLine  = "______________________________"
	mmToPx         = 96 / 25.4
)

// docInput is what the flow renderer needs beyond the plan.
type docInput struct {
	Plan         *Plan
	Title        string
	Logo         *Logo
	LogoW, LogoH float64
	FontFamily   string
	FontSize     float64
	Witnesses    []witnessLine
}

type witnessLine struct {
	Name     string
	Document string
}

// renderDoc builds the document as a goldmark AST and wraps the HTML in a
// Word-compatible envelope. Page breaks follow the plan so both targets
// break pages at the same blocks, signatures and witnesses included.
func renderDoc(in docInput) ([]byte, error) {
	doc := ast.NewDocument()

	if in.Logo != nil {
		link := ast.NewLink()
		link.Destination = []byte("data:" + in.Logo.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(in.Logo.Data))
		img := ast.NewImage(link)
		img.AppendChild(img, ast.NewString([]byte("Logo")))
		img.SetAttributeString("width", []byte(fmt.Sprintf("%.0f", in.LogoW*mmToPx)))
		img.SetAttributeString("height", []byte(fmt.Sprintf("%.0f", in.LogoH*mmToPx)))
		p := ast.NewParagraph()
		p.SetAttributeString("style", []byte(styleCenter))
		p.AppendChild(p, img)
		doc.AppendChild(doc, p)
	}

	title := ast.NewHeading(1)
	title.SetAttributeString("style", []byte(styleTitle))
	title.AppendChild(title, text(textfmt.Upper(in.Title)))
	doc.AppendChild(doc, title)
	doc.AppendChild(doc, ast.NewThematicBreak())

	pages := in.Plan.BlockPages()
	page := 1
	// breakAt reports whether an element on plan page p starts a new page.
	breakAt := func(p int) bool {
		if p > page {
			page = p
			return true
		}
		return false
	}
	for i, b := range in.Plan.Blocks {
		var node ast.Node
		style := ""
		switch b.Kind {
		case KindSpacer:
			p := ast.NewParagraph()
			p.AppendChild(p, raw("&nbsp;"))
			node = p
		case KindHeading:
			node = ast.NewHeading(2)
			node.AppendChild(node, text(b.Label()))
			style = styleHeading
		case KindParagraph:
			node = ast.NewParagraph()
			node.AppendChild(node, text(b.Text))
			style = styleJustify
		}
		if p, ok := pages[i]; ok && breakAt(p) {
			style = joinStyle(stylePageBreak, style)
		}
		if style != "" {
			node.SetAttributeString("style", []byte(style))
		}
		doc.AppendChild(doc, node)
	}

	sigPages := in.Plan.SignaturePages()
	sigPage := func(i int) int {
		if i < len(sigPages) {
			return sigPages[i]
		}
		return page
	}
	for i, caption := range PartyCaptions {
		doc.AppendChild(doc, signatureParagraph(breakAt(sigPage(i)), caption))
	}
	if len(in.Witnesses) > 0 {
		h := ast.NewHeading(3)
		if breakAt(in.Plan.WitnessHeadingPage()) {
			h.SetAttributeString("style", []byte(stylePageBreak))
		}
		h.AppendChild(h, text(WitnessHeading))
		doc.AppendChild(doc, h)
		for i, w := range in.Witnesses {
			doc.AppendChild(doc, signatureParagraph(breakAt(sigPage(len(PartyCaptions)+i)), w.Name, w.Document))
		}
	}

	var body bytes.Buffer
	md := goldmark.New(goldmark.WithRendererOptions(gmhtml.WithXHTML()))
	if err := md.Renderer().Render(&body, nil, doc); err != nil {
		return nil, fmt.Errorf("rendering document html: %w", err)
	}
	return wordEnvelope(in, body.Bytes()), nil
}

func signatureParagraph(pageBreak bool, lines ...string) ast.Node {
	style := styleCenter + ";margin-top:36pt"
	if pageBreak {
		style = joinStyle(stylePageBreak, style)
	}
	p := ast.NewParagraph()
	p.SetAttributeString("style", []byte(style))
	p.AppendChild(p, text(signatureLine))
	for _, line := range lines {
		p.AppendChild(p, raw("<br/>"))
		p.AppendChild(p, text(line))
	}
	return p
}

func text(s string) *ast.String {
	return raw(html.EscapeString(s))
}

func raw(s string) *ast.String {
	n := ast.NewString([]byte(s))
	n.SetRaw(true)
	return n
}

func joinStyle(a, b string) string {
	if b == "" {
		return a
	}
	return a + ";" + b
}

func cssFontFamily(family string) string {
	switch strings.ToLower(family) {
	case "helvetica", "arial":
		return "Arial, Helvetica, sans-serif"
	case "courier":
		return "'Courier New', Courier, monospace"
	default:
		return "'Times New Roman', Times, serif"
	}
}

func wordEnvelope(in docInput, body []byte) []byte {
	geo := in.Plan.Geometry
	var b bytes.Buffer
	b.WriteString(`<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word" xmlns="http://www.w3.org/TR/REC-html40">`)
	b.WriteString("\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(in.Title))
	b.WriteString("</title>\n<style>\n")
	fmt.Fprintf(&b, "@page { size: %.1fmm %.1fmm; margin: %.1fmm; }\n", geo.Page.Width, geo.Page.Height, geo.Margin)
	fmt.Fprintf(&b, "body { font-family: %s; font-size: %.0fpt; }\n", cssFontFamily(in.FontFamily), in.FontSize)
	b.WriteString("</style>\n</head>\n<body>\n")
	b.Write(body)
	b.WriteString("</body>\n</html>\n")
	return b.Bytes()
}
