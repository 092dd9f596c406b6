package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const logoImageName = "logo"

func newPDF(geo Geometry) *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: geo.Page.Width, Ht: geo.Page.Height},
	})
	pdf.SetMargins(geo.Margin, geo.Margin, geo.Margin)
	pdf.SetAutoPageBreak(false, geo.Margin)
	pdf.SetCellMargin(0)
	return pdf
}

// fontMeasurer measures with the core font metrics of a PDF document.
// Text is translated to cp1252 first so widths match what gets drawn.
type fontMeasurer struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
}

func newFontMeasurer(pdf *fpdf.Fpdf, family string) *fontMeasurer {
	return &fontMeasurer{pdf: pdf, family: family, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (m *fontMeasurer) Width(text string, s Style) float64 {
	m.pdf.SetFont(m.family, fontStyle(s), s.Size)
	return m.pdf.GetStringWidth(m.tr(text))
}

func fontStyle(s Style) string {
	if s.Bold {
		return "B"
	}
	return ""
}

// registerLogo embeds the logo once. A logo the PDF writer rejects is
// reported and the document is left usable.
func registerLogo(pdf *fpdf.Fpdf, logo *Logo) error {
	pdf.RegisterImageOptionsReader(logoImageName, fpdf.ImageOptions{ImageType: logo.fpdfType()}, bytes.NewReader(logo.Data))
	if pdf.Err() {
		err := pdf.Error()
		pdf.ClearError()
		return err
	}
	return nil
}

// drawPlan writes every plan item onto pdf, adding pages as the plan
// requires. Non-final paragraph lines are justified.
func drawPlan(pdf *fpdf.Fpdf, plan *Plan, m *fontMeasurer) {
	pdf.AddPage()
	page := 1
	pdf.SetLineWidth(0.3)
	for _, it := range plan.Items {
		for page < it.Page {
			pdf.AddPage()
			page++
		}
		switch it.Kind {
		case ItemLogo:
			pdf.ImageOptions(logoImageName, it.X, it.Y, it.W, it.H, false, fpdf.ImageOptions{}, 0, "")
		case ItemRule, ItemSignatureRule:
			pdf.Line(it.X, it.Y, it.X+it.W, it.Y)
		case ItemTitle, ItemCaption:
			pdf.SetFont(m.family, fontStyle(it.Style), it.Style.Size)
			pdf.SetXY(it.X, it.Y)
			pdf.CellFormat(it.W, it.H, m.tr(it.Text), "", 0, "C", false, 0, "")
		case ItemHeading, ItemWitnessHeading:
			pdf.SetFont(m.family, fontStyle(it.Style), it.Style.Size)
			pdf.SetXY(it.X, it.Y)
			pdf.CellFormat(it.W, it.H, m.tr(it.Text), "", 0, "L", false, 0, "")
		case ItemParagraphLine:
			text := m.tr(it.Text)
			pdf.SetFont(m.family, fontStyle(it.Style), it.Style.Size)
			pdf.SetXY(it.X, it.Y)
			if spaces := strings.Count(text, " "); !it.Last && spaces > 0 {
				gap := it.W - pdf.GetStringWidth(text)
				if gap > 0 {
					pdf.SetWordSpacing(gap / float64(spaces))
				}
			}
			pdf.CellFormat(it.W, it.H, text, "", 0, "L", false, 0, "")
			pdf.SetWordSpacing(0)
		}
	}
}

func outputPDF(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}
