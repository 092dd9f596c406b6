package render

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/AnTengye/jurieasy/config"
	"github.com/AnTengye/jurieasy/model"
	"github.com/AnTengye/jurieasy/pkg/apperr"
	"github.com/AnTengye/jurieasy/pkg/logger"
)

// Format is an export target.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatDOC Format = "doc"
	// FormatESign renders a PDF that is then handed to a signing provider.
	FormatESign Format = "esign"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatDOC, FormatESign:
		return f, nil
	}
	return "", apperr.Validation("format", fmt.Sprintf("formato de exportação inválido: %q", s))
}

var contentTypes = map[Format]string{
	FormatPDF:   "application/pdf",
	FormatESign: "application/pdf",
	FormatDOC:   "application/msword",
}

var extensions = map[Format]string{
	FormatPDF:   ".pdf",
	FormatESign: ".pdf",
	FormatDOC:   ".doc",
}

// Request describes one export.
type Request struct {
	Title     string
	Text      string
	Witnesses []model.Witness
	Logo      []byte
	Format    Format
}

// Artifact is a rendered file ready to be stored or downloaded.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
	Pages       int
}

type Options struct {
	Geometry      Geometry
	FontFamily    string
	FontSize      float64
	LogoMaxWidth  float64
	LogoMaxHeight float64
}

// OptionsFromConfig converts render settings; unknown page sizes fall back to A4.
func OptionsFromConfig(cfg config.RenderConfig) Options {
	size, ok := PageSizeByName(cfg.PageSize)
	if !ok {
		size = pageSizes["A4"]
	}
	return Options{
		Geometry:      Geometry{Page: size, Margin: cfg.Margin},
		FontFamily:    cfg.FontFamily,
		FontSize:      cfg.FontSize,
		LogoMaxWidth:  cfg.LogoMaxWidth,
		LogoMaxHeight: cfg.LogoMaxHeight,
	}
}

type Exporter struct {
	opts Options
}

func NewExporter(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

var whitespace = regexp.MustCompile(`\s+`)

// ArtifactName derives the download name from the document title.
func ArtifactName(title string, format Format) string {
	name := whitespace.ReplaceAllString(strings.TrimSpace(title), "_")
	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	if name == "" {
		name = "documento"
	}
	return name + extensions[format]
}

// Export renders req into the requested format. A broken logo is logged
// and skipped.
func (e *Exporter) Export(ctx context.Context, req Request) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := contentTypes[req.Format]; !ok {
		return nil, apperr.Validation("format", fmt.Sprintf("formato de exportação inválido: %q", req.Format))
	}
	if !HasContent(req.Text) {
		return nil, apperr.Validation("generatedText", "documento sem conteúdo para exportar")
	}

	logo := e.inspectLogo(ctx, req.Logo)
	pdf := newPDF(e.opts.Geometry)
	m := newFontMeasurer(pdf, e.opts.FontFamily)
	if logo != nil {
		if err := registerLogo(pdf, logo); err != nil {
			logger.Warn(ctx, "logo rejected by pdf writer, continuing without it", "error", err)
			logo = nil
		}
	}
	plan := BuildPlan(e.opts.Geometry, e.planInput(req, logo), m)

	artifact := &Artifact{
		Filename:    ArtifactName(req.Title, req.Format),
		ContentType: contentTypes[req.Format],
		Pages:       plan.Pages,
	}
	var err error
	switch req.Format {
	case FormatDOC:
		in := docInput{Plan: plan, Title: req.Title, Logo: logo, FontFamily: e.opts.FontFamily, FontSize: e.opts.FontSize}
		if logo != nil {
			in.LogoW, in.LogoH = logo.Fit(e.opts.LogoMaxWidth, e.opts.LogoMaxHeight)
		}
		for _, w := range req.Witnesses {
			in.Witnesses = append(in.Witnesses, witnessLine{Name: w.Name, Document: WitnessDocumentCaption(w)})
		}
		artifact.Data, err = renderDoc(in)
	default:
		pdf.SetTitle(req.Title, true)
		pdf.SetCreator("jurieasy", true)
		drawPlan(pdf, plan, m)
		artifact.Data, err = outputPDF(pdf)
	}
	if err != nil {
		return nil, apperr.IO("falha ao gerar o arquivo", err)
	}

	logger.Info(ctx, "document exported", "format", req.Format, "pages", artifact.Pages, "bytes", len(artifact.Data))
	return artifact, nil
}

// Layout returns the paginated plan for req without producing a file.
func (e *Exporter) Layout(ctx context.Context, req Request) *Plan {
	logo := e.inspectLogo(ctx, req.Logo)
	pdf := newPDF(e.opts.Geometry)
	return BuildPlan(e.opts.Geometry, e.planInput(req, logo), newFontMeasurer(pdf, e.opts.FontFamily))
}

func (e *Exporter) inspectLogo(ctx context.Context, data []byte) *Logo {
	if len(data) == 0 {
		return nil
	}
	logo, err := InspectLogo(data)
	if err != nil {
		logger.Warn(ctx, "logo could not be read, continuing without it", "error", err)
		return nil
	}
	return logo
}

func (e *Exporter) planInput(req Request, logo *Logo) PlanInput {
	in := PlanInput{Title: req.Title, Text: req.Text, Witnesses: req.Witnesses, FontSize: e.opts.FontSize}
	if logo != nil {
		in.LogoW, in.LogoH = logo.Fit(e.opts.LogoMaxWidth, e.opts.LogoMaxHeight)
	}
	return in
}
