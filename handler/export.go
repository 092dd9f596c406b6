package handler

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/AnTengye/jurieasy/middleware"
	"github.com/AnTengye/jurieasy/pkg/apperr"
	"github.com/AnTengye/jurieasy/render"
	"github.com/AnTengye/jurieasy/service"
	"github.com/gin-gonic/gin"
)

const maxLogoSize = 2 << 20

// ExportHandler renders documents to PDF or DOC, stores them or hands them
// to the signing provider.
type ExportHandler struct {
	manager *service.SessionManager
	exports *service.ExportService
}

func NewExportHandler(manager *service.SessionManager, exports *service.ExportService) *ExportHandler {
	return &ExportHandler{manager: manager, exports: exports}
}

// exportOptions reads format, store and an optional logo upload. Fields
// come from the form or, failing that, the query string.
func exportOptions(c *gin.Context) (service.ExportInput, error) {
	var in service.ExportInput

	format, err := render.ParseFormat(c.DefaultPostForm("format", c.DefaultQuery("format", string(render.FormatPDF))))
	if err != nil {
		return in, err
	}
	in.Format = format

	if s := c.DefaultPostForm("store", c.Query("store")); s != "" {
		store, err := strconv.ParseBool(s)
		if err != nil {
			return in, apperr.Validation("store", "valor inválido para store")
		}
		in.Store = store
	}

	header, err := c.FormFile("logo")
	if err == nil {
		if header.Size > maxLogoSize {
			return in, apperr.Validation("logo", "logotipo maior que 2 MB")
		}
		f, err := header.Open()
		if err != nil {
			return in, apperr.IO("falha ao ler o logotipo", err)
		}
		defer f.Close()
		logo, err := io.ReadAll(io.LimitReader(f, maxLogoSize))
		if err != nil {
			return in, apperr.IO("falha ao ler o logotipo", err)
		}
		in.Logo = logo
	}
	return in, nil
}

// ExportDocument exports a saved document.
func (h *ExportHandler) ExportDocument(c *gin.Context) {
	in, err := exportOptions(c)
	if err != nil {
		respondError(c, err)
		return
	}
	doc, tmpl, err := h.manager.LoadDocument(c.Request.Context(), middleware.GetUsername(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	in.Document, in.Template = doc, tmpl
	h.export(c, in)
}

// ExportSession is the download action of the preview: it persists the
// preview edits to text and answers, completing the document, and exports
// what was saved.
func (h *ExportHandler) ExportSession(c *gin.Context) {
	in, err := exportOptions(c)
	if err != nil {
		respondError(c, err)
		return
	}
	sess := currentSession(c)
	if p := sess.Phase(); p != service.PhasePreviewing && p != service.PhaseCompleted {
		respondError(c, apperr.Conflict("gere o documento antes de exportar"))
		return
	}
	if !render.HasContent(sess.GeneratedText()) {
		respondError(c, apperr.Validation("generatedText", "documento sem conteúdo para exportar"))
		return
	}
	doc, err := sess.Finalize(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	in.Document, in.Template = doc, sess.Template()
	in.Text = doc.GeneratedText
	h.export(c, in)
}

func (h *ExportHandler) export(c *gin.Context, in service.ExportInput) {
	result, err := h.exports.Export(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	artifact := result.Artifact

	switch {
	case result.Signature != nil:
		c.JSON(http.StatusAccepted, gin.H{
			"signature": result.Signature,
			"url":       result.URL,
		})
	case result.URL != "":
		c.JSON(http.StatusOK, gin.H{
			"filename":     artifact.Filename,
			"content_type": artifact.ContentType,
			"pages":        artifact.Pages,
			"url":          result.URL,
		})
	default:
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Filename}))
		c.Header("X-Page-Count", strconv.Itoa(artifact.Pages))
		c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
	}
}
