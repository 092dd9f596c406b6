package handler

import (
	"net/http"
	"time"

	"github.com/AnTengye/jurieasy/middleware"
	"github.com/AnTengye/jurieasy/model"
	"github.com/AnTengye/jurieasy/render"
	"github.com/AnTengye/jurieasy/service"
	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	documents service.DocumentRepository
	manager   *service.SessionManager
	exports   *service.ExportService
}

func NewDocumentHandler(documents service.DocumentRepository, manager *service.SessionManager, exports *service.ExportService) *DocumentHandler {
	return &DocumentHandler{documents: documents, manager: manager, exports: exports}
}

// List returns the current user's documents without their text.
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.ListDocuments(c.Request.Context(), middleware.GetUsername(c))
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]gin.H, len(docs))
	for i, d := range docs {
		result[i] = gin.H{
			"id":           d.ID,
			"document_id":  d.DocumentID,
			"status":       d.Status,
			"current_step": d.CurrentStep,
			"total_steps":  d.TotalSteps,
			"created_at":   d.CreatedAt.Format(time.RFC3339),
			"updated_at":   d.UpdatedAt.Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, gin.H{"documents": result})
}

// Get returns one document. An empty stored text is rebuilt from answers.
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, tmpl, err := h.manager.LoadDocument(c.Request.Context(), middleware.GetUsername(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc, "template_title": tmpl.Title})
}

func (h *DocumentHandler) Preview(c *gin.Context) {
	doc, tmpl, err := h.manager.LoadDocument(c.Request.Context(), middleware.GetUsername(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, render.BuildPreview(doc.GeneratedText, doc.Answers, tmpl))
}

// Signatures lists the e-signature requests of a document.
func (h *DocumentHandler) Signatures(c *gin.Context) {
	doc, _, err := h.manager.LoadDocument(c.Request.Context(), middleware.GetUsername(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	signatures := h.exports.Signatures(doc.ID)
	if signatures == nil {
		signatures = []*model.SignatureRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"signatures": signatures})
}
