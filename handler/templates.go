package handler

import (
	"net/http"

	"github.com/AnTengye/jurieasy/service"
	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	templates service.TemplateSource
}

func NewTemplateHandler(templates service.TemplateSource) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// List returns template summaries without their text.
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templates.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]gin.H, len(templates))
	for i, t := range templates {
		result[i] = gin.H{
			"id":          t.ID,
			"title":       t.Title,
			"description": t.Description,
			"category":    t.Category,
			"total_steps": t.TotalSteps(),
		}
	}
	c.JSON(http.StatusOK, gin.H{"templates": result})
}

// Get returns a full template, with placeholders that no variable answers.
func (h *TemplateHandler) Get(c *gin.Context) {
	tmpl, err := h.templates.FetchTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"template":             tmpl,
		"unknown_placeholders": tmpl.UnknownPlaceholders(),
	})
}
