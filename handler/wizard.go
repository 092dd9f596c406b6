package handler

import (
	"net/http"

	"github.com/AnTengye/jurieasy/middleware"
	"github.com/AnTengye/jurieasy/model"
	"github.com/AnTengye/jurieasy/pkg/logger"
	"github.com/AnTengye/jurieasy/render"
	"github.com/AnTengye/jurieasy/service"
	"github.com/gin-gonic/gin"
)

const sessionKey = "wizard_session"

// WizardHandler drives answer collection sessions over HTTP.
type WizardHandler struct {
	manager *service.SessionManager
}

func NewWizardHandler(manager *service.SessionManager) *WizardHandler {
	return &WizardHandler{manager: manager}
}

type StartRequest struct {
	TemplateID string `json:"template_id" binding:"required"`
}

type AnswerRequest struct {
	Value model.Answer `json:"value"`
}

type SubmitAllRequest struct {
	Answers model.Answers `json:"answers" binding:"required"`
}

type TextRequest struct {
	Text string `json:"text"`
}

// LoadSession resolves :sid for the current user and stores the session
// on the gin context.
func (h *WizardHandler) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := h.manager.Get(middleware.GetUsername(c), c.Param("sid"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(sessionKey, sess)
		c.Request = c.Request.WithContext(logger.WithSessionID(c.Request.Context(), sess.ID()))
		c.Next()
	}
}

func currentSession(c *gin.Context) *service.Session {
	return c.MustGet(sessionKey).(*service.Session)
}

// Start opens a wizard over a template.
func (h *WizardHandler) Start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess, err := h.manager.Start(c.Request.Context(), middleware.GetUsername(c), middleware.GetTenant(c), req.TemplateID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess.State())
}

// Resume reopens a saved document at its saved step.
func (h *WizardHandler) Resume(c *gin.Context) {
	sess, err := h.manager.Resume(c.Request.Context(), middleware.GetUsername(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

func (h *WizardHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).State())
}

// SetAnswer stores a value as typed, without validation. Autosave follows.
func (h *WizardHandler) SetAnswer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess := currentSession(c)
	if err := sess.SetAnswer(c.Param("field"), req.Value); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

func (h *WizardHandler) Submit(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess := currentSession(c)
	if err := sess.Submit(c.Request.Context(), req.Value); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

func (h *WizardHandler) SubmitAll(c *gin.Context) {
	var req SubmitAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess := currentSession(c)
	if err := sess.SubmitAll(c.Request.Context(), req.Answers); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

// Back steps back. From the first step the wizard is cancelled and the
// session released.
func (h *WizardHandler) Back(c *gin.Context) {
	sess := currentSession(c)
	if err := sess.Back(); err != nil {
		respondError(c, err)
		return
	}
	state := sess.State()
	if state.Phase == service.PhaseCancelled {
		_ = h.manager.Close(sess.Owner(), sess.ID())
	}
	c.JSON(http.StatusOK, state)
}

func (h *WizardHandler) Save(c *gin.Context) {
	sess := currentSession(c)
	doc, err := sess.SaveDraft(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc, "state": sess.State()})
}

func (h *WizardHandler) Generate(c *gin.Context) {
	sess := currentSession(c)
	if err := sess.Generate(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

// EditText replaces the previewed text. Nothing is persisted until Finalize.
func (h *WizardHandler) EditText(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess := currentSession(c)
	if err := sess.EditText(req.Text); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

func (h *WizardHandler) EditAnswer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess := currentSession(c)
	if err := sess.EditAnswer(c.Param("field"), req.Value); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

func (h *WizardHandler) Finalize(c *gin.Context) {
	sess := currentSession(c)
	doc, err := sess.Finalize(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc, "state": sess.State()})
}

// Cancel leaves the wizard. Saved drafts are kept.
func (h *WizardHandler) Cancel(c *gin.Context) {
	sess := currentSession(c)
	if err := h.manager.Close(sess.Owner(), sess.ID()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sessão encerrada", "document_id": sess.DocumentID()})
}

// Preview renders the session text with unsaved edits.
func (h *WizardHandler) Preview(c *gin.Context) {
	sess := currentSession(c)
	c.JSON(http.StatusOK, render.BuildPreview(sess.GeneratedText(), sess.Answers(), sess.Template()))
}
