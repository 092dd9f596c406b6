package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups the API handlers for route registration.
type Handlers struct {
	Auth      *AuthHandler
	Templates *TemplateHandler
	Documents *DocumentHandler
	Wizard    *WizardHandler
	Export    *ExportHandler
	Library   *LibraryHandler
	Callback  *CallbackHandler
	Live      *LiveHub
}

// Register mounts the API on api. protect runs before every route that
// needs a user.
func (h *Handlers) Register(api *gin.RouterGroup, protect ...gin.HandlerFunc) {
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/esign/callback", h.Callback.HandleCallback)

	protected := api.Group("/", protect...)
	{
		protected.GET("/auth/me", h.Auth.GetCurrentUser)

		protected.GET("/templates", h.Templates.List)
		protected.GET("/templates/:id", h.Templates.Get)

		protected.GET("/documents", h.Documents.List)
		protected.GET("/documents/:id", h.Documents.Get)
		protected.GET("/documents/:id/preview", h.Documents.Preview)
		protected.GET("/documents/:id/signatures", h.Documents.Signatures)
		protected.POST("/documents/:id/resume", h.Wizard.Resume)
		protected.POST("/documents/:id/export", h.Export.ExportDocument)

		protected.GET("/library", h.Library.List)
		protected.POST("/library", h.Library.Create)
		protected.DELETE("/library/:id", h.Library.Delete)
		protected.POST("/library/suggestions", h.Library.Suggest)
		protected.POST("/library/apply", h.Library.Apply)

		protected.POST("/wizard", h.Wizard.Start)
	}

	session := protected.Group("/wizard/:sid", h.Wizard.LoadSession())
	{
		session.GET("", h.Wizard.State)
		session.DELETE("", h.Wizard.Cancel)
		session.PUT("/answers/:field", h.Wizard.SetAnswer)
		session.POST("/submit", h.Wizard.Submit)
		session.POST("/submit-all", h.Wizard.SubmitAll)
		session.POST("/back", h.Wizard.Back)
		session.POST("/save", h.Wizard.Save)
		session.POST("/generate", h.Wizard.Generate)
		session.GET("/preview", h.Wizard.Preview)
		session.PUT("/text", h.Wizard.EditText)
		session.PUT("/preview/answers/:field", h.Wizard.EditAnswer)
		session.POST("/finalize", h.Wizard.Finalize)
		session.POST("/export", h.Export.ExportSession)
		session.GET("/live", h.Live.Serve)
	}
}
