package handler

import (
	"encoding/json"
	"net/http"

	"github.com/AnTengye/jurieasy/pkg/logger"
	"github.com/AnTengye/jurieasy/service"
	"github.com/gin-gonic/gin"
)

// CallbackHandler receives status pushes from the e-signature provider.
type CallbackHandler struct {
	exports *service.ExportService
}

func NewCallbackHandler(exports *service.ExportService) *CallbackHandler {
	return &CallbackHandler{exports: exports}
}

type CallbackRequest struct {
	Checksum string `json:"checksum" binding:"required"`
	Content  string `json:"content" binding:"required"`
	UID      string `json:"uid"`
}

// HandleCallback verifies the checksum and applies the envelope status.
func (h *CallbackHandler) HandleCallback(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if !h.exports.VerifyCallback(req.Checksum, req.Content, req.UID) {
		logger.Warn(c.Request.Context(), "e-sign callback rejected", "uid", req.UID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid checksum", "code": "UNAUTHORIZED"})
		return
	}

	var status service.EnvelopeStatus
	if err := json.Unmarshal([]byte(req.Content), &status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content format", "code": "BAD_REQUEST"})
		return
	}

	if err := h.exports.ApplyCallback(c.Request.Context(), status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Callback received"})
}
