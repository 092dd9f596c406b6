package handler

import (
	"net/http"
	"strconv"

	"github.com/AnTengye/jurieasy/middleware"
	"github.com/AnTengye/jurieasy/model"
	"github.com/AnTengye/jurieasy/pkg/apperr"
	"github.com/AnTengye/jurieasy/service"
	"github.com/gin-gonic/gin"
)

// LibraryHandler manages the user's snippet library and the inline
// {{ suggestions built on it.
type LibraryHandler struct {
	library   service.LibraryRepository
	suggester *service.Suggester
}

func NewLibraryHandler(library service.LibraryRepository, suggester *service.Suggester) *LibraryHandler {
	return &LibraryHandler{library: library, suggester: suggester}
}

type LibraryItemRequest struct {
	Name        string   `json:"name" binding:"required"`
	Value       string   `json:"value" binding:"required"`
	Tags        []string `json:"tags"`
	FrequentUse bool     `json:"frequent_use"`
}

// SuggestRequest carries a field value and the cursor as a rune offset.
// A missing cursor means the end of the value.
type SuggestRequest struct {
	Value  string `json:"value"`
	Cursor *int   `json:"cursor"`
}

type ApplyRequest struct {
	Value  string `json:"value"`
	Cursor *int   `json:"cursor"`
	ItemID string `json:"item_id" binding:"required"`
}

func cursorOf(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}

func (h *LibraryHandler) List(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondError(c, apperr.Validation("limit", "limite inválido"))
			return
		}
		limit = n
	}
	items, err := h.library.SearchLibrary(c.Request.Context(), middleware.GetUsername(c), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []model.LibraryItem{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *LibraryHandler) Create(c *gin.Context) {
	var req LibraryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.library.CreateLibraryItem(c.Request.Context(), model.LibraryItem{
		Owner:       middleware.GetUsername(c),
		Name:        req.Name,
		Value:       req.Value,
		Tags:        req.Tags,
		FrequentUse: req.FrequentUse,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *LibraryHandler) Delete(c *gin.Context) {
	if err := h.library.DeleteLibraryItem(c.Request.Context(), middleware.GetUsername(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removido"})
}

// Suggest lists library items for the {{ trigger before the cursor.
func (h *LibraryHandler) Suggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.suggester.Suggest(c.Request.Context(), middleware.GetUsername(c), req.Value, cursorOf(req.Cursor))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// Apply replaces the open trigger with the chosen item's value.
func (h *LibraryHandler) Apply(c *gin.Context) {
	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	trigger, ok := service.DetectTrigger(req.Value, cursorOf(req.Cursor))
	if !ok {
		respondError(c, apperr.Validation("value", "nenhuma sugestão aberta"))
		return
	}
	items, err := h.library.SearchLibrary(c.Request.Context(), middleware.GetUsername(c), "", 0)
	if err != nil {
		respondError(c, err)
		return
	}
	for _, it := range items {
		if it.ID == req.ItemID {
			value, cursor := service.ApplySuggestion(req.Value, trigger, it)
			c.JSON(http.StatusOK, gin.H{"value": value, "cursor": cursor})
			return
		}
	}
	respondError(c, apperr.NotFound("item "+req.ItemID+" não encontrado"))
}
