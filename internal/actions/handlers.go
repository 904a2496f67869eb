package actions

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/frequency/internal/apperr"
	"github.com/jimdaga/frequency/internal/auth"
)

// Handler serves the /actions routes.
type Handler struct {
	store *Store
}

// NewHandler creates a Handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the action routes on rg. rg must already require auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

// List returns the caller's actions
func (h *Handler) List(c *gin.Context) {
	actions, err := h.store.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, actions)
}

// Get returns one action
func (h *Handler) Get(c *gin.Context) {
	action, err := h.store.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, action)
}

// Create adds an action
func (h *Handler) Create(c *gin.Context) {
	var in Input
	if !bindValidated(c, &in) {
		return
	}

	action, err := h.store.Create(c.Request.Context(), auth.UserID(c), in)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, action)
}

// Update applies a partial update
func (h *Handler) Update(c *gin.Context) {
	var p Patch
	if !bindValidated(c, &p) {
		return
	}

	action, err := h.store.Update(c.Request.Context(), auth.UserID(c), c.Param("id"), p)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, action)
}

// Delete removes an action
func (h *Handler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// bindValidated checks the body against the action schema and decodes it into dst.
func bindValidated(c *gin.Context, dst interface{}) bool {
	body, err := c.GetRawData()
	if err != nil {
		apperr.Respond(c, apperr.Validation("Invalid request body"))
		return false
	}
	if err := ValidateBody(body); err != nil {
		apperr.Respond(c, err)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		apperr.Respond(c, apperr.Validation("Invalid request body"))
		return false
	}
	return true
}
