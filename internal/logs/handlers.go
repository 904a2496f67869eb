package logs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/frequency/internal/apperr"
	"github.com/jimdaga/frequency/internal/auth"
	"github.com/jimdaga/frequency/internal/stats"
)

// Handler serves the /logs routes.
type Handler struct {
	store *Store
	now   func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store, now: time.Now}
}

// RegisterRoutes mounts the log routes on rg. rg must already require auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/stats", h.Stats)
	rg.GET("/calendar", h.Calendar)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

// List returns logs joined with their action (?date=YYYY-MM-DD, ?last24h=true)
func (h *Handler) List(c *gin.Context) {
	q := Query{Date: c.Query("date")}
	if q.Date == "" && c.Query("last24h") == "true" {
		since := h.now().Add(-24 * time.Hour)
		q.Since = &since
	}

	entries, err := h.store.List(c.Request.Context(), auth.UserID(c), q)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Stats returns today's total and the current streak
func (h *Handler) Stats(c *gin.Context) {
	records, err := h.store.Records(c.Request.Context(), auth.UserID(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	now := h.now().UTC()
	today := stats.DateOf(now)
	c.JSON(http.StatusOK, gin.H{
		"totalToday":    stats.DailyTotal(records, today, ""),
		"dateInfo":      "Today, " + now.Format("Jan 2"),
		"currentStreak": stats.Streak(records, today),
	})
}

// Calendar returns the month summary (?year=, ?month= 0-indexed, ?actionId=)
func (h *Handler) Calendar(c *gin.Context) {
	now := h.now().UTC()

	year := now.Year()
	if v := c.Query("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			apperr.Respond(c, apperr.Validation("year must be a number"))
			return
		}
		year = y
	}

	month := now.Month()
	if v := c.Query("month"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			apperr.Respond(c, apperr.Validation("month must be 0-11"))
			return
		}
		if month, err = stats.MonthFromIndex(i); err != nil {
			apperr.Respond(c, apperr.Validation("month must be 0-11"))
			return
		}
	}

	records, err := h.store.Records(c.Request.Context(), auth.UserID(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, stats.Summarize(records, year, month, c.Query("actionId"), stats.DateOf(now)))
}

// Get returns one log
func (h *Handler) Get(c *gin.Context) {
	entry, err := h.store.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Create records a log
func (h *Handler) Create(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		apperr.Respond(c, apperr.Validation("Invalid request body"))
		return
	}

	entry, err := h.store.Create(c.Request.Context(), auth.UserID(c), in)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// Update changes the time or note of a log
func (h *Handler) Update(c *gin.Context) {
	var p Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		apperr.Respond(c, apperr.Validation("Invalid request body"))
		return
	}

	entry, err := h.store.Update(c.Request.Context(), auth.UserID(c), c.Param("id"), p)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Delete removes a log
func (h *Handler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
