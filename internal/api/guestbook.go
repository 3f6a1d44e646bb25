package api

import (
	"net/http"
	"time"

	"guestbook/backend/internal/models"
	"guestbook/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/samber/lo"
)

const displayTimeFormat = "2006-01-02 15:04:05 MST"

// GuestbookHandler serves the guestbook page and accepts signatures
type GuestbookHandler struct {
	service *service.GuestbookService
}

// NewGuestbookHandler creates a new guestbook handler
func NewGuestbookHandler(service *service.GuestbookService) *GuestbookHandler {
	return &GuestbookHandler{service: service}
}

// RegisterRoutes registers the guestbook routes
func (h *GuestbookHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Index)
	r.POST("/sign", h.Sign)
}

type entryView struct {
	Name      string
	Message   string
	Timestamp string
	Display   string
}

func toEntryView(e models.Entry, _ int) entryView {
	return entryView{
		Name:      e.Name,
		Message:   e.Message,
		Timestamp: e.CreatedAt.Format(time.RFC3339),
		Display:   e.CreatedAt.Format(displayTimeFormat),
	}
}

// Index renders the most recent entries, newest first
func (h *GuestbookHandler) Index(c *gin.Context) {
	entries, err := h.service.ListRecent(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.HTML(http.StatusOK, "guestbook.html", gin.H{
		"Entries": lo.Map(entries, toEntryView),
	})
}

// Sign stores a submission when both fields are present and always redirects
// back to the page. Missing fields are dropped silently.
func (h *GuestbookHandler) Sign(c *gin.Context) {
	var req models.SignRequest
	if err := c.ShouldBindWith(&req, binding.FormPost); err != nil {
		h.service.Skip(c.Request.Context(), err)
	} else if err := h.service.Sign(c.Request.Context(), req); err != nil {
		c.Error(err)
		return
	}

	c.Redirect(http.StatusFound, "/")
}
