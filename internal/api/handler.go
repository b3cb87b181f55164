// Package api exposes the check-in session over HTTP for the kiosk's
// presentation layer.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fossasia/eventyay-checkin/internal/checkin"
)

// Kiosk is satisfied by *checkin.Orchestrator.
type Kiosk interface {
	CheckIn(ctx context.Context, payload string) error
	PrintBadge(ctx context.Context, badgeURL string) error
	Reset() error
	Session() *checkin.Session
}

// Handler wires the binding routes onto a Gin router group.
type Handler struct {
	kiosk Kiosk
	log   *zap.Logger

	closing   chan struct{}
	closeOnce sync.Once
}

func NewHandler(k Kiosk, log *zap.Logger) *Handler {
	return &Handler{kiosk: k, log: log, closing: make(chan struct{})}
}

// Close ends open state streams. http.Server.Shutdown does not cancel
// request contexts, so register it with RegisterOnShutdown.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// Register mounts all routes. Auth middleware should already be applied
// to the group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/checkin", h.handleCheckIn)
	rg.POST("/print", h.handlePrint)
	rg.POST("/reset", h.handleReset)
	rg.GET("/state", h.handleState)
	rg.GET("/state/stream", h.handleStream)
}

type checkInRequest struct {
	Payload string `json:"payload" binding:"required"`
}

type printRequest struct {
	BadgeURL string `json:"badge_url"`
}

// ── Operations ──────────────────────────────────────────────────────────────

func (h *Handler) handleCheckIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload is required"})
		return
	}
	if err := h.kiosk.CheckIn(c.Request.Context(), req.Payload); err != nil {
		h.respondOpError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.kiosk.Session().Snapshot())
}

func (h *Handler) handlePrint(c *gin.Context) {
	var req printRequest
	// An empty body prints the session's badge.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.kiosk.PrintBadge(c.Request.Context(), req.BadgeURL); err != nil {
		h.respondOpError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.kiosk.Session().Snapshot())
}

func (h *Handler) handleReset(c *gin.Context) {
	if err := h.kiosk.Reset(); err != nil {
		h.respondOpError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.kiosk.Session().Snapshot())
}

func (h *Handler) respondOpError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkin.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "busy"})
	case errors.Is(err, checkin.ErrNoBadge):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no badge to print"})
	default:
		h.log.Error("kiosk operation failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// ── State ───────────────────────────────────────────────────────────────────

func (h *Handler) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, h.kiosk.Session().Snapshot())
}

// handleStream sends the current snapshot, then one "state" event per
// change until the client goes away or the handler is closed. Slow clients miss intermediate
// snapshots rather than blocking the session.
func (h *Handler) handleStream(c *gin.Context) {
	updates := make(chan checkin.State, 8)
	unsubscribe := h.kiosk.Session().Subscribe(checkin.ObserverFunc(func(st checkin.State) {
		select {
		case updates <- st:
		default:
		}
	}))
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	c.SSEvent("state", h.kiosk.Session().Snapshot())
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case st := <-updates:
			c.SSEvent("state", st)
			c.Writer.Flush()
		case <-ctx.Done():
			return
		case <-h.closing:
			return
		}
	}
}
