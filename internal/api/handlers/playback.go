package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Conceptual-Machines/aideas-api/internal/audio"
	"github.com/Conceptual-Machines/aideas-api/internal/generation"
	"github.com/Conceptual-Machines/aideas-api/internal/notation"
)

// PlaybackHandler manages playback sessions: one player per session, each
// with its own scheduling goroutine.
type PlaybackHandler struct {
	orchestrator *generation.Orchestrator
	sink         audio.Sink

	mu       sync.Mutex
	sessions map[string]*audio.Player
}

func NewPlaybackHandler(orchestrator *generation.Orchestrator, sink audio.Sink) *PlaybackHandler {
	return &PlaybackHandler{
		orchestrator: orchestrator,
		sink:         sink,
		sessions:     make(map[string]*audio.Player),
	}
}

type createSessionRequest struct {
	ContentID string  `json:"contentId" binding:"required"`
	Tempo     float64 `json:"tempo,omitempty"`
}

// CreateSession handles POST /api/v1/playback/sessions. A session pins a
// timeline rendered at the requested tempo; tempo changes mean a new
// session, never a mutated one.
func (h *PlaybackHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content, ok := h.orchestrator.ContentByID(req.ContentID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown content ID"})
		return
	}

	timeline := content.Timeline
	if req.Tempo > 0 && req.Tempo != timeline.Tempo {
		timeline = notation.ToTimeline(content.Fragment, req.Tempo)
	}

	id := uuid.New().String()
	player := audio.NewPlayer(timeline, h.sink)

	h.mu.Lock()
	h.sessions[id] = player
	h.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{
		"sessionId": id,
		"contentId": req.ContentID,
		"tempo":     timeline.Tempo,
		"lengthMs":  timeline.Length.Milliseconds(),
	})
}

func (h *PlaybackHandler) session(c *gin.Context) (*audio.Player, bool) {
	h.mu.Lock()
	player, ok := h.sessions[c.Param("id")]
	h.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown playback session"})
	}
	return player, ok
}

// Start handles POST /api/v1/playback/sessions/:id/start
func (h *PlaybackHandler) Start(c *gin.Context) {
	player, ok := h.session(c)
	if !ok {
		return
	}
	player.Start()
	h.writeState(c, player)
}

// Pause handles POST /api/v1/playback/sessions/:id/pause
func (h *PlaybackHandler) Pause(c *gin.Context) {
	player, ok := h.session(c)
	if !ok {
		return
	}
	player.Pause()
	h.writeState(c, player)
}

// Stop handles POST /api/v1/playback/sessions/:id/stop
func (h *PlaybackHandler) Stop(c *gin.Context) {
	player, ok := h.session(c)
	if !ok {
		return
	}
	player.Stop()
	h.writeState(c, player)
}

type seekRequest struct {
	PositionMs int64 `json:"positionMs"`
}

// Seek handles POST /api/v1/playback/sessions/:id/seek
func (h *PlaybackHandler) Seek(c *gin.Context) {
	player, ok := h.session(c)
	if !ok {
		return
	}

	var req seekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PositionMs < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "positionMs must be >= 0"})
		return
	}

	player.Seek(time.Duration(req.PositionMs) * time.Millisecond)
	h.writeState(c, player)
}

type loopRequest struct {
	Enabled bool `json:"enabled"`
}

// Loop handles POST /api/v1/playback/sessions/:id/loop
func (h *PlaybackHandler) Loop(c *gin.Context) {
	player, ok := h.session(c)
	if !ok {
		return
	}

	var req loopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player.SetLoop(req.Enabled)
	h.writeState(c, player)
}

// DeleteSession handles DELETE /api/v1/playback/sessions/:id
func (h *PlaybackHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")

	h.mu.Lock()
	player, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown playback session"})
		return
	}

	player.Stop()
	c.Status(http.StatusNoContent)
}

func (h *PlaybackHandler) writeState(c *gin.Context, player *audio.Player) {
	c.JSON(http.StatusOK, gin.H{
		"state":      player.State().String(),
		"positionMs": player.Position().Milliseconds(),
	})
}
