package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dialogue-platform/internal/appointment"
	"dialogue-platform/internal/audit"
	"dialogue-platform/internal/auth"
	"dialogue-platform/internal/compose"
	"dialogue-platform/internal/dialog"
	"dialogue-platform/internal/pipeline"
	"dialogue-platform/pkg/logger"
	"dialogue-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth         *auth.Manager
	Pipeline     *pipeline.TurnPipeline
	Appointments *appointment.Service
	Audit        *audit.Service
	Greeter      *compose.Catalog

	// Redis enables the global active-session cap; nil disables it.
	Redis             *redis.Client
	MaxActiveSessions int
}

const (
	headerSessionID = "X-Session-ID"

	sessionCapKey = "dialogue:sessions:active"
	sessionCapTTL = time.Hour
)

// --- Auth ---

type loginRequest struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
	Role        string `json:"role"`
}

// Login issues a JWT token pair for the operator surface.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.WorkspaceID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, workspace_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.WorkspaceID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Sessions ---

type createSessionConfig struct {
	SessionID     string   `json:"session_id"`
	RequiredSlots []string `json:"required_slots"`
}

// CreateSession opens a dialogue session. The id comes from the
// X-Session-ID header or the body; a fresh one is generated otherwise.
func (h Handlers) CreateSession(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := ValidateSessionConfig(raw); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var cfg createSessionConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	sessionID := c.GetHeader(headerSessionID)
	if sessionID == "" {
		sessionID = cfg.SessionID
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	required := dialog.DefaultRequiredSlots()
	if len(cfg.RequiredSlots) > 0 {
		required = make([]dialog.Slot, len(cfg.RequiredSlots))
		for i, s := range cfg.RequiredSlots {
			required[i] = dialog.Slot(s)
		}
	}

	if h.Redis != nil && h.MaxActiveSessions > 0 {
		ok, err := utils.AcquireConcurrencyCap(c.Request.Context(), h.Redis, sessionCapKey, h.MaxActiveSessions, sessionCapTTL)
		if err != nil {
			logger.FromGin(c).Error("session cap check failed", "error", err)
		} else if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many active sessions"})
			return
		}
	}

	if err := h.Pipeline.CreateSession(sessionID, required); err != nil {
		h.releaseSessionCap(c)
		if errors.Is(err, dialog.ErrSessionExists) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "session already exists"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session creation failed"})
		return
	}

	h.auditSessionCreated(c, sessionID)

	resp := gin.H{
		"session_id":     sessionID,
		"required_slots": required,
	}
	if h.Greeter != nil {
		resp["greeting"] = h.Greeter.Greeting()
	}
	if first, err := h.Pipeline.FirstPrompt(c.Request.Context(), sessionID); err == nil && first.Valid {
		resp["first_question"] = first.Text
	}
	c.Header(headerSessionID, sessionID)
	c.JSON(http.StatusCreated, resp)
}

type turnRequest struct {
	Utterance string `json:"utterance"`
}

// RunTurn processes one utterance for a session.
func (h Handlers) RunTurn(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Utterance == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "utterance required"})
		return
	}

	result, err := h.Pipeline.RunTurn(c.Request.Context(), sessionID, req.Utterance)
	if err != nil {
		switch {
		case errors.Is(err, dialog.ErrSessionNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, dialog.ErrTurnInProgress):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "turn already in progress"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "turn failed"})
		}
		return
	}

	if result.AppointmentID != "" && h.Audit != nil {
		if err := h.Audit.LogAppointmentStored(c.Request.Context(), "public", sessionID, result.AppointmentID); err != nil {
			logger.FromGin(c).Error("audit append failed", "error", err)
		}
	}

	c.JSON(http.StatusOK, result)
}

// GetSession returns the session's current snapshot.
func (h Handlers) GetSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	known, missing, err := h.Pipeline.StateSnapshot(sessionID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"known":      known,
		"missing":    missing,
		"complete":   len(missing) == 0,
	})
}

// ResetSession clears a session's collected values so the conversation
// can start over without re-creating the session.
func (h Handlers) ResetSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	missing, err := h.Pipeline.ResetSession(sessionID)
	if err != nil {
		switch {
		case errors.Is(err, dialog.ErrSessionNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, dialog.ErrTurnInProgress):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "turn already in progress"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reset failed"})
		}
		return
	}

	resp := gin.H{
		"session_id": sessionID,
		"missing":    missing,
	}
	if first, err := h.Pipeline.FirstPrompt(c.Request.Context(), sessionID); err == nil && first.Valid {
		resp["first_question"] = first.Text
	}
	c.JSON(http.StatusOK, resp)
}

// EndSession releases a session and returns the final collected values.
func (h Handlers) EndSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	final, err := h.Pipeline.EndSession(sessionID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	h.releaseSessionCap(c)
	h.auditSessionEnded(c, sessionID, final)

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"final":      final,
	})
}

// --- Operator surface ---

// ListAppointments returns stored bookings, optionally filtered by day.
func (h Handlers) ListAppointments(c *gin.Context) {
	if h.Appointments == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "appointments not configured"})
		return
	}

	var (
		recs []appointment.Record
		err  error
	)
	day := c.Query("day")
	if day != "" {
		recs, err = h.Appointments.ListByDay(c.Request.Context(), day)
	} else {
		recs, err = h.Appointments.List(c.Request.Context())
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "appointment lookup failed"})
		return
	}

	h.auditAdminAction(c, "listed appointments", day)
	c.JSON(http.StatusOK, gin.H{"appointments": recs, "count": len(recs)})
}

// AppointmentStats aggregates bookings per service.
func (h Handlers) AppointmentStats(c *gin.Context) {
	if h.Appointments == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "appointments not configured"})
		return
	}
	counts, err := h.Appointments.ServiceCounts(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "stats lookup failed"})
		return
	}

	h.auditAdminAction(c, "viewed appointment stats", "")
	c.JSON(http.StatusOK, gin.H{"service_counts": counts})
}

// SystemStatus reports pipeline load and pool sizing.
func (h Handlers) SystemStatus(c *gin.Context) {
	workers, activeTurns, activeSessions := h.Pipeline.Status()

	h.auditAdminAction(c, "viewed system status", "")
	c.JSON(http.StatusOK, gin.H{
		"workers":          workers,
		"active_turns":     activeTurns,
		"active_sessions":  activeSessions,
		"last_turn_timing": h.Pipeline.LastTiming(),
	})
}

func (h Handlers) releaseSessionCap(c *gin.Context) {
	if h.Redis == nil || h.MaxActiveSessions <= 0 {
		return
	}
	if err := utils.ReleaseConcurrencyCap(c.Request.Context(), h.Redis, sessionCapKey); err != nil {
		logger.FromGin(c).Error("session cap release failed", "error", err)
	}
}

func (h Handlers) auditSessionCreated(c *gin.Context, sessionID string) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.LogSessionCreated(c.Request.Context(), "public", sessionID, c.ClientIP()); err != nil {
		logger.FromGin(c).Error("audit append failed", "error", err)
	}
}

func (h Handlers) auditAdminAction(c *gin.Context, message, metadata string) {
	if h.Audit == nil {
		return
	}
	ctx := c.Request.Context()
	uid, _ := auth.UserID(ctx)
	role, _ := auth.Role(ctx)
	wid, err := auth.WorkspaceID(ctx)
	if err != nil {
		wid = "public"
	}
	if err := h.Audit.LogAdminAction(ctx, wid, uid, role, c.ClientIP(), message, metadata); err != nil {
		logger.FromGin(c).Error("audit append failed", "error", err)
	}
}

func (h Handlers) auditSessionEnded(c *gin.Context, sessionID string, final map[dialog.Slot]string) {
	if h.Audit == nil {
		return
	}
	meta, _ := json.Marshal(final)
	if err := h.Audit.LogSessionEnded(c.Request.Context(), "public", sessionID, string(meta)); err != nil {
		logger.FromGin(c).Error("audit append failed", "error", err)
	}
}
