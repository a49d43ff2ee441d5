package main

import (
	"dialogue-platform/internal/auth"
	"dialogue-platform/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		workers, activeTurns, activeSessions := h.Pipeline.Status()
		c.JSON(200, gin.H{
			"status":          "ok",
			"workers":         workers,
			"active_turns":    activeTurns,
			"active_sessions": activeSessions,
		})
	})

	v1 := r.Group("/v1")

	// AUTH routes (token issuance for the operator surface).
	// NOTE: This is a placeholder login route; real credential validation is not implemented.
	v1.POST("/auth/login", h.Login)

	// SESSION routes (public dialogue surface).
	// Callers are anonymous; abuse control is the Redis session cap.
	sessions := v1.Group("/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.POST("/:session_id/turns", h.RunTurn)
		sessions.GET("/:session_id", h.GetSession)
		sessions.POST("/:session_id/reset", h.ResetSession)
		sessions.POST("/:session_id/end", h.EndSession)
	}

	// ADMIN routes (operator surface, token required).
	admin := v1.Group("/admin")
	admin.Use(authMW)
	{
		admin.GET("/appointments", h.ListAppointments)
		admin.GET("/appointments/stats", h.AppointmentStats)
		admin.GET("/status", h.SystemStatus)

		// Identity echo, useful when debugging operator tokens.
		admin.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			wid, _ := auth.WorkspaceID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"user_id": uid, "workspace_id": wid, "role": role})
		})
	}
}
