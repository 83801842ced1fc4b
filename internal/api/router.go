package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Mazussy/Sleep-Tracker/internal/auth"
)

// RegisterRoutes wires all handlers onto the engine. Everything under
// /api except register/login requires a valid token.
func RegisterRoutes(r *gin.Engine, app App) {
	r.Use(RequestIDMiddleware())

	r.POST("/api/auth/register", PostRegister(app))
	r.POST("/api/auth/login", PostLogin(app))

	protected := r.Group("/api")
	protected.Use(auth.Middleware(app.JWTSecret(), app.Users()))

	protected.POST("/sessions/start", PostStartSession(app))
	protected.POST("/sessions/end", PostEndSession(app))
	protected.POST("/sessions", PostManualSession(app))
	protected.POST("/sessions/:id/quality", PostQuality(app))
	protected.POST("/sessions/:id/factors", PostFactors(app))
	protected.GET("/sessions", GetHistory(app))
	protected.GET("/sessions/last", GetLastSession(app))

	protected.GET("/stats/summary", GetSummary(app))
	protected.GET("/stats", GetStats(app))
	protected.GET("/stats/series", GetSeries(app))
	protected.GET("/stats/factor-effect", GetFactorEffect(app))
}
