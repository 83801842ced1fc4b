package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Mazussy/Sleep-Tracker/internal/auth"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func PostRegister(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), bindError(err), "Invalid JSON")
			return
		}

		user, err := app.Auth().Register(c.Request.Context(), req.Username, req.Password, req.Name, req.Email)
		if err != nil {
			HandleError(c, app.Logger(), err, "Registration failed")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusCreated, user, nil)
	}
}

func PostLogin(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), bindError(err), "Invalid JSON")
			return
		}

		user, err := app.Auth().Authenticate(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			HandleError(c, app.Logger(), err, "Login failed")
			return
		}

		ttl := time.Duration(app.TokenTTLHours()) * time.Hour
		token, err := auth.IssueToken(app.JWTSecret(), user.ID, ttl)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to issue token")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusOK, user, map[string]any{"token": token})
	}
}
