package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Mazussy/Sleep-Tracker/internal/service"
)

func PostStartSession(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		sess, err := service.StartSession(c.Request.Context(), app.Sessions(), user.ID, time.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to start session")
			return
		}
		app.Logger().Infof("session %d started for user %d", sess.ID, user.ID)

		HandleSuccess(c, app.Logger(), http.StatusCreated, sess, nil)
	}
}

func PostEndSession(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		ended, err := service.EndSession(c.Request.Context(), app.Sessions(), user.ID, time.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to end session")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusOK, ended, nil)
	}
}

func PostManualSession(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var body service.ManualSessionInput
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), bindError(err), "Invalid JSON")
			return
		}

		sess, err := service.RecordManualSession(c.Request.Context(), app.Sessions(), user.ID, &body)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to save record")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusCreated, sess, nil)
	}
}

func sessionIDParam(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func PostQuality(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := sessionIDParam(c)
		if err != nil {
			HandleError(c, app.Logger(), bindError(err), "Invalid session id")
			return
		}

		var body service.QualityInput
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), bindError(err), "Invalid JSON")
			return
		}

		q, err := service.AttachQuality(c.Request.Context(), app.Sessions(), id, &body)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to attach quality")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusCreated, q, nil)
	}
}

func PostFactors(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := sessionIDParam(c)
		if err != nil {
			HandleError(c, app.Logger(), bindError(err), "Invalid session id")
			return
		}

		var body service.FactorsInput
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), bindError(err), "Invalid JSON")
			return
		}

		f, err := service.AttachFactors(c.Request.Context(), app.Sessions(), id, &body)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to attach factors")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusCreated, f, nil)
	}
}

func GetHistory(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		entries, err := service.ListHistory(c.Request.Context(), app.Sessions(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to fetch history")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusOK, entries, nil)
	}
}

func GetLastSession(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		sess, err := service.GetLastSession(c.Request.Context(), app.Sessions(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to fetch last session")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusOK, sess, nil)
	}
}
