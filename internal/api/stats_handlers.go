package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Mazussy/Sleep-Tracker/internal/service"
)

func GetSummary(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		summary, err := service.DashboardSummary(c.Request.Context(), app.Sessions(), user.ID, time.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to compute summary")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusOK, summary, nil)
	}
}

func GetStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		window, err := service.ParseWindow(c.Query("window"))
		if err != nil {
			HandleError(c, app.Logger(), err, "Invalid window")
			return
		}

		ctx := c.Request.Context()
		now := time.Now()
		meta := map[string]any{}

		if avg, ok, err := service.AverageDuration(ctx, app.Sessions(), user.ID, window, now); err != nil {
			HandleError(c, app.Logger(), err, "Failed to compute stats")
			return
		} else if ok {
			meta["avg_duration_hours"] = avg
		}

		if avg, ok, err := service.AverageQuality(ctx, app.Sessions(), user.ID, window, now); err != nil {
			HandleError(c, app.Logger(), err, "Failed to compute stats")
			return
		} else if ok {
			meta["avg_quality"] = avg
		}

		if r, ok, err := service.Correlation(ctx, app.Sessions(), user.ID, window, now); err != nil {
			HandleError(c, app.Logger(), err, "Failed to compute stats")
			return
		} else if ok {
			meta["duration_quality_correlation"] = r
		}

		HandleSuccess(c, app.Logger(), http.StatusOK, nil, meta)
	}
}

func GetSeries(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		window, err := service.ParseWindow(c.Query("window"))
		if err != nil {
			HandleError(c, app.Logger(), err, "Invalid window")
			return
		}

		points, err := service.TimeSeries(c.Request.Context(), app.Sessions(), user.ID, window, time.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to build series")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusOK, points, nil)
	}
}

func GetFactorEffect(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		window, err := service.ParseWindow(c.Query("window"))
		if err != nil {
			HandleError(c, app.Logger(), err, "Invalid window")
			return
		}

		effect, err := service.ComputeFactorEffect(c.Request.Context(), app.Sessions(), user.ID, window, c.Query("factor"), time.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, "Failed to compute factor effect")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusOK, effect, nil)
	}
}
