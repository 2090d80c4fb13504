package http

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/tankwatch/internal/domain"
)

const searchTimeout = 10 * time.Second

func (s *Server) handleListTanks(c *gin.Context) {
	var only *domain.Status
	if raw := c.Query("status"); raw != "" {
		st, ok := domain.ParseStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be GREEN, YELLOW or RED"})
			return
		}
		only = &st
	}

	state := s.deps.Dashboard.State()
	c.JSON(http.StatusOK, gin.H{
		"tanks":      domain.SortedDevices(state.Devices, only),
		"weather":    state.Weather,
		"updated_at": state.UpdatedAt,
	})
}

func (s *Server) handleGetTank(c *gin.Context) {
	d, err := s.deps.Dashboard.Device(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) handleGetPrediction(c *gin.Context) {
	id := c.Param("id")
	p, err := s.deps.Forecaster.Prediction(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "prediction": p})
}

func (s *Server) handleListPredictions(c *gin.Context) {
	predictions, weather := s.deps.Forecaster.Predictions()
	c.JSON(http.StatusOK, gin.H{
		"rain":        weather.Rain,
		"predictions": predictions,
	})
}

func (s *Server) handleListAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": s.deps.Dashboard.Alerts()})
}

func (s *Server) handleDismissAlert(c *gin.Context) {
	if !s.deps.Dashboard.DismissAlert(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Dashboard.Summary())
}

func (s *Server) handleSearch(c *gin.Context) {
	if s.deps.Geocoder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "location search is disabled"})
		return
	}

	radius := s.deps.SearchRadiusKm
	if raw := c.Query("radius_km"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r < 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius_km must be a non-negative number"})
			return
		}
		radius = r
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), searchTimeout)
	defer cancel()

	res, err := domain.SearchNearby(ctx, s.deps.Geocoder, c.Query("q"), s.deps.Dashboard.State().Devices, radius, s.logger)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// writeError maps domain errors onto status codes. Anything unrecognized is
// an upstream failure.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownDevice):
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrUnknownDevice.Error()})
	case errors.Is(err, domain.ErrNoMatch):
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrNoMatch.Error()})
	case errors.Is(err, domain.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream request failed"})
	}
}
