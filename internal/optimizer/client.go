package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"econavix/internal/logging"
	"econavix/internal/models"
)

// DefaultURL is the endpoint of a locally running optimizer backend
const DefaultURL = "http://localhost:5050/get_route_recommendation"

// ErrRouteTooShort is returned when the backend answers with fewer than two route points
var ErrRouteTooShort = errors.New("route has fewer than 2 points")

// RouteOptimizer requests an eco-optimized route between two coordinates
type RouteOptimizer interface {
	Recommend(ctx context.Context, origin, dest models.Coordinates) (*models.RouteResult, error)
}

// ErrOptimizerFailed is returned when the backend call fails. Message holds
// the backend's own error text when it sent one.
type ErrOptimizerFailed struct {
	StatusCode int
	Message    string
	Reason     string
	Err        error
}

func (e *ErrOptimizerFailed) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("route optimizer failed: %s", e.Message)
	}
	return fmt.Sprintf("route optimizer failed: %s", e.Reason)
}

func (e *ErrOptimizerFailed) Unwrap() error {
	return e.Err
}

type routeRequest struct {
	OriginCoords      [2]float64            `json:"origin_coords"`
	DestinationCoords [2]float64            `json:"destination_coords"`
	Vehicle           models.VehicleProfile `json:"vehicle"`
}

type routeResponse struct {
	Route          [][]float64        `json:"route"`
	Comparison     *models.Comparison `json:"comparison"`
	Recommendation string             `json:"recommendation"`
	Directions     []string           `json:"directions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type httpOptimizer struct {
	url        string
	vehicle    models.VehicleProfile
	httpClient *http.Client
	logger     *zap.Logger
}

// Options configures NewHTTPOptimizer
type Options struct {
	URL     string
	Vehicle models.VehicleProfile
	Timeout time.Duration
}

// NewHTTPOptimizer creates a client for the optimizer backend
func NewHTTPOptimizer(opts Options, logger *zap.Logger) RouteOptimizer {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Vehicle == (models.VehicleProfile{}) {
		opts.Vehicle = models.DefaultVehicle
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &httpOptimizer{
		url:     opts.URL,
		vehicle: opts.Vehicle,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger: logging.OrNop(logger).Named("optimizer"),
	}
}

func (c *httpOptimizer) Recommend(ctx context.Context, origin, dest models.Coordinates) (*models.RouteResult, error) {
	body, err := json.Marshal(routeRequest{
		OriginCoords:      origin.Pair(),
		DestinationCoords: dest.Pair(),
		Vehicle:           c.vehicle,
	})
	if err != nil {
		return nil, &ErrOptimizerFailed{Reason: err.Error(), Err: err}
	}

	fields := []zap.Field{
		zap.Float64("origin_lat", origin.Lat), zap.Float64("origin_lng", origin.Lng),
		zap.Float64("dest_lat", dest.Lat), zap.Float64("dest_lng", dest.Lng),
	}
	c.logger.Info("route request", fields...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("failed to create optimizer request", zap.Error(err))
		return nil, &ErrOptimizerFailed{Reason: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("optimizer request failed", append(fields, zap.Error(err))...)
		return nil, &ErrOptimizerFailed{Reason: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("failed to read optimizer response", zap.Error(err))
		return nil, &ErrOptimizerFailed{StatusCode: resp.StatusCode, Reason: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload errorResponse
		_ = json.Unmarshal(raw, &payload)
		c.logger.Error("optimizer error response",
			zap.Int("status", resp.StatusCode),
			zap.String("error", payload.Error),
			zap.ByteString("body", raw),
		)
		return nil, &ErrOptimizerFailed{
			StatusCode: resp.StatusCode,
			Message:    payload.Error,
			Reason:     fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(raw)),
		}
	}

	var payload routeResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.logger.Error("failed to decode optimizer response", zap.Error(err))
		return nil, &ErrOptimizerFailed{StatusCode: resp.StatusCode, Reason: err.Error(), Err: err}
	}

	route, err := decodeRoute(payload.Route)
	if err != nil {
		c.logger.Error("malformed route in optimizer response", zap.Error(err))
		return nil, &ErrOptimizerFailed{StatusCode: resp.StatusCode, Reason: err.Error(), Err: err}
	}

	result := &models.RouteResult{
		Route:          route,
		Comparison:     payload.Comparison,
		Recommendation: payload.Recommendation,
		Directions:     payload.Directions,
	}
	if result.Recommendation != "" {
		result.RecommendationSource = models.RecommendationFromBackend
	}

	c.logger.Info("route response",
		zap.Int("points", len(route)),
		zap.Bool("comparison", payload.Comparison != nil),
		zap.Int("directions", len(payload.Directions)),
	)
	return result, nil
}

func decodeRoute(points [][]float64) ([]models.Coordinates, error) {
	if len(points) < 2 {
		return nil, ErrRouteTooShort
	}

	route := make([]models.Coordinates, 0, len(points))
	for i, p := range points {
		if len(p) != 2 {
			return nil, fmt.Errorf("route point %d has %d values, want 2", i, len(p))
		}
		c := models.Coordinates{Lat: p[0], Lng: p[1]}
		if !c.Valid() {
			return nil, fmt.Errorf("route point %d is not a valid coordinate", i)
		}
		route = append(route, c)
	}
	return route, nil
}
