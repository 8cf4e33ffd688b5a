package geocoding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"econavix/internal/logging"
	"econavix/internal/models"
)

type googleGeocoder struct {
	client *maps.Client
	logger *zap.Logger
}

// GoogleOptions configures NewGoogleGeocoder
type GoogleOptions struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewGoogleGeocoder creates a provider backed by the Google Maps Geocoding API
func NewGoogleGeocoder(opts GoogleOptions, logger *zap.Logger) (Provider, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(opts.APIKey),
		maps.WithHTTPClient(&http.Client{Timeout: opts.Timeout}),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, maps.WithBaseURL(opts.BaseURL))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google maps client: %w", err)
	}

	return &googleGeocoder{
		client: client,
		logger: logging.OrNop(logger).Named("geocoding"),
	}, nil
}

func (g *googleGeocoder) Geocode(ctx context.Context, address string) (*GeocodingResult, error) {
	g.logger.Debug("google request", zap.String("query", address))
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	return g.first(address, results, err)
}

func (g *googleGeocoder) Reverse(ctx context.Context, coords models.Coordinates) (*GeocodingResult, error) {
	query := fmt.Sprintf("%f,%f", coords.Lat, coords.Lng)
	g.logger.Debug("google reverse request", zap.String("query", query))
	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: coords.Lat, Lng: coords.Lng},
	})
	return g.first(query, results, err)
}

// first maps the client's answer onto the provider contract. ZERO_RESULTS
// comes back as a nil error with an empty slice.
func (g *googleGeocoder) first(query string, results []maps.GeocodingResult, err error) (*GeocodingResult, error) {
	if err != nil {
		g.logger.Error("google geocoding failed", zap.String("query", query), zap.Error(err))
		return nil, &ErrGeocodingFailed{Query: query, Reason: err.Error(), Err: err}
	}
	if len(results) == 0 {
		g.logger.Info("no geocoding results", zap.String("query", query))
		return nil, notFound(query)
	}

	loc := results[0].Geometry.Location
	return &GeocodingResult{
		Coords:      models.Coordinates{Lat: loc.Lat, Lng: loc.Lng},
		DisplayName: results[0].FormattedAddress,
	}, nil
}
