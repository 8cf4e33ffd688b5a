package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"econavix/internal/logging"
	"econavix/internal/models"
)

// DefaultNominatimURL is the public OpenStreetMap instance. Its usage policy
// allows one request per second.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

type nominatimGeocoder struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *time.Ticker
	logger      *zap.Logger
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// NominatimOptions configures NewNominatimGeocoder
type NominatimOptions struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit time.Duration
}

// NewNominatimGeocoder creates a keyless OpenStreetMap provider with rate limiting
func NewNominatimGeocoder(opts NominatimOptions, logger *zap.Logger) Provider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultNominatimURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = time.Second
	}
	return &nominatimGeocoder{
		baseURL:     opts.BaseURL,
		httpClient:  &http.Client{Timeout: opts.Timeout},
		rateLimiter: time.NewTicker(opts.RateLimit),
		logger:      logging.OrNop(logger).Named("geocoding"),
	}
}

func (g *nominatimGeocoder) Geocode(ctx context.Context, address string) (*GeocodingResult, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")

	var places []nominatimPlace
	if err := g.get(ctx, address, "/search?"+params.Encode(), &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		g.logger.Info("no geocoding results", zap.String("query", address))
		return nil, notFound(address)
	}
	return g.toResult(address, places[0])
}

// Reverse answers with {"error":"Unable to geocode"} rather than an empty
// list when nothing is near the point.
func (g *nominatimGeocoder) Reverse(ctx context.Context, coords models.Coordinates) (*GeocodingResult, error) {
	query := fmt.Sprintf("%f,%f", coords.Lat, coords.Lng)
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coords.Lng, 'f', -1, 64))
	params.Set("format", "json")

	var place nominatimPlace
	if err := g.get(ctx, query, "/reverse?"+params.Encode(), &place); err != nil {
		return nil, err
	}
	if place.Error != "" || place.DisplayName == "" {
		g.logger.Info("no reverse geocoding result", zap.String("query", query), zap.String("error", place.Error))
		return nil, notFound(query)
	}
	return g.toResult(query, place)
}

func (g *nominatimGeocoder) get(ctx context.Context, query, pathAndQuery string, out any) error {
	select {
	case <-g.rateLimiter.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	g.logger.Debug("request", zap.String("query", query), zap.String("path", pathAndQuery))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+pathAndQuery, nil)
	if err != nil {
		return &ErrGeocodingFailed{Query: query, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", "EcoNavix/1.0")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("geocoding API request failed", zap.String("query", query), zap.Error(err))
		return &ErrGeocodingFailed{Query: query, Reason: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		g.logger.Error("geocoding API error",
			zap.String("query", query),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return &ErrGeocodingFailed{
			Query:  query,
			Reason: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		g.logger.Error("failed to decode geocoding response", zap.String("query", query), zap.Error(err))
		return &ErrGeocodingFailed{Query: query, Reason: err.Error()}
	}
	return nil
}

func (g *nominatimGeocoder) toResult(query string, place nominatimPlace) (*GeocodingResult, error) {
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, &ErrGeocodingFailed{Query: query, Reason: "invalid latitude"}
	}
	lng, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, &ErrGeocodingFailed{Query: query, Reason: "invalid longitude"}
	}

	g.logger.Debug("response",
		zap.String("query", query),
		zap.Float64("lat", lat),
		zap.Float64("lng", lng),
		zap.String("display_name", place.DisplayName),
	)
	return &GeocodingResult{
		Coords:      models.Coordinates{Lat: lat, Lng: lng},
		DisplayName: place.DisplayName,
	}, nil
}
