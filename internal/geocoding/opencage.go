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

// DefaultOpenCageURL is the public OpenCage endpoint
const DefaultOpenCageURL = "https://api.opencagedata.com"

type openCageGeocoder struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *time.Ticker
	logger      *zap.Logger
}

type openCageResponse struct {
	Results []openCageResult `json:"results"`
	Status  struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

type openCageResult struct {
	Formatted string `json:"formatted"`
	Geometry  struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"geometry"`
}

// OpenCageOptions configures NewOpenCageGeocoder
type OpenCageOptions struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit time.Duration
}

// NewOpenCageGeocoder creates an OpenCage provider with rate limiting
func NewOpenCageGeocoder(opts OpenCageOptions, logger *zap.Logger) Provider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenCageURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = time.Second
	}
	return &openCageGeocoder{
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		rateLimiter: time.NewTicker(opts.RateLimit),
		logger:      logging.OrNop(logger).Named("geocoding"),
	}
}

func (g *openCageGeocoder) Geocode(ctx context.Context, address string) (*GeocodingResult, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("key", g.apiKey)
	params.Set("limit", "1")
	params.Set("no_annotations", "1")

	return g.lookup(ctx, address, params.Encode())
}

// Reverse sends q as "lat+lon"; the literal '+' decodes to the space OpenCage expects
func (g *openCageGeocoder) Reverse(ctx context.Context, coords models.Coordinates) (*GeocodingResult, error) {
	lat := strconv.FormatFloat(coords.Lat, 'f', -1, 64)
	lng := strconv.FormatFloat(coords.Lng, 'f', -1, 64)
	query := lat + "+" + lng

	rawQuery := fmt.Sprintf("q=%s&key=%s&limit=1&no_annotations=1", query, url.QueryEscape(g.apiKey))
	return g.lookup(ctx, query, rawQuery)
}

func (g *openCageGeocoder) lookup(ctx context.Context, query, rawQuery string) (*GeocodingResult, error) {
	select {
	case <-g.rateLimiter.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	queryURL := fmt.Sprintf("%s/geocode/v1/json?%s", g.baseURL, rawQuery)
	g.logger.Debug("request", zap.String("query", query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		g.logger.Error("failed to create geocoding request", zap.String("query", query), zap.Error(err))
		return nil, &ErrGeocodingFailed{Query: query, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", "EcoNavix/1.0")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("geocoding API request failed", zap.String("query", query), zap.Error(err))
		return nil, &ErrGeocodingFailed{Query: query, Reason: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		g.logger.Error("geocoding API error",
			zap.String("query", query),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, &ErrGeocodingFailed{
			Query:  query,
			Reason: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var payload openCageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		g.logger.Error("failed to decode geocoding response", zap.String("query", query), zap.Error(err))
		return nil, &ErrGeocodingFailed{Query: query, Reason: err.Error()}
	}

	if len(payload.Results) == 0 {
		g.logger.Info("no geocoding results", zap.String("query", query))
		return nil, notFound(query)
	}

	first := payload.Results[0]
	result := &GeocodingResult{
		Coords:      models.Coordinates{Lat: first.Geometry.Lat, Lng: first.Geometry.Lng},
		DisplayName: first.Formatted,
	}
	g.logger.Debug("response",
		zap.String("query", query),
		zap.Float64("lat", result.Coords.Lat),
		zap.Float64("lng", result.Coords.Lng),
		zap.String("formatted", result.DisplayName),
	)
	return result, nil
}
