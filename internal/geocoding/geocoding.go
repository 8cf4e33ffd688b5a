package geocoding

import (
	"context"
	"errors"
	"fmt"

	"econavix/internal/models"
)

// Placeholder addresses returned by ReverseGeocode instead of an error
const (
	InvalidLocation = "Invalid location"
	ErrorLocation   = "Error getting location"
	UnknownLocation = "Unknown location"
)

// ErrAddressNotFound matches geocoding failures where the provider answered
// but had no results for the query
var ErrAddressNotFound = errors.New("address not found")

// GeocodingResult contains the result of a geocoding operation
type GeocodingResult struct {
	Coords      models.Coordinates `json:"coords"`
	DisplayName string             `json:"display_name"`
}

// Provider is a geocoding backend. Both methods return *ErrGeocodingFailed on failure.
type Provider interface {
	Geocode(ctx context.Context, address string) (*GeocodingResult, error)
	Reverse(ctx context.Context, coords models.Coordinates) (*GeocodingResult, error)
}

// ErrGeocodingFailed is returned when an address or coordinate cannot be geocoded
type ErrGeocodingFailed struct {
	Query    string
	Reason   string
	NotFound bool
	// Err is the transport failure, if any, so callers can see context cancellation
	Err error
}

func (e *ErrGeocodingFailed) Error() string {
	return fmt.Sprintf("geocoding failed for query: %s - %s", e.Query, e.Reason)
}

func (e *ErrGeocodingFailed) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrAddressNotFound) distinguish empty results from provider errors
func (e *ErrGeocodingFailed) Is(target error) bool {
	return target == ErrAddressNotFound && e.NotFound
}

func notFound(query string) *ErrGeocodingFailed {
	return &ErrGeocodingFailed{Query: query, Reason: "no results found", NotFound: true}
}
