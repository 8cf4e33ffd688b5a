package present

import (
	"fmt"
	"math"

	"econavix/internal/models"
)

// StatsView is one column of the route comparison
type StatsView struct {
	Label     string `json:"label"`
	Distance  string `json:"distance"`
	Time      string `json:"time"`
	Emissions string `json:"emissions"`
}

// BoundsView is a south-west/north-east box in lat/lng order, ready for fitBounds
type BoundsView struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// RouteView is everything the page and the CLI print for a result
type RouteView struct {
	EmissionsSaved       string      `json:"emissions_saved"`
	Original             *StatsView  `json:"original,omitempty"`
	Optimized            *StatsView  `json:"optimized,omitempty"`
	RecommendationSteps  []string    `json:"recommendation_steps,omitempty"`
	RecommendationSource string      `json:"recommendation_source,omitempty"`
	Directions           []string    `json:"directions,omitempty"`
	Points               int         `json:"points"`
	Bounds               *BoundsView `json:"bounds,omitempty"`
}

// NewRouteView builds the display model for a result
func NewRouteView(result *models.RouteResult, useMiles bool) RouteView {
	if result == nil {
		return RouteView{EmissionsSaved: "0.00"}
	}

	view := RouteView{
		EmissionsSaved:       fmt.Sprintf("%.2f", EmissionsSaved(result.Comparison)),
		RecommendationSource: result.RecommendationSource,
		Directions:           result.Directions,
		Points:               len(result.Route),
	}
	if result.Recommendation != "" {
		view.RecommendationSteps = RecommendationSteps(result.Recommendation)
	}
	if c := result.Comparison; c != nil {
		view.Original = newStatsView("Original Route", c.Original, useMiles)
		view.Optimized = newStatsView("Optimized Route", c.Optimized, useMiles)
	}
	if b, ok := Bounds(result.Route); ok {
		view.Bounds = &BoundsView{
			South: b.Min.Lat(),
			West:  b.Min.Lon(),
			North: b.Max.Lat(),
			East:  b.Max.Lon(),
		}
	}
	return view
}

func newStatsView(label string, s *models.RouteStats, useMiles bool) *StatsView {
	if s == nil {
		return &StatsView{Label: label, Distance: "N/A", Time: FormatDuration(math.NaN()), Emissions: "N/A"}
	}
	return &StatsView{
		Label:     label,
		Distance:  FormatDistance(s.DistanceKm, useMiles),
		Time:      FormatDuration(s.DurationMinutes),
		Emissions: fmt.Sprintf("%.2f kg CO₂", s.CarbonEmissionsKg),
	}
}
