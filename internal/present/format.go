package present

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"econavix/internal/models"
)

// MilesPerKm converts kilometers to miles
const MilesPerKm = 0.621371

var stepMarker = regexp.MustCompile(`\d+\.\s`)

// FormatDuration renders minutes as "H hr M min" or "M min"; NaN renders as "N/A"
func FormatDuration(minutes float64) string {
	if math.IsNaN(minutes) {
		return "N/A"
	}
	hours := math.Floor(minutes / 60)
	if hours > 0 {
		return fmt.Sprintf("%d hr %d min", int(hours), int(math.Round(math.Mod(minutes, 60))))
	}
	return fmt.Sprintf("%d min", int(math.Round(minutes)))
}

// KmToMiles rounds km to two decimals, converts, and formats with two decimals
func KmToMiles(km float64) string {
	rounded := math.Round(km*100) / 100
	return fmt.Sprintf("%.2f", rounded*MilesPerKm)
}

// FormatDistance renders a distance in the preferred unit
func FormatDistance(km float64, useMiles bool) string {
	if useMiles {
		return KmToMiles(km) + " miles"
	}
	return fmt.Sprintf("%.2f km", km)
}

// EmissionsSaved is original minus optimized carbon, or 0 when the optimized
// figure is missing or zero
func EmissionsSaved(c *models.Comparison) float64 {
	if c == nil || c.Original == nil || c.Optimized == nil || c.Optimized.CarbonEmissionsKg == 0 {
		return 0
	}
	return c.Original.CarbonEmissionsKg - c.Optimized.CarbonEmissionsKg
}

// RecommendationSteps splits "1. foo 2. bar" style text into renumbered steps
func RecommendationSteps(text string) []string {
	parts := stepMarker.Split(text, -1)
	steps := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		steps = append(steps, fmt.Sprintf("%d. %s", len(steps)+1, part))
	}
	return steps
}
