package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinatesValid(t *testing.T) {
	tests := []struct {
		name   string
		coords Coordinates
		want   bool
	}{
		{"washington", Coordinates{Lat: 38.8977, Lng: -77.0365}, true},
		{"null island", Coordinates{Lat: 0, Lng: 0}, true},
		{"poles and antimeridian", Coordinates{Lat: -90, Lng: 180}, true},
		{"lat out of range", Coordinates{Lat: 91, Lng: 0}, false},
		{"lng out of range", Coordinates{Lat: 0, Lng: -180.5}, false},
		{"nan", Coordinates{Lat: math.NaN(), Lng: 10}, false},
		{"inf", Coordinates{Lat: 10, Lng: math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.coords.Valid())
		})
	}
}

func TestCoordinatesPair(t *testing.T) {
	c := Coordinates{Lat: 40.7128, Lng: -74.0060}
	assert.Equal(t, [2]float64{40.7128, -74.0060}, c.Pair())
}

func TestRoundCoordinate(t *testing.T) {
	assert.Equal(t, 38.8977, RoundCoordinate(38.897701))
	assert.Equal(t, -77.03654, RoundCoordinate(-77.036541))
}

func TestRouteResultDrawable(t *testing.T) {
	var nilResult *RouteResult
	assert.False(t, nilResult.Drawable())

	single := &RouteResult{Route: []Coordinates{{Lat: 1, Lng: 1}}}
	assert.False(t, single.Drawable())

	line := &RouteResult{Route: []Coordinates{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}, {Lat: 3, Lng: 3}}}
	assert.True(t, line.Drawable())
	assert.Equal(t, Coordinates{Lat: 1, Lng: 1}, line.Start())
	assert.Equal(t, Coordinates{Lat: 3, Lng: 3}, line.End())
}

func TestThemeToggle(t *testing.T) {
	assert.Equal(t, ThemeDark, ThemeLight.Toggle())
	assert.Equal(t, ThemeLight, ThemeDark.Toggle())
	assert.Equal(t, ThemeDark, Theme("").Toggle())

	assert.True(t, ThemeLight.Valid())
	assert.True(t, ThemeDark.Valid())
	assert.False(t, Theme("sepia").Valid())
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, ThemeLight, s.Theme)
	assert.True(t, s.UseMiles)
}

func TestDefaultVehicle(t *testing.T) {
	assert.Equal(t, "gasoline_vehicle", DefaultVehicle.Type)
	assert.Equal(t, "toyota_camry", DefaultVehicle.Model)
	assert.Equal(t, 15.0, DefaultVehicle.Efficiency)
	assert.Equal(t, "gasoline", DefaultVehicle.FuelType)
}
