package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econavix/internal/present"
	"econavix/internal/testutil"
)

func TestPrintView(t *testing.T) {
	result := testutil.SampleRoute()
	result.Directions = []string{" Head north on 17th St ", "Merge onto I-95 N"}

	var out bytes.Buffer
	printView(&out, present.NewRouteView(result, true))

	text := out.String()
	assert.Contains(t, text, "Emissions reduced: 10.00 kg CO₂")
	assert.Contains(t, text, "Original Route\n  Distance:  229.91 miles")
	assert.Contains(t, text, "Optimized Route")
	assert.Contains(t, text, "  Time:      3 hr 45 min")
	assert.Contains(t, text, "Recommendation (backend)\n  1. Take I-95 north\n  2. Keep a steady speed")
	assert.Contains(t, text, "Directions\n  1. Head north on 17th St\n  2. Merge onto I-95 N")
}

func TestPrintView_NoComparison(t *testing.T) {
	result := testutil.SampleRoute()
	result.Comparison = nil
	result.Recommendation = ""

	var out bytes.Buffer
	printView(&out, present.NewRouteView(result, false))

	assert.Equal(t, "Emissions reduced: 0.00 kg CO₂\n\n", out.String())
}

func clearEnv(t *testing.T) {
	t.Setenv("ECONAVIX_CONFIG", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("ECONAVIX_LOG_LEVEL", "error")
}

func TestRun_InvalidAddresses(t *testing.T) {
	clearEnv(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"-from", "abc", "-to", "350 5th Ave, New York, NY 10118"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Please enter complete addresses for both origin and destination")
}

func TestRun_BadFlag(t *testing.T) {
	clearEnv(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"-nope"}, &stdout, &stderr)

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "flag provided but not defined")
}

func TestRun_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"-config", "does-not-exist.yaml"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "does-not-exist.yaml")
}

func TestPrintView_JSONShape(t *testing.T) {
	b, err := json.Marshal(present.NewRouteView(testutil.SampleRoute(), true))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"emissions_saved":"10.00"`)
}
