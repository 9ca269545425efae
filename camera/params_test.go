package camera_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stremer/stremerd/camera"
)

func TestParseLens(t *testing.T) {
	lens, err := camera.ParseLens("front")
	require.NoError(t, err)
	assert.Equal(t, camera.LensFront, lens)

	lens, err = camera.ParseLens("")
	require.NoError(t, err)
	assert.Equal(t, camera.LensBack, lens)

	_, err = camera.ParseLens("sideways")
	assert.Error(t, err)
}

func TestLensOther(t *testing.T) {
	assert.Equal(t, camera.LensFront, camera.LensBack.Other())
	assert.Equal(t, camera.LensBack, camera.LensFront.Other())
}

func TestMapExposure(t *testing.T) {
	tests := []struct {
		pct, min, max int
		want          int
	}{
		{0, -24, 24, 0},
		{100, -24, 24, 24},
		{50, -24, 24, 12},
		{-100, -24, 24, -24},
		{-50, -24, 24, -12},
		{25, -24, 24, 6},
		{150, -24, 24, 24},
		{-150, -24, 24, -24},
		{50, -12, 0, 0},
		{-50, 0, 12, 0},
		{33, -12, 12, 4},
	}

	for _, tt := range tests {
		got := camera.MapExposure(tt.pct, tt.min, tt.max)
		assert.Equal(t, tt.want, got, "pct=%d range=[%d,%d]", tt.pct, tt.min, tt.max)
	}
}

func TestMapSharpness(t *testing.T) {
	all := []camera.SharpnessTier{camera.SharpnessOff, camera.SharpnessFast, camera.SharpnessHighQuality}

	tests := []struct {
		pct       int
		supported []camera.SharpnessTier
		want      camera.SharpnessTier
	}{
		{0, all, camera.SharpnessOff},
		{10, all, camera.SharpnessOff},
		{11, all, camera.SharpnessFast},
		{60, all, camera.SharpnessFast},
		{61, all, camera.SharpnessHighQuality},
		{100, all, camera.SharpnessHighQuality},
		// Desired tier unsupported: downgrade first.
		{100, []camera.SharpnessTier{camera.SharpnessOff, camera.SharpnessFast}, camera.SharpnessFast},
		{100, []camera.SharpnessTier{camera.SharpnessOff}, camera.SharpnessOff},
		// Nothing at or below: walk up.
		{0, []camera.SharpnessTier{camera.SharpnessHighQuality}, camera.SharpnessHighQuality},
		{30, []camera.SharpnessTier{camera.SharpnessHighQuality}, camera.SharpnessHighQuality},
		// Empty ladder.
		{50, nil, camera.SharpnessOff},
	}

	for _, tt := range tests {
		got := camera.MapSharpness(tt.pct, tt.supported)
		assert.Equal(t, tt.want, got, "pct=%d supported=%v", tt.pct, tt.supported)
	}
}
