package adsb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCPRNLTable spot-checks the number-of-longitude-zones table against
// known 1090-WP-9-14 boundary values.
func TestCPRNLTable(t *testing.T) {
	assert.Equal(t, 59, cprNL(0))
	assert.Equal(t, 1, cprNL(89))
	assert.Equal(t, 36, cprNL(52.0))
}

// TestGlobalDecodeAirbornePositionPair exercises fixture 3 from spec §8:
// an even/odd CPR pair 10s apart must resolve to lat≈52.25720°,
// lon≈3.91937°.
func TestGlobalDecodeAirbornePositionPair(t *testing.T) {
	even := CPRFrame{Lat: 93000, Lon: 51372, Time: 0, Valid: true}
	odd := CPRFrame{Lat: 74158, Lon: 50194, Time: 10, Valid: true}

	lat, lon, ok := globalDecode(even, odd, false)
	assert.True(t, ok)
	assert.InDelta(t, 52.25720, lat, 0.0001)
	assert.InDelta(t, 3.91937, lon, 0.0001)
}

func TestGlobalDecodeRejectsMismatchedZones(t *testing.T) {
	// Chosen so the even/odd frames resolve to latitudes in different NL
	// zones (3 vs 2near the pole) — an inconsistent pair that must be
	// rejected rather than averaged.
	even := CPRFrame{Lat: 55038, Lon: 51372}
	odd := CPRFrame{Lat: 24604, Lon: 50194}
	_, _, ok := globalDecode(even, odd, false)
	assert.False(t, ok)
}

func TestLocalDecodeRejectsImplausibleDistance(t *testing.T) {
	// Resolves to roughly 18nmi from this reference, over the surface
	// deviation threshold, and must be rejected.
	frame := CPRFrame{Lat: 93000, Lon: 51372}
	_, _, ok := LocalDecode(52.1, 3.5, frame, false, LocalSurfaceMaxDeviation)
	assert.False(t, ok)
}

func TestLocalDecodeAcceptsNearbyReference(t *testing.T) {
	frame := CPRFrame{Lat: 93000, Lon: 51372}
	lat, lon, ok := LocalDecode(52.3, 4.0, frame, false, LocalAirborneMaxDist)
	require := assert.New(t)
	require.True(ok)
	require.InDelta(52.25720, lat, 0.001)
	require.InDelta(3.91937, lon, 0.001)
}
