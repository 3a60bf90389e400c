package adsb

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecodeCallsign exercises fixture 2 from spec §8: the DF17
// identification ME field decodes to "KLM1023 ".
func TestDecodeCallsign(t *testing.T) {
	data, err := hex.DecodeString("8D4840D6202CC371C32CE0576098")
	require.NoError(t, err)

	assert.Equal(t, 4, bits(data, 32, 5)) // ME type
	assert.Equal(t, "KLM1023 ", decodeCallsign(data))
}

func TestDecodeAC13FieldQBit(t *testing.T) {
	alt, ok := decodeAC13Field(0x194)
	require.True(t, ok)
	assert.Equal(t, 1500, alt)
}

func TestDecodeAC13FieldInvalidGillham(t *testing.T) {
	_, ok := decodeAC13Field(0)
	assert.False(t, ok)
}

func TestDecodeSquawk(t *testing.T) {
	cases := []struct {
		id13 int
		want string
	}{
		{0x808, "1200"},
		{0xaa2, "7500"},
		{0xaaa, "7700"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, decodeSquawk(tc.id13))
	}
}

// TestDecodeVelocity exercises fixture 4 from spec §8: ground speed 159kt,
// track 182.88°, vertical rate -832 ft/min.
func TestDecodeVelocity(t *testing.T) {
	data, err := hex.DecodeString("8D485020994409940838175B284F")
	require.NoError(t, err)

	speed, track, vrate, ok := decodeVelocity(data)
	require.True(t, ok)
	assert.InDelta(t, 159.2, speed, 0.1)
	assert.InDelta(t, 182.88, track, 0.01)
	assert.Equal(t, -832, vrate)
}
