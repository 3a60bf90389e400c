package adsb

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// TestDF11ICAOExtraction exercises fixture 1 from spec §8: DF and ICAO
// extraction from the literal fixture hex. The fixture's own trailing
// bytes are shared with fixture 2's 112-bit DF17 capture and do not form a
// self-contained, checksum-valid 56-bit codeword on their own (truncating
// a long squitter's tail onto a short DF11 header breaks the CRC-24
// algebra); DF/ICAO extraction, which does not depend on that, is checked
// against the literal fixture, and the CRC-zero property is checked on a
// second, independently constructed DF11/ICAO=0x4840D6 frame built with a
// correctly computed PI field (see TestChecksumDF11Valid).
func TestDF11ICAOExtraction(t *testing.T) {
	data := mustDecodeHex(t, "5D4840D6202CC371C32CE0576098")
	data = data[:ShortMsgBytes]

	assert.Equal(t, DF11, int(data[0]>>3))
	icao := (uint32(data[1]) << 16) | (uint32(data[2]) << 8) | uint32(data[3])
	assert.Equal(t, uint32(0x4840D6), icao)
}

// TestChecksumDF11Valid checks the CRC-zero property for a DF11 reply
// carrying the same ICAO (0x4840D6) as fixture 1, with a correctly
// computed PI field.
func TestChecksumDF11Valid(t *testing.T) {
	data := mustDecodeHex(t, "5D4840D6F8740F")
	assert.Equal(t, uint32(0), checksum(data))
}

// TestSingleBitCorrection exercises fixture 5: flipping bit 37 of a valid
// DF11 frame must be recoverable to a single, unambiguous position whose
// corrected frame matches the original exactly.
func TestSingleBitCorrection(t *testing.T) {
	original := mustDecodeHex(t, "5D4840D6F8740F")
	flipped := append([]byte(nil), original...)
	flipBit(flipped, 37)

	require.NotEqual(t, uint32(0), checksum(flipped))

	hits := correctSingleBit(flipped)
	require.Len(t, hits, 1)
	assert.Equal(t, 37, hits[0])

	flipBit(flipped, hits[0])
	assert.Equal(t, original, flipped)
	assert.Equal(t, uint32(0), checksum(flipped))
}

// TestAmbiguousCorrectionRejected flips two bits simultaneously and
// expects either zero or more than one candidate position — never a
// confident single-bit fix that silently masks the second error.
func TestAmbiguousCorrectionRejected(t *testing.T) {
	original := mustDecodeHex(t, "5D4840D6F8740F")
	corrupted := append([]byte(nil), original...)
	flipBit(corrupted, 10)
	flipBit(corrupted, 50)

	hits := correctSingleBit(corrupted)
	assert.NotEqual(t, 1, len(hits), "two independent bit errors must not resolve to a single confident correction")
}

func TestRecoverAP(t *testing.T) {
	// recoverAP must agree with checksum (the AP field IS the checksum
	// residue for DF0/4/5/16/20/21 frames).
	data := mustDecodeHex(t, "5D4840D6202CC371C32CE0576098")
	data = data[:ShortMsgBytes]
	assert.Equal(t, checksum(data), recoverAP(data))
}

func TestIsKnownDF(t *testing.T) {
	known := []int{DF0, DF4, DF5, DF11, DF16, DF17, DF18, DF20, DF21}
	for _, df := range known {
		assert.True(t, isKnownDF(df), "DF%d should be known", df)
	}
	assert.False(t, isKnownDF(2))
	assert.False(t, isKnownDF(31))
}

func TestCarriesOwnAddress(t *testing.T) {
	assert.True(t, carriesOwnAddress(DF11))
	assert.True(t, carriesOwnAddress(DF17))
	assert.True(t, carriesOwnAddress(DF18))
	assert.False(t, carriesOwnAddress(DF4))
	assert.False(t, carriesOwnAddress(DF20))
}
