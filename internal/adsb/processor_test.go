package adsb

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeFixture(t *testing.T, p *Processor, hexStr string) *DecodedMessage {
	t.Helper()
	data, err := hex.DecodeString(hexStr)
	require.NoError(t, err)
	dm, err := p.validateAndDecode(RawMessage{Data: data, Timestamp: time.Unix(0, 0)})
	require.NoError(t, err)
	return dm
}

func TestProcessorDecodesDF11(t *testing.T) {
	p := NewProcessor(nil)
	dm := decodeFixture(t, p, "5D4840D6F8740F")
	assert.Equal(t, DF11, dm.DF)
	assert.Equal(t, uint32(0x4840D6), dm.ICAO)
	assert.Equal(t, NoCorrection, dm.Corrected)
}

func TestProcessorDecodesDF17Ident(t *testing.T) {
	p := NewProcessor(nil)
	dm := decodeFixture(t, p, "8D4840D6202CC371C32CE0576098")
	assert.Equal(t, DF17, dm.DF)
	assert.Equal(t, uint32(0x4840D6), dm.ICAO)
	assert.Equal(t, "KLM1023 ", dm.Callsign)
	assert.True(t, dm.Attrs.Has(HasCallsign))
}

func TestProcessorDecodesDF17Velocity(t *testing.T) {
	p := NewProcessor(nil)
	dm := decodeFixture(t, p, "8D485020994409940838175B284F")
	assert.Equal(t, DF17, dm.DF)
	assert.True(t, dm.Attrs.Has(HasVelocity))
	assert.InDelta(t, 159.2, dm.GroundSpeed, 0.1)
	assert.InDelta(t, 182.88, dm.Track, 0.01)
	assert.Equal(t, -832, dm.VerticalRate)
}

// TestProcessorResolvesAirbornePositionPair exercises fixture 3 end to
// end: feeding the odd frame and then the even frame through the
// processor must populate Lat/Lon on the later (even) message once both
// halves are present, matching spec §8's expected lat≈52.25720°,
// lon≈3.91937°.
func TestProcessorResolvesAirbornePositionPair(t *testing.T) {
	p := NewProcessor(nil)
	odd := decodeFixture(t, p, "8D40621D58C386435CC412692AD6")
	assert.True(t, odd.Attrs.Has(HasPosition))
	assert.Equal(t, 0.0, odd.Lat) // no partner yet

	even := decodeFixture(t, p, "8D40621D58C382D690C8AC2863A7")
	assert.True(t, even.Attrs.Has(HasPosition))
	assert.InDelta(t, 52.25720, even.Lat, 0.001)
	assert.InDelta(t, 3.91937, even.Lon, 0.001)
}

func TestProcessorCorrectsSingleBitError(t *testing.T) {
	p := NewProcessor(nil)
	data, err := hex.DecodeString("5D4840D6F8740F")
	require.NoError(t, err)
	flipBit(data, 37)

	dm, err := p.validateAndDecode(RawMessage{Data: data, Timestamp: time.Unix(0, 0)})
	require.NoError(t, err)
	assert.Equal(t, uint32(0x4840D6), dm.ICAO)
	assert.Equal(t, SingleBitCorrection, dm.Corrected)

	stats := p.GetStats()
	assert.Equal(t, uint64(1), stats.CorrectedMessages)
}

func TestProcessorRejectsUnknownDF(t *testing.T) {
	p := NewProcessor(nil)
	data := make([]byte, LongMsgBytes)
	data[0] = 2 << 3 // DF2, not a known format
	_, err := p.validateAndDecode(RawMessage{Data: data, Timestamp: time.Unix(0, 0)})
	assert.Error(t, err)
}

// buildAPFrame constructs a DF0-shaped short frame whose AP field
// recovers to icao: the AP field is ICAO XOR CRC(payload), so setting
// it to CRC(payload-with-zero-AP) XOR icao makes recoverAP(data)==icao
// once the real AP bytes are in place.
func buildAPFrame(icao uint32) []byte {
	data := make([]byte, ShortMsgBytes)
	data[0] = byte(DF0 << 3)
	crcOnly := checksum(data) // AP bytes are still zero here
	ap := crcOnly ^ icao
	data[4] = byte(ap >> 16)
	data[5] = byte(ap >> 8)
	data[6] = byte(ap)
	return data
}

// TestProcessorCorrectsSingleBitAPError exercises §4.3 item 3 for the
// non-ICAO-bearing DFs: a DF0 frame with one flipped bit must still
// resolve to its originating (previously-seen) ICAO address via single-
// bit correction, not just an outright reject.
func TestProcessorCorrectsSingleBitAPError(t *testing.T) {
	p := NewProcessor(nil)
	icao := uint32(0x4840D6)
	p.icao.Add(icao)

	data := buildAPFrame(icao)
	flipBit(data, 20) // inside the AC field; bits 0-4 hold the DF

	dm, err := p.validateAndDecode(RawMessage{Data: data, Timestamp: time.Unix(0, 0)})
	require.NoError(t, err)
	assert.Equal(t, icao, dm.ICAO)
	assert.Equal(t, SingleBitCorrection, dm.Corrected)

	stats := p.GetStats()
	assert.Equal(t, uint64(1), stats.CorrectedMessages)
}

// TestProcessorRejectsAPFrameWithNoCacheMatch exercises the plain
// reject path: an address nobody has seen, and no single-bit flip
// recovers one, must be rejected as bad CRC rather than accepted.
func TestProcessorRejectsAPFrameWithNoCacheMatch(t *testing.T) {
	p := NewProcessor(nil)
	data := buildAPFrame(0x123456) // never added to the ICAO cache

	_, err := p.validateAndDecode(RawMessage{Data: data, Timestamp: time.Unix(0, 0)})
	assert.Error(t, err)

	stats := p.GetStats()
	assert.Equal(t, uint64(1), stats.RejectedBadCRC)
}

// setFieldBits writes an n-bit MSB-first value starting at startBit,
// the write-side mirror of the package's bits() reader.
func setFieldBits(data []byte, startBit, n, val int) {
	for i := 0; i < n; i++ {
		bitPos := startBit + i
		byteIdx := bitPos / 8
		bitIdx := uint(7 - bitPos%8)
		bitVal := (val >> (n - 1 - i)) & 1
		if bitVal != 0 {
			data[byteIdx] |= 1 << bitIdx
		} else {
			data[byteIdx] &^= 1 << bitIdx
		}
	}
}

// buildDF17Frame constructs a valid (checksum()==0) DF17 frame for icao
// with its ME field left to fill, the AP/CRC field computed last so the
// result validates without any correction logic kicking in.
func buildDF17Frame(icao uint32, fillME func(data []byte)) []byte {
	data := make([]byte, LongMsgBytes)
	setFieldBits(data, 0, 5, DF17)
	setFieldBits(data, 8, 24, int(icao))
	fillME(data)
	crc := checksum(data) // AP bytes are still zero here
	data[11] = byte(crc >> 16)
	data[12] = byte(crc >> 8)
	data[13] = byte(crc)
	return data
}

// TestProcessorDecodesCategory exercises §4.3 item 4's category wiring:
// an identification message (ME type 1-4) carries the emitter category
// in ME bits 38-40 (the low 3 bits of MESub).
func TestProcessorDecodesCategory(t *testing.T) {
	p := NewProcessor(nil)
	data := buildDF17Frame(0x4840D6, func(data []byte) {
		setFieldBits(data, 32, 5, TypeIdentMax) // METype 4
		setFieldBits(data, 37, 3, 0x3)           // category subtype 3
	})

	dm, err := p.validateAndDecode(RawMessage{Data: data, Timestamp: time.Unix(0, 0)})
	require.NoError(t, err)
	assert.True(t, dm.Attrs.Has(HasCategory))
	assert.Equal(t, 3, dm.Category)
}

// TestProcessorSplitsHAEFromBaroAltitude exercises §4.3 item 4: ME type
// 20-22 (geometric/HAE altitude) must populate AltitudeHAE/HasAltitudeHAE,
// never Altitude/HasAltitude, so it can never be mislabeled alt_baro.
func TestProcessorSplitsHAEFromBaroAltitude(t *testing.T) {
	p := NewProcessor(nil)
	data := buildDF17Frame(0x4840D6, func(data []byte) {
		setFieldBits(data, 32, 5, TypeAirbornePos2Min) // METype 20
		setFieldBits(data, 40, 12, 0x010)               // Q-bit set, n=0
	})

	dm, err := p.validateAndDecode(RawMessage{Data: data, Timestamp: time.Unix(0, 0)})
	require.NoError(t, err)
	assert.True(t, dm.Attrs.Has(HasAltitudeHAE))
	assert.False(t, dm.Attrs.Has(HasAltitude))
	assert.Equal(t, -1000, dm.AltitudeHAE)
	assert.Equal(t, 0, dm.Altitude)
}

func TestResetStats(t *testing.T) {
	p := NewProcessor(nil)
	_ = decodeFixture(t, p, "5D4840D6F8740F")
	assert.NotZero(t, p.GetStats().ValidMessages)
	p.ResetStats()
	assert.Zero(t, p.GetStats().ValidMessages)
}
