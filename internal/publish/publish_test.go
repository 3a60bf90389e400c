package publish

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090/internal/adsb"
	"go1090/internal/aircraft"
)

func snapshotWith(attrs adsb.Attributes, messages uint64) aircraft.RecordSnapshot {
	var snap aircraft.RecordSnapshot
	snap.ICAO = 0x4840D6
	snap.Hex = "4840D6"
	snap.Attrs = attrs
	snap.Messages = messages
	snap.Lat = 51.5
	snap.Lon = -0.1
	snap.Altitude = 35000
	snap.Callsign = "UAL123  "
	snap.SignalMean = 0.04
	return snap
}

func TestBuildAircraftDocFiltersUnpublishable(t *testing.T) {
	now := time.Unix(1700000000, 0)

	// No position: excluded.
	_, ok := BuildAircraftDoc(snapshotWith(adsb.HasAltitude, 5), now, Config{})
	assert.False(t, ok)

	// Single message: excluded.
	_, ok = BuildAircraftDoc(snapshotWith(adsb.HasPosition, 1), now, Config{})
	assert.False(t, ok)

	// Mode-A-only (no Mode S attrs, only cross-hit counters): excluded.
	modeAOnly := aircraft.RecordSnapshot{}
	modeAOnly.Messages = 5
	modeAOnly.ModeAHitCount = 3
	_, ok = BuildAircraftDoc(modeAOnly, now, Config{})
	assert.False(t, ok)
}

func TestBuildAircraftDocFieldsAndAliases(t *testing.T) {
	now := time.Unix(1700000000, 0)
	snap := snapshotWith(adsb.HasPosition|adsb.HasAltitude|adsb.HasCallsign, 10)

	doc, ok := BuildAircraftDoc(snap, now, Config{})
	require.True(t, ok)
	assert.Equal(t, "4840D6", doc.Hex)
	assert.Equal(t, "UAL123", doc.Flight)
	assert.Equal(t, 35000, doc.Altitude)
	assert.Equal(t, 0, doc.AltBaro)

	compatDoc, ok := BuildAircraftDoc(snap, now, Config{Compat: true})
	require.True(t, ok)
	assert.Equal(t, 0, compatDoc.Altitude)
	assert.Equal(t, 35000, compatDoc.AltBaro)
}

func TestBuildAircraftDocExtendedProvenance(t *testing.T) {
	now := time.Unix(1700000000, 0)
	snap := snapshotWith(adsb.HasPosition|adsb.HasAltitude, 10)
	snap.MLATAttrs = adsb.HasAltitude

	doc, ok := BuildAircraftDoc(snap, now, Config{Extended: true})
	require.True(t, ok)
	assert.Equal(t, []string{"altitude"}, doc.MLAT)
	assert.Empty(t, doc.TISB)

	doc2, ok := BuildAircraftDoc(snap, now, Config{Extended: false})
	require.True(t, ok)
	assert.Nil(t, doc2.MLAT)
}

// TestBuildAircraftDocHAEDistinctFromBaro guards against §4.3 item 4's
// mislabeling defect: a record carrying geometric altitude (ME type
// 20-22) must publish it under alt_geom, never under altitude/alt_baro.
func TestBuildAircraftDocHAEDistinctFromBaro(t *testing.T) {
	now := time.Unix(1700000000, 0)
	snap := snapshotWith(adsb.HasPosition|adsb.HasAltitudeHAE, 10)
	snap.AltitudeHAE = 36200
	snap.Category = 0x03
	snap.NUCp = 7

	doc, ok := BuildAircraftDoc(snap, now, Config{})
	require.True(t, ok)
	assert.Equal(t, 36200, doc.AltGeom)
	assert.Equal(t, 0, doc.Altitude)
	assert.Equal(t, 0, doc.AltBaro)
	assert.Equal(t, "03", doc.Category)
	assert.Equal(t, 7, doc.NUCp)
}

func TestBuildReceiverDoc(t *testing.T) {
	doc := BuildReceiverDoc(Config{Version: "go1090/1.0", RefreshMillis: 1000, History: 120, HomeSet: true, HomeLat: 51.5, HomeLon: -0.1})
	assert.Equal(t, "go1090/1.0", doc.Version)
	assert.Equal(t, 1000, doc.Refresh)
	assert.Equal(t, 51.5, doc.Lat)
}

func TestRSSIFormula(t *testing.T) {
	got := rssi(0)
	assert.InDelta(t, 10*(-4.9487), got, 0.01)
}
