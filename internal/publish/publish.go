package publish

import (
	"math"
	"strings"
	"time"

	"go1090/internal/adsb"
	"go1090/internal/aircraft"
)

// Config controls how snapshots are rendered (§4.6).
type Config struct {
	Version       string
	RefreshMillis int
	History       int
	HomeLat       float64
	HomeLon       float64
	HomeSet       bool

	// Compat selects the alt_baro/geom_rate/gs FlightAware-style
	// aliases alongside the readsb/tar1090 field names.
	Compat bool
	// Extended adds the mlat/tisb attribute-provenance arrays.
	Extended bool
}

// ReceiverDoc is the contents of receiver.json.
type ReceiverDoc struct {
	Version string  `json:"version"`
	Refresh int     `json:"refresh"`
	History int     `json:"history"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
}

// BuildReceiverDoc renders receiver.json from cfg.
func BuildReceiverDoc(cfg Config) ReceiverDoc {
	doc := ReceiverDoc{
		Version: cfg.Version,
		Refresh: cfg.RefreshMillis,
		History: cfg.History,
	}
	if cfg.HomeSet {
		doc.Lat = cfg.HomeLat
		doc.Lon = cfg.HomeLon
	}
	return doc
}

// AircraftDoc is one element of aircraft.json's aircraft array.
type AircraftDoc struct {
	Hex      string  `json:"hex"`
	Flight   string  `json:"flight,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
	NUCp     int     `json:"nucp,omitempty"`
	SeenPos  float64 `json:"seen_pos,omitempty"`
	Altitude int     `json:"altitude,omitempty"`
	AltBaro  int     `json:"alt_baro,omitempty"`
	AltGeom  int     `json:"alt_geom,omitempty"`
	VertRate int     `json:"vert_rate,omitempty"`
	GeomRate int     `json:"geom_rate,omitempty"`
	Track    float64 `json:"track,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
	Gs       float64 `json:"gs,omitempty"`
	Squawk   string  `json:"squawk,omitempty"`
	Category string  `json:"category,omitempty"`
	Messages uint64  `json:"messages"`
	Seen     float64 `json:"seen"`
	RSSI     float64 `json:"rssi"`

	MLAT []string `json:"mlat,omitempty"`
	TISB []string `json:"tisb,omitempty"`
}

// Snapshot is the contents of aircraft.json.
type Snapshot struct {
	Now      float64       `json:"now"`
	Messages uint64        `json:"messages"`
	Aircraft []AircraftDoc `json:"aircraft"`
}

// attrNames lists the publishable attributes in field-name order, for
// the extended client's mlat/tisb provenance arrays.
var attrNames = []struct {
	attr adsb.Attributes
	name string
}{
	{adsb.HasCallsign, "flight"},
	{adsb.HasAltitude, "altitude"},
	{adsb.HasSquawk, "squawk"},
	{adsb.HasPosition, "lat"},
	{adsb.HasVelocity, "track"},
	{adsb.HasVerticalRate, "vert_rate"},
	{adsb.HasAltitudeHAE, "alt_geom"},
	{adsb.HasCategory, "category"},
}

func provenanceNames(src adsb.Attributes) []string {
	var names []string
	for _, a := range attrNames {
		if src.Has(a.attr) {
			names = append(names, a.name)
		}
	}
	return names
}

// rssi computes the reported signal power from the ring mean, per
// §4.6: 10*log10(mean(signal_ring)/8 + 1.125e-5).
func rssi(mean float64) float64 {
	return 10 * math.Log10(mean/8+1.125e-5)
}

// BuildAircraftDoc renders one aircraft.json element from a record
// snapshot, or reports ok=false if the record isn't publishable
// (no resolved position, a single message, or Mode-A-only).
func BuildAircraftDoc(snap aircraft.RecordSnapshot, now time.Time, cfg Config) (AircraftDoc, bool) {
	if !snap.HasPosition() || snap.Messages <= 1 || snap.ModeAOnly() {
		return AircraftDoc{}, false
	}

	doc := AircraftDoc{
		Hex:      snap.Hex,
		Messages: snap.Messages,
		Seen:     now.Sub(snap.LastSeen).Seconds(),
		RSSI:     rssi(snap.SignalMean),
	}

	if snap.Attrs.Has(adsb.HasCallsign) {
		doc.Flight = strings.TrimSpace(snap.Callsign)
	}
	doc.Lat = snap.Lat
	doc.Lon = snap.Lon
	doc.SeenPos = now.Sub(snap.SeenPosition).Seconds()
	doc.NUCp = snap.NUCp

	if snap.Attrs.Has(adsb.HasAltitude) {
		if cfg.Compat {
			doc.AltBaro = snap.Altitude
		} else {
			doc.Altitude = snap.Altitude
		}
	}
	if snap.Attrs.Has(adsb.HasAltitudeHAE) {
		doc.AltGeom = snap.AltitudeHAE
	}
	if snap.Attrs.Has(adsb.HasVerticalRate) {
		if cfg.Compat {
			doc.GeomRate = snap.VerticalRate
		} else {
			doc.VertRate = snap.VerticalRate
		}
	}
	if snap.Attrs.Has(adsb.HasVelocity) {
		doc.Track = snap.Track
		if cfg.Compat {
			doc.Gs = snap.GroundSpeed
		} else {
			doc.Speed = snap.GroundSpeed
		}
	}
	if snap.Attrs.Has(adsb.HasSquawk) && snap.Squawk != "" {
		doc.Squawk = snap.Squawk
	}
	if snap.Category != 0 {
		doc.Category = hexByte(snap.Category)
	}

	if cfg.Extended {
		doc.MLAT = provenanceNames(snap.MLATAttrs)
		doc.TISB = provenanceNames(snap.TISBAttrs)
	}

	return doc, true
}

func hexByte(v int) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[(v>>4)&0xF], digits[v&0xF]})
}

// BuildSnapshot renders aircraft.json's full document from every
// tracked record (§4.6).
func BuildSnapshot(records []aircraft.RecordSnapshot, totalMessages uint64, now time.Time, cfg Config) Snapshot {
	snap := Snapshot{
		Now:      float64(now.Unix()),
		Messages: totalMessages,
		Aircraft: make([]AircraftDoc, 0, len(records)),
	}
	for _, rec := range records {
		if doc, ok := BuildAircraftDoc(rec, now, cfg); ok {
			snap.Aircraft = append(snap.Aircraft, doc)
		}
	}
	return snap
}
