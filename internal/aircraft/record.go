package aircraft

import (
	"fmt"
	"time"

	"go1090/internal/adsb"
)

// Visibility is the interactive-view lifecycle state of a record (§4.5
// staleness sweep / §9 "visibility state").
type Visibility int

const (
	VisibilityNone Visibility = iota
	VisibilityFirstTime
	VisibilityNormal
	VisibilityLastTime
)

func (v Visibility) String() string {
	switch v {
	case VisibilityFirstTime:
		return "FIRST_TIME"
	case VisibilityNormal:
		return "NORMAL"
	case VisibilityLastTime:
		return "LAST_TIME"
	default:
		return "NONE"
	}
}

const signalRingSize = 8

// Record is one tracked aircraft, keyed by 24-bit ICAO address (§3
// Data Model, Aircraft).
type Record struct {
	ICAO uint32
	Hex  string

	FirstSeen time.Time
	LastSeen  time.Time
	Messages  uint64

	Callsign     string
	Altitude     int
	AltitudeHAE  int
	HAEDelta     int
	Squawk       string
	GroundSpeed  float64
	Track        float64
	VerticalRate int
	Category     int
	OnGround     bool
	NUCp         int
	FS           int

	SeenPosition time.Time
	SeenAltitude time.Time
	SeenSpeed    time.Time

	signalRing [signalRingSize]float64
	signalIdx  int
	signalN    int

	EvenCPR     adsb.CPRFrame
	OddCPR      adsb.CPRFrame
	EvenCPRTime time.Time
	OddCPRTime  time.Time

	Lat, Lon       float64
	EstLat, EstLon float64
	EstTime        time.Time
	DistanceHome   float64

	reg regRef

	Attrs     adsb.Attributes
	MLATAttrs adsb.Attributes
	TISBAttrs adsb.Attributes

	ModeACross    adsb.Attributes
	ModeAHitCount uint64
	ModeCHitCount uint64
	ModeSHitCount uint64

	Visibility       Visibility
	GlobalDistChecks uint64
}

func newRecord(icao uint32, now time.Time) *Record {
	return &Record{
		ICAO:       icao,
		Hex:        fmt.Sprintf("%06X", icao),
		FirstSeen:  now,
		LastSeen:   now,
		Visibility: VisibilityFirstTime,
	}
}

// RecordSnapshot flattens the mutable record for lock-free consumption
// by publishers (the JSON builder copies this rather than holding a
// reference into the table).
type RecordSnapshot struct {
	Record
	SignalMean float64
	Registration
}

// Registration is the subset of registry.Registration surfaced on a
// snapshot.
type Registration struct {
	RegNumber    string
	Manufacturer string
	Type         string
	Helicopter   bool
	HasReg       bool
}

func (r *Record) addSignal(level float64) {
	r.signalRing[r.signalIdx] = level
	r.signalIdx = (r.signalIdx + 1) % signalRingSize
	if r.signalN < signalRingSize {
		r.signalN++
	}
}

func (r *Record) signalMean() float64 {
	if r.signalN == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < r.signalN; i++ {
		sum += r.signalRing[i]
	}
	return sum / float64(r.signalN)
}

// Snapshot copies the record into a value safe to read without the
// table's lock.
func (r *Record) Snapshot() RecordSnapshot {
	snap := RecordSnapshot{Record: *r, SignalMean: r.signalMean()}
	if reg, ok := r.reg.Get(); ok {
		snap.Registration = Registration{
			RegNumber:    reg.RegNumber,
			Manufacturer: reg.Manufacturer,
			Type:         reg.Type,
			Helicopter:   reg.Helicopter,
			HasReg:       true,
		}
	}
	return snap
}

// HasPosition reports whether LATLON (§3) is currently set.
func (r *Record) HasPosition() bool {
	return r.Attrs.Has(adsb.HasPosition)
}

// ModeAOnly reports whether this record has only ever been updated by
// synthetic Mode A/C hits, never a Mode S message (§4.6 excludes these
// from JSON publication).
func (r *Record) ModeAOnly() bool {
	return r.Attrs == 0 && (r.ModeAHitCount > 0 || r.ModeCHitCount > 0)
}
