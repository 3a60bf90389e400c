// Package aircraft implements the table of tracked aircraft (§4.5): a
// hash map keyed by ICAO address (Design Notes §9 prefers this over the
// source's array-of-pointers), suppression rules, MLAT/TIS-B attribute
// provenance, Mode A/C cross-matching and the staleness sweep.
package aircraft

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/adsb"
	"go1090/internal/registry"
)

// suppressionWindow is how recently a non-MLAT altitude and position
// must have been seen for a differing bare DF0/4/16/20 altitude to be
// treated as a likely single-bit-error artifact and discarded (§4.5 item 6).
const suppressionWindow = 15 * time.Second

// homeCheckWindowMin/Max bound the startup period over which at least
// one CPR global-distance check must have advanced the counter, or the
// configured home position is probably wrong (§4.5, §7 HomePositionWrong).
const (
	homeCheckWindowMin = 50 * time.Second
	homeCheckWindowMax = 80 * time.Second
)

// Table is the live set of tracked aircraft. It is the sole data
// structure the demod thread mutates (§5 Concurrency Model); readers
// (publishers, the interactive view) take the RWMutex's read side.
type Table struct {
	mu      sync.RWMutex
	records map[uint32]*Record
	logger  *logrus.Logger

	provider registry.Provider

	ttl time.Duration

	homeSet          bool
	homeLat, homeLon float64
	homeRangeLimit   float64

	startedAt         time.Time
	globalDistChecked uint64 // atomic
	badGlobal         uint64 // atomic
	homeDiagnosed     bool

	onHomeWrong func()
}

// Option configures a Table at construction.
type Option func(*Table)

// WithRegistrationProvider attaches the external registration lookup
// collaborator (§6 Registration lookup API). Nil leaves records
// without registration metadata.
func WithRegistrationProvider(p registry.Provider) Option {
	return func(t *Table) { t.provider = p }
}

// WithHome sets the receiver's reference position used for CPR local
// decode seeding and the distance-to-home / HomePositionWrong check.
func WithHome(lat, lon float64) Option {
	return func(t *Table) { t.homeSet = true; t.homeLat = lat; t.homeLon = lon }
}

// WithHomeRangeLimit overrides the default 300nmi plausibility ceiling
// (§7 Open Questions: "implemented at the spec's literal 300nmi
// default, configurable").
func WithHomeRangeLimit(nmi float64) Option {
	return func(t *Table) { t.homeRangeLimit = nmi }
}

// WithHomeWrongHandler installs a callback invoked once if no
// global-distance check has advanced within the 50-80s startup window
// (the fatal HomePositionWrong diagnostic, §4.5/§7).
func WithHomeWrongHandler(fn func()) Option {
	return func(t *Table) { t.onHomeWrong = fn }
}

// NewTable constructs an empty table with the given eviction TTL
// (default 60s per §3 Lifecycle) and starts the clock for the
// home-position sanity window.
func NewTable(ttl time.Duration, logger *logrus.Logger, now time.Time, opts ...Option) *Table {
	if ttl <= 0 {
		ttl = 60 * time.Second // §3 Lifecycle default
	}
	t := &Table{
		records:        make(map[uint32]*Record),
		logger:         logger,
		ttl:            ttl,
		homeRangeLimit: adsb.DefaultHomeRangeLimit,
		startedAt:      now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetTTL implements the operator control channel's set-ttl command.
func (t *Table) SetTTL(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ttl = d
}

// SetHome implements the operator control channel's set-home command.
func (t *Table) SetHome(lat, lon float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.homeSet = true
	t.homeLat = lat
	t.homeLon = lon
}

// Len reports the number of tracked records.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Update applies one decoded message to the table (§4.5 steps 1-8) and
// returns the affected record's snapshot.
func (t *Table) Update(dm *adsb.DecodedMessage) RecordSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := dm.Raw.Timestamp
	rec, ok := t.records[dm.ICAO]
	if !ok {
		rec = newRecord(dm.ICAO, now)
		rec.reg = lookupRegistration(t.provider, rec.Hex)
		t.records[dm.ICAO] = rec
	} else if rec.Visibility != VisibilityNormal {
		rec.Visibility = VisibilityNormal
	}

	rec.addSignal(dm.Raw.SignalRSSI)
	rec.LastSeen = now
	rec.Messages++

	fromMLAT := dm.Attrs.Has(adsb.FromMLAT)
	fromTISB := dm.Attrs.Has(adsb.FromTISB)

	if dm.Attrs.Has(adsb.HasCallsign) {
		rec.Callsign = dm.Callsign
		t.markProvenance(rec, adsb.HasCallsign, fromMLAT, fromTISB)
	}

	if dm.Attrs.Has(adsb.HasAltitude) {
		t.applyAltitude(rec, dm, now, fromMLAT, fromTISB)
	}

	if dm.Attrs.Has(adsb.HasAltitudeHAE) {
		rec.AltitudeHAE = dm.AltitudeHAE
		t.markProvenance(rec, adsb.HasAltitudeHAE, fromMLAT, fromTISB)
		if rec.Attrs.Has(adsb.HasAltitude) {
			rec.HAEDelta = rec.AltitudeHAE - rec.Altitude
			t.markProvenance(rec, adsb.HasHAEDelta, fromMLAT, fromTISB)
		}
	}

	if dm.Attrs.Has(adsb.HasCategory) {
		rec.Category = dm.Category
		t.markProvenance(rec, adsb.HasCategory, fromMLAT, fromTISB)
	}

	if dm.Attrs.Has(adsb.HasFS) {
		rec.FS = dm.FS
		t.markProvenance(rec, adsb.HasFS, fromMLAT, fromTISB)
	}

	if dm.Attrs.Has(adsb.HasSquawk) {
		rec.Squawk = dm.Squawk
		t.markProvenance(rec, adsb.HasSquawk, fromMLAT, fromTISB)
	}

	if dm.Attrs.Has(adsb.HasVelocity) {
		rec.GroundSpeed = dm.GroundSpeed
		rec.Track = dm.Track
		rec.SeenSpeed = now
		t.markProvenance(rec, adsb.HasVelocity, fromMLAT, fromTISB)
	}

	if dm.Attrs.Has(adsb.HasVerticalRate) {
		rec.VerticalRate = dm.VerticalRate
		t.markProvenance(rec, adsb.HasVerticalRate, fromMLAT, fromTISB)
	}

	// AOG_VALID: only a message that actually carries ground-state (the
	// DF0/16 VS bit, the DF4/5/20/21 FS field, or an ES surface-position
	// report) may update OnGround — otherwise an ident/velocity message
	// would silently reset it to false every time it arrived.
	if dm.Attrs.Has(adsb.AOGValid) {
		rec.OnGround = dm.Attrs.Has(adsb.OnGround)
		t.markProvenance(rec, adsb.AOGValid, fromMLAT, fromTISB)
	}

	if dm.Attrs.Has(adsb.HasPosition) && (dm.Attrs.Has(adsb.PositionEven) || dm.Attrs.Has(adsb.PositionOdd)) {
		rec.NUCp = dm.NUCp
		if committed, local := t.applyCPR(rec, dm, now); committed {
			t.markProvenance(rec, adsb.HasPosition, fromMLAT, fromTISB)
			if local {
				t.markProvenance(rec, adsb.RelCPRUsed, fromMLAT, fromTISB)
				t.markProvenance(rec, adsb.LatLonRelOK, fromMLAT, fromTISB)
			}
		}
	}

	if dm.Attrs.Has(adsb.ModeAHit) || dm.Attrs.Has(adsb.ModeCHit) {
		t.crossMatch(rec, dm)
	}

	return rec.Snapshot()
}

// markProvenance records which of MLAT/TIS-B/ADS-B last supplied attr.
func (t *Table) markProvenance(rec *Record, attr adsb.Attributes, fromMLAT, fromTISB bool) {
	rec.Attrs = rec.Attrs.With(attr)
	if fromMLAT {
		rec.MLATAttrs = rec.MLATAttrs.With(attr)
	} else {
		rec.MLATAttrs = rec.MLATAttrs.Without(attr)
	}
	if fromTISB {
		rec.TISBAttrs = rec.TISBAttrs.With(attr)
	} else {
		rec.TISBAttrs = rec.TISBAttrs.Without(attr)
	}
}

// applyAltitude implements the §4.5 item 6 suppression rule: a bare
// DF0/4/16/20 altitude that differs from the record's current one is
// discarded if the record's altitude and position were both last set by
// non-MLAT messages within suppressionWindow, treating it as a likely
// single-bit-error artifact rather than a real change. The record does
// not track which downlink format supplied its altitude, so an earlier
// bare surveillance altitude counts as fresh here just as an ES one does.
func (t *Table) applyAltitude(rec *Record, dm *adsb.DecodedMessage, now time.Time, fromMLAT, fromTISB bool) {
	isBareSurveillance := dm.DF == adsb.DF0 || dm.DF == adsb.DF4 || dm.DF == adsb.DF16 || dm.DF == adsb.DF20
	if isBareSurveillance && !fromMLAT {
		altFresh := !rec.MLATAttrs.Has(adsb.HasAltitude) && rec.Attrs.Has(adsb.HasAltitude) &&
			now.Sub(rec.SeenAltitude) <= suppressionWindow
		posFresh := !rec.MLATAttrs.Has(adsb.HasPosition) && rec.Attrs.Has(adsb.HasPosition) &&
			now.Sub(rec.SeenPosition) <= suppressionWindow
		if altFresh && posFresh && rec.Altitude != dm.Altitude {
			return // suppressed: the record keeps its altitude; the suppression is not counted
		}
	}

	rec.Altitude = dm.Altitude
	rec.SeenAltitude = now
	t.markProvenance(rec, adsb.HasAltitude, fromMLAT, fromTISB)
}

// applyCPR stores the even/odd half the message carries and attempts
// global decode; falling back to local decode seeded by the record's
// current position when no fresh partner half is available (§4.4,
// §4.5 item 5: "invokes the CPR resolver with this aircraft as seed").
func (t *Table) applyCPR(rec *Record, dm *adsb.DecodedMessage, now time.Time) (committed, local bool) {
	frame := adsb.CPRFrame{Lat: dm.CPRLat, Lon: dm.CPRLon, Valid: true}

	if dm.CPROdd {
		rec.OddCPR = frame
		rec.OddCPRTime = now
	} else {
		rec.EvenCPR = frame
		rec.EvenCPRTime = now
	}

	window := adsb.GlobalAirborneWindow
	if rec.OnGround {
		window = adsb.GlobalSurfaceWindowFast
	}

	atomic.AddUint64(&t.globalDistChecked, 1)
	rec.GlobalDistChecks++

	if rec.EvenCPR.Valid && rec.OddCPR.Valid {
		gap := rec.OddCPRTime.Sub(rec.EvenCPRTime)
		if gap < 0 {
			gap = -gap
		}
		if gap <= window {
			if lat, lon, ok := adsb.GlobalDecode(rec.EvenCPR, rec.OddCPR, dm.CPROdd); ok {
				return t.commitPosition(rec, lat, lon, now), false
			}
			// NL-zone mismatch: Skipped, not Bad (§8) — invalidate both halves.
			rec.EvenCPR.Valid = false
			rec.OddCPR.Valid = false
		}
	}

	if rec.HasPosition() {
		maxDist := adsb.LocalAirborneMaxDist
		if rec.OnGround {
			maxDist = adsb.LocalSurfaceMaxDeviation
		}
		if lat, lon, ok := adsb.LocalDecode(rec.Lat, rec.Lon, frame, dm.CPROdd, maxDist); ok {
			return t.commitPosition(rec, lat, lon, now), true
		}
	}
	return false, false
}

// commitPosition applies a resolved lat/lon to rec unless the configured
// home position rejects it as implausible (§4.4: results further than
// homeRangeLimit from home do not update state and are counted as
// bad-global). Reports whether the position was committed.
func (t *Table) commitPosition(rec *Record, lat, lon float64, now time.Time) bool {
	if t.homeSet {
		dist := adsb.GreatCircleNmi(t.homeLat, t.homeLon, lat, lon)
		if dist > t.homeRangeLimit {
			atomic.AddUint64(&t.badGlobal, 1)
			if t.logger != nil {
				t.logger.WithFields(logrus.Fields{
					"icao":   rec.Hex,
					"nmi":    dist,
					"reason": adsb.ErrCPRGlobalBad.String(),
				}).Debug("rejecting implausible CPR global position")
			}
			return false
		}
		rec.DistanceHome = dist
	}
	rec.Lat = lat
	rec.Lon = lon
	rec.SeenPosition = now
	return true
}

// BadGlobalCount reports how many resolved positions have been rejected
// for exceeding homeRangeLimit from the configured home position.
func (t *Table) BadGlobalCount() uint64 {
	return atomic.LoadUint64(&t.badGlobal)
}

// crossMatch implements §4.5 item 8: synthetic Mode A/C cross-checks
// against the Mode S record already tracked under this address.
func (t *Table) crossMatch(rec *Record, dm *adsb.DecodedMessage) {
	modeAHit := dm.Attrs.Has(adsb.ModeAHit) && rec.Squawk != "" && rec.Squawk == dm.Squawk
	modeCHit := dm.Attrs.Has(adsb.ModeCHit) && rec.Attrs.Has(adsb.HasAltitude) && abs(rec.Altitude-dm.Altitude) <= 100

	rec.ModeACross = 0
	if modeAHit {
		rec.ModeACross = rec.ModeACross.With(adsb.ModeAHit)
		rec.ModeAHitCount++
	}
	if modeCHit {
		rec.ModeACross = rec.ModeACross.With(adsb.ModeCHit)
		rec.ModeCHitCount++
	}
	if modeAHit && modeCHit {
		rec.ModeSHitCount++
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func strCmp(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func intCmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func floatCmp(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func timeCmp(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func uint64Cmp(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func uint32Cmp(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// StalenessSweep runs the 4Hz tick's eviction pass (§4.5). Records
// crossing TTL-1s transition to LAST_TIME; records crossing TTL are
// removed; stale LATLON is cleared without destroying the record.
func (t *Table) StalenessSweep(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for icao, rec := range t.records {
		age := now.Sub(rec.LastSeen)
		switch {
		case age > t.ttl:
			delete(t.records, icao)
			continue
		case age > t.ttl-time.Second:
			if rec.Visibility == VisibilityNormal || rec.Visibility == VisibilityFirstTime {
				rec.Visibility = VisibilityLastTime
			}
		}

		if rec.HasPosition() && now.Sub(rec.SeenPosition) > t.ttl {
			rec.Attrs = rec.Attrs.Without(adsb.HasPosition)
			rec.Lat, rec.Lon = 0, 0
		}
	}

	t.checkHomePosition(now)
}

// checkHomePosition implements the fatal HomePositionWrong diagnostic:
// if the global total of distance checks has not risen during the
// first 50-80s of operation, the configured home position is probably
// wrong (§4.5, §7).
func (t *Table) checkHomePosition(now time.Time) {
	if t.homeDiagnosed || !t.homeSet {
		return
	}
	elapsed := now.Sub(t.startedAt)
	if elapsed < homeCheckWindowMin {
		return
	}
	if atomic.LoadUint64(&t.globalDistChecked) > 0 {
		t.homeDiagnosed = true // healthy; stop checking
		return
	}
	if elapsed >= homeCheckWindowMax {
		t.homeDiagnosed = true
		if t.logger != nil {
			t.logger.Error("no CPR global-distance checks observed in startup window; home position is likely misconfigured")
		}
		if t.onHomeWrong != nil {
			t.onHomeWrong()
		}
	}
}

// SortField selects which comparator Sorted uses (§4.5 "Sorting").
type SortField int

const (
	SortByCallsign SortField = iota
	SortByICAO
	SortByAltitude
	SortByDistance
	SortByRegNumber
	SortBySpeed
	SortBySeen
	SortByMessages
)

// Sorted returns a snapshot of every record ordered per field, with
// ICAO address as the tie-break, ascending unless desc is set.
func (t *Table) Sorted(field SortField, desc bool) []RecordSnapshot {
	t.mu.RLock()
	snaps := make([]RecordSnapshot, 0, len(t.records))
	for _, rec := range t.records {
		snaps = append(snaps, rec.Snapshot())
	}
	t.mu.RUnlock()

	// cmp returns -1/0/1 for the chosen field, then ICAO breaks ties.
	cmp := func(a, b RecordSnapshot) int {
		switch field {
		case SortByCallsign:
			return strCmp(a.Callsign, b.Callsign)
		case SortByAltitude:
			return intCmp(a.Altitude, b.Altitude)
		case SortByDistance:
			return floatCmp(a.DistanceHome, b.DistanceHome)
		case SortByRegNumber:
			return strCmp(a.RegNumber, b.RegNumber)
		case SortBySpeed:
			return floatCmp(a.GroundSpeed, b.GroundSpeed)
		case SortBySeen:
			return timeCmp(a.LastSeen, b.LastSeen)
		case SortByMessages:
			return uint64Cmp(a.Messages, b.Messages)
		default: // SortByICAO
			return 0
		}
	}
	sort.Slice(snaps, func(i, j int) bool {
		a, b := snaps[i], snaps[j]
		c := cmp(a, b)
		if c == 0 {
			c = uint32Cmp(a.ICAO, b.ICAO)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
	return snaps
}

// Snapshot returns every tracked record's snapshot, unsorted — the
// form the JSON publisher consumes.
func (t *Table) Snapshot() []RecordSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]RecordSnapshot, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, rec.Snapshot())
	}
	return out
}
