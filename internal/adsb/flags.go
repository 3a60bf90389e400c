package adsb

// Attributes is a bitset of facts a Decoded Message carries about an
// aircraft. The same type is reused on aircraft.Record so a table update
// is a plain OR of the incoming message's flags (Design Notes §9).
type Attributes uint32

const (
	HasCallsign Attributes = 1 << iota
	HasAltitude
	HasSquawk
	HasPosition
	HasVelocity
	HasVerticalRate
	OnGround
	PositionEven
	PositionOdd
	FromMLAT
	FromTISB
	ModeAHit
	ModeCHit
	SuppressedAlt
	HasAltitudeHAE // ALTITUDE_HAE: geometric altitude from ME type 20-22
	HasHAEDelta    // HAE_DELTA: HAE minus baro, once both are known
	HasCategory    // CATEGORY: emitter category from ME type 1-4
	HasFS          // FS: DF4/5/20/21 flight-status field
	AOGValid       // AOG_VALID: the AOG bit above actually came from this message
	LatLonRelOK    // LATLON_REL_OK: local-decode's relative constraint held
	RelCPRUsed     // REL_CPR_USED: position resolved by local, not global, decode
)

func (a Attributes) Has(f Attributes) bool { return a&f != 0 }
func (a Attributes) With(f Attributes) Attributes { return a | f }
func (a Attributes) Without(f Attributes) Attributes { return a &^ f }
