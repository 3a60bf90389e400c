package adsb

import "time"

// Downlink Format values (5-bit field at the head of every Mode S reply).
const (
	DF0  = 0  // Short air-air surveillance
	DF4  = 4  // Surveillance, altitude reply
	DF5  = 5  // Surveillance, identity reply
	DF11 = 11 // All-call reply
	DF16 = 16 // Long air-air surveillance
	DF17 = 17 // Extended squitter
	DF18 = 18 // Extended squitter / TIS-B
	DF19 = 19 // Military extended squitter
	DF20 = 20 // Comm-B, altitude reply
	DF21 = 21 // Comm-B, identity reply
	DF24 = 24 // Comm-D (treated as long, unparsed)
)

// Message lengths.
const (
	ShortMsgBits  = 56
	ShortMsgBytes = ShortMsgBits / 8
	LongMsgBits   = 112
	LongMsgBytes  = LongMsgBits / 8
)

// Mode S CRC-24 generator polynomial.
const GeneratorPoly = 0xfff409

// icaoCacheTTL bounds how long a non-ICAO-bearing frame (DF0/4/5/16/20/21)
// can be confirmed against the recently-seen address cache.
const icaoCacheTTL = 60 * time.Second

// Extended squitter (DF17/18) type codes, grouped per §4.3 item 4.
const (
	TypeIdentMin         = 1
	TypeIdentMax         = 4
	TypeSurfacePosMin    = 5
	TypeSurfacePosMax    = 8
	TypeAirbornePosMin   = 9
	TypeAirbornePosMax   = 18
	TypeAirborneVelocity = 19
	TypeAirbornePos2Min  = 20
	TypeAirbornePos2Max  = 22
	TypeStatusMin        = 23
	TypeStatusMax        = 31
)

// MaxUncertainBits caps the number of ambiguous-comparison bits a demodulated
// message may carry before it is discarded as unreadable (§4.2).
const MaxUncertainBits = 8

// CPR geometry constants (§4.4).
const (
	cprResolution  = 131072.0 // 2^17
	airDlatEven    = 360.0 / 60.0
	airDlatOdd     = 360.0 / 59.0
	surfaceLatZone = 90.0
)

// Default CPR timing / plausibility windows (§4.4).
const (
	GlobalAirborneWindow     = 10 * time.Second
	GlobalSurfaceWindowFast  = 25 * time.Second
	GlobalSurfaceWindowSlow  = 50 * time.Second
	LocalSurfaceMaxDeviation = 5.0   // nmi
	LocalAirborneMaxDist     = 180.0 // nmi
	DefaultHomeRangeLimit    = 300.0 // nmi
)
