package adsb

import (
	"fmt"
	"math"
)

// adsbCharset is the 6-bit character set DF17/18 identification messages
// pack callsigns in (teacher's main.go adsbCharset, dump1090 lineage).
const adsbCharset = "@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_ !\"#$%&'()*+,-./0123456789:;<=>?"

// decodeID13Field rearranges a raw 13-bit identity/altitude field into the
// classic Gillham bit positions (C1,A1,C2,A2,C4,A4,B1,D1,B2,D2,B4,D4) that
// modeAToModeC and decodeSquawk both operate on. Neither source repo in
// this pack carries a working Q=0 path (Regentag's decoder.go leaves it a
// TODO); this is the standard dump1090-lineage algorithm filled in here.
func decodeID13Field(id13 int) int {
	var g int
	if id13&0x1000 != 0 {
		g |= 0x0010 // C1
	}
	if id13&0x0800 != 0 {
		g |= 0x1000 // A1
	}
	if id13&0x0400 != 0 {
		g |= 0x0020 // C2
	}
	if id13&0x0200 != 0 {
		g |= 0x2000 // A2
	}
	if id13&0x0100 != 0 {
		g |= 0x0040 // C4
	}
	if id13&0x0080 != 0 {
		g |= 0x4000 // A4
	}
	if id13&0x0020 != 0 {
		g |= 0x0100 // B1
	}
	if id13&0x0010 != 0 {
		g |= 0x0001 // D1
	}
	if id13&0x0008 != 0 {
		g |= 0x0200 // B2
	}
	if id13&0x0004 != 0 {
		g |= 0x0002 // D2
	}
	if id13&0x0002 != 0 {
		g |= 0x0400 // B4
	}
	if id13&0x0001 != 0 {
		g |= 0x0004 // D4
	}
	return g
}

// modeAToModeC converts a Gillham-coded Mode A value (as produced by
// decodeID13Field) to a Mode C altitude in units of 100 feet, returning
// false when the encoding is invalid.
func modeAToModeC(modeA int) (hundredFeet int, ok bool) {
	if (modeA&0xffff888b) != 0 || (modeA&0x000000f0) == 0 {
		return 0, false
	}

	oneHundreds := 0
	if modeA&0x0010 != 0 {
		oneHundreds ^= 0x007 // C1
	}
	if modeA&0x0020 != 0 {
		oneHundreds ^= 0x003 // C2
	}
	if modeA&0x0040 != 0 {
		oneHundreds ^= 0x001 // C4
	}

	fiveHundreds := 0
	if oneHundreds&5 != 0 {
		fiveHundreds ^= 0xff
	} else {
		fiveHundreds ^= 0x7f
	}
	switch {
	case oneHundreds&1 != 0:
		fiveHundreds ^= 0x1ff
	case oneHundreds&2 != 0:
		fiveHundreds ^= 0x0ff
	case oneHundreds&3 != 0:
		fiveHundreds ^= 0x07f
	}

	if modeA&0x1000 != 0 {
		fiveHundreds ^= 0x1ff // A1
	}
	if modeA&0x2000 != 0 {
		fiveHundreds ^= 0x0ff // A2
	}
	if modeA&0x4000 != 0 {
		fiveHundreds ^= 0x07f // A4
	}
	if modeA&0x0100 != 0 {
		fiveHundreds ^= 0x03f // B1
	}
	if modeA&0x0200 != 0 {
		fiveHundreds ^= 0x01f // B2
	}
	if modeA&0x0400 != 0 {
		fiveHundreds ^= 0x00f // B4
	}

	if oneHundreds > 6 {
		oneHundreds -= 6
	}
	if fiveHundreds&1 != 0 {
		oneHundreds = 6 - oneHundreds
	}

	return (fiveHundreds*5 + oneHundreds - 13), true
}

// decodeAC13Field decodes the 13-bit altitude field of DF0/4/16/20, either
// directly (Q-bit set, 25ft steps) or via Gillham/Gray conversion.
func decodeAC13Field(ac13 int) (feet int, ok bool) {
	mBit := ac13 & 0x0040
	qBit := ac13 & 0x0010
	if mBit != 0 {
		return 0, false // metric altitude, unsupported by this receiver
	}
	if qBit != 0 {
		n := ((ac13 & 0x1f80) >> 2) | ((ac13 & 0x0020) >> 1) | (ac13 & 0x000f)
		return n*25 - 1000, true
	}
	n, ok := modeAToModeC(decodeID13Field(ac13))
	if !ok {
		return 0, false
	}
	return n * 100, true
}

// decodeAC12Field decodes the 12-bit altitude field used by DF17/18
// airborne position messages (type codes 9-18, 20-22).
func decodeAC12Field(ac12 int) (feet int, ok bool) {
	qBit := ac12 & 0x0010
	if qBit != 0 {
		n := ((ac12 & 0x0fe0) >> 1) | (ac12 & 0x000f)
		return n*25 - 1000, true
	}
	id13 := ((ac12 & 0x0fc0) << 1) | (ac12 & 0x003f)
	n, ok := modeAToModeC(decodeID13Field(id13))
	if !ok {
		return 0, false
	}
	return n * 100, true
}

// decodeSquawk converts a raw 13-bit identity field into the 4-digit octal
// squawk string a Mode A/DF5/DF21 reply carries. Gillham places A1/A2/A4 at
// 0x1000/0x2000/0x4000, B1/B2/B4 at 0x100/0x200/0x400, C1/C2/C4 at
// 0x10/0x20/0x40, D1/D2/D4 at 0x1/0x2/0x4.
func decodeSquawk(id13 int) string {
	g := decodeID13Field(id13)
	a := ((g>>14)&1)<<2 | ((g>>13)&1)<<1 | (g>>12)&1
	b := ((g>>10)&1)<<2 | ((g>>9)&1)<<1 | (g>>8)&1
	c := ((g>>6)&1)<<2 | ((g>>5)&1)<<1 | (g>>4)&1
	d := ((g>>2)&1)<<2 | ((g>>1)&1)<<1 | g&1
	return fmt.Sprintf("%d%d%d%d", a, b, c, d)
}

func bits(data []byte, startBit, n int) int {
	v := 0
	for i := 0; i < n; i++ {
		byteIdx := (startBit + i) / 8
		bitIdx := uint(7 - (startBit+i)%8)
		if byteIdx >= len(data) {
			continue
		}
		v <<= 1
		if data[byteIdx]&(1<<bitIdx) != 0 {
			v |= 1
		}
	}
	return v
}

// decodeCallsign extracts an 8-character identification string from the 8
// 6-bit characters packed starting at bit 8 of a type 1-4 ME field.
func decodeCallsign(data []byte) string {
	var out [8]byte
	for i := 0; i < 8; i++ {
		c := bits(data, 40+i*6, 6)
		if c < len(adsbCharset) {
			out[i] = adsbCharset[c]
		} else {
			out[i] = '?'
		}
	}
	return string(out[:])
}

// decodeVelocity parses a type-19 airborne velocity ME field (subtypes
// 1/2 ground speed, 3/4 airspeed), returning speed in knots, track in
// degrees and vertical rate in ft/min. Grounded on OJPARKINSON's
// DecodeVelocity, generalized to a shared DecodedMessage.
func decodeVelocity(data []byte) (speed, track float64, vrate int, ok bool) {
	subtype := bits(data, 37, 3)
	switch subtype {
	case 1, 2:
		ewDir := bits(data, 45, 1)
		ewVel := bits(data, 46, 10)
		nsDir := bits(data, 56, 1)
		nsVel := bits(data, 57, 10)
		if ewVel == 0 || nsVel == 0 {
			return 0, 0, 0, false
		}
		vew := float64(ewVel - 1)
		vns := float64(nsVel - 1)
		if ewDir != 0 {
			vew = -vew
		}
		if nsDir != 0 {
			vns = -vns
		}
		if subtype == 2 { // supersonic: 4x scaling
			vew *= 4
			vns *= 4
		}
		speed = hypot(vew, vns)
		track = headingDeg(vew, vns)
		ok = true
	case 3, 4:
		hdgStatus := bits(data, 45, 1)
		if hdgStatus != 0 {
			hdgRaw := bits(data, 46, 10)
			track = float64(hdgRaw) * 360.0 / 1024.0
		}
		asVal := bits(data, 57, 10)
		if asVal == 0 {
			return 0, track, 0, false
		}
		speed = float64(asVal - 1)
		if subtype == 4 {
			speed *= 4
		}
		ok = true
	default:
		return 0, 0, 0, false
	}

	vrSign := bits(data, 68, 1)
	vrRaw := bits(data, 69, 9)
	if vrRaw != 0 {
		vrate = (vrRaw - 1) * 64
		if vrSign != 0 {
			vrate = -vrate
		}
	}
	return speed, track, vrate, ok
}

func hypot(a, b float64) float64 {
	return math.Sqrt(a*a + b*b)
}

func headingDeg(ew, ns float64) float64 {
	h := math.Atan2(ew, ns) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return h
}
