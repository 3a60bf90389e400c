package adsb

import "math"

// magLUT converts an 8-bit I/Q sample pair straight to a magnitude value,
// avoiding a sqrt per sample during demodulation. The table is
// quadrant-symmetric (magnitude centres each byte on 127, so |I| and |Q|
// fall in 0..128) and a 129x129 table covers the full 256x256 input space, populated once here rather than
// lazily so the demodulator never stalls on a cache miss (§4.1).
var magLUT [129][129]uint16

func init() {
	for i := 0; i <= 128; i++ {
		for q := 0; q <= 128; q++ {
			fi := float64(i)
			fq := float64(q)
			magLUT[i][q] = uint16(math.Sqrt(fi*fi+fq*fq)*1.0 + 0.5)
		}
	}
}

// magnitude converts raw 8-bit-centered I/Q bytes (typically biased around
// 127.5 the way RTL-SDR delivers them) into the table's index space and
// looks up the scaled magnitude.
func magnitude(i, q byte) uint16 {
	di := int(i) - 127
	if di < 0 {
		di = -di
	}
	dq := int(q) - 127
	if dq < 0 {
		dq = -dq
	}
	if di > 128 {
		di = 128
	}
	if dq > 128 {
		dq = 128
	}
	return magLUT[di][dq]
}

// ToMagnitude converts a raw interleaved I/Q byte buffer straight off the
// radio into a magnitude sample stream, one uint16 per I/Q pair, for
// callers outside this package feeding Processor.ProcessSamples.
func ToMagnitude(iq []byte) []uint16 {
	return toMagnitude(iq)
}

// toMagnitude converts a raw interleaved I/Q byte buffer into a magnitude
// sample stream, one uint16 per I/Q pair.
func toMagnitude(iq []byte) []uint16 {
	n := len(iq) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = magnitude(iq[2*i], iq[2*i+1])
	}
	return out
}

// preamblePulses are the four pulse-peak sample indices of a Mode S
// preamble at 2.0 Msps (one sample per half-microsecond), used only for
// the reported signal level; the shape test itself runs over m[0..10]
// directly (§4.2).
var preamblePulses = [4]int{0, 2, 7, 9}

// detectPreamble tests whether a Mode S preamble begins at m[0] of the
// supplied magnitude window (len(m) must be at least 16). It applies the
// preamble's literal pulse-position shape test over samples m[0..10]
// (§4.2): m[0]>m[1], m[2]>m[1], m[2]>m[3], m[3]<m[4], m[4]<m[5],
// m[5]<m[6], m[6]>m[7], m[7]>m[8], m[8]>m[9], m[9]>m[10]. It returns the
// mean-square signal level of the four pulse peaks and true if the shape
// test passes.
func detectPreamble(m []uint16) (level float64, ok bool) {
	if len(m) < 16 {
		return 0, false
	}

	shape := m[0] > m[1] &&
		m[2] > m[1] &&
		m[2] > m[3] &&
		m[3] < m[4] &&
		m[4] < m[5] &&
		m[5] < m[6] &&
		m[6] > m[7] &&
		m[7] > m[8] &&
		m[8] > m[9] &&
		m[9] > m[10]
	if !shape {
		return 0, false
	}

	var sum float64
	for _, p := range preamblePulses {
		v := float64(m[p])
		sum += v * v
	}
	level = sum / 4

	return level, true
}

// demodulateBits slices nbits data bits out of the
// magnitude stream starting right after the preamble (sample offset 16),
// two magnitude samples per bit: bit is 1 when the first half-bit sample
// exceeds the second. Low-confidence calls (samples within noise of each
// other) increment uncertain so the caller can discard unreadable frames
// (§4.2, §8's readability property).
func demodulateBits(m []uint16, nbits int) (bits []byte, uncertain int) {
	bits = make([]byte, nbits)
	for i := 0; i < nbits; i++ {
		off := 16 + i*2
		if off+1 >= len(m) {
			uncertain++
			continue
		}
		a, b := m[off], m[off+1]
		if a > b {
			bits[i] = 1
		} else {
			bits[i] = 0
		}
		diff := int(a) - int(b)
		if diff < 0 {
			diff = -diff
		}
		if diff < 4 {
			uncertain++
		}
	}
	return bits, uncertain
}

// packBits folds a one-bit-per-byte slice into the standard big-endian
// byte layout Mode S frames use on the wire.
func packBits(bits []byte) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b != 0 {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}
