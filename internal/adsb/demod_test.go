package adsb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// validPreambleWindow satisfies the literal §4.2 shape test:
// m[0]>m[1], m[2]>m[1], m[2]>m[3], m[3]<m[4], m[4]<m[5], m[5]<m[6],
// m[6]>m[7], m[7]>m[8], m[8]>m[9], m[9]>m[10].
func validPreambleWindow() []uint16 {
	return []uint16{10, 2, 12, 3, 11, 13, 14, 9, 4, 3, 1, 0, 0, 0, 0, 0}
}

func TestDetectPreambleAcceptsValidShape(t *testing.T) {
	level, ok := detectPreamble(validPreambleWindow())
	assert.True(t, ok)
	assert.InDelta(t, 83.5, level, 0.01)
}

func TestDetectPreambleTooShort(t *testing.T) {
	_, ok := detectPreamble(make([]uint16, 10))
	assert.False(t, ok)
}

// TestDetectPreambleRejectsEachBrokenInequality breaks each of the ten
// shape constraints in turn and confirms detection fails every time,
// guarding against a weaker substitute test (e.g. "every pulse exceeds
// every silence sample") slipping back in.
func TestDetectPreambleRejectsEachBrokenInequality(t *testing.T) {
	breakers := []struct {
		name string
		fn   func([]uint16)
	}{
		{"m0>m1", func(m []uint16) { m[0] = m[1] }},
		{"m2>m1", func(m []uint16) { m[2] = m[1] }},
		{"m2>m3", func(m []uint16) { m[2] = m[3] }},
		{"m3<m4", func(m []uint16) { m[3] = m[4] }},
		{"m4<m5", func(m []uint16) { m[4] = m[5] }},
		{"m5<m6", func(m []uint16) { m[5] = m[6] }},
		{"m6>m7", func(m []uint16) { m[6] = m[7] }},
		{"m7>m8", func(m []uint16) { m[7] = m[8] }},
		{"m8>m9", func(m []uint16) { m[8] = m[9] }},
		{"m9>m10", func(m []uint16) { m[9] = m[10] }},
	}

	for _, b := range breakers {
		m := validPreambleWindow()
		b.fn(m)
		_, ok := detectPreamble(m)
		assert.False(t, ok, "expected rejection after breaking %s", b.name)
	}
}

// TestDetectPreambleIdempotentAndOverlapSafe exercises §8's idempotence
// and overlap property: repeated calls over the same window return an
// identical result, and scanning every offset in a buffer that contains
// exactly one valid preamble only reports a match at its true start,
// never at an overlapping neighbor.
func TestDetectPreambleIdempotentAndOverlapSafe(t *testing.T) {
	buf := make([]uint16, 32)
	copy(buf[5:], validPreambleWindow())

	level1, ok1 := detectPreamble(buf[5:])
	level2, ok2 := detectPreamble(buf[5:])
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, level1, level2)
	assert.True(t, ok1)

	for offset := 0; offset+16 <= len(buf); offset++ {
		_, ok := detectPreamble(buf[offset:])
		if offset == 5 {
			assert.True(t, ok, "expected a match at the true preamble start")
			continue
		}
		assert.False(t, ok, "unexpected match at offset %d", offset)
	}
}
