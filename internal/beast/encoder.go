package beast

import (
	"bytes"

	"go1090/internal/adsb"
)

// Encoder serializes decoded messages back into Beast binary frames
// (§4.7/§5.6), the inverse of Decoder.decodeMessage.
type Encoder struct{}

// NewEncoder creates a new Beast encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// messageTypeFor maps a raw message's byte length to a Beast type byte.
func messageTypeFor(raw adsb.RawMessage) byte {
	switch len(raw.Data) {
	case 2:
		return ModeAC
	case 7:
		return ModeS
	case 14:
		return ModeSLong
	default:
		return 0
	}
}

// Encode serializes raw's frame into a Beast binary record: sync
// byte, type, 6-byte big-endian 12MHz timestamp, 1-byte signal level,
// then the payload, with every 0x1A byte from the timestamp onward
// doubled per the Beast escaping rule.
func (e *Encoder) Encode(raw adsb.RawMessage) []byte {
	msgType := messageTypeFor(raw)
	if msgType == 0 {
		return nil
	}

	body := make([]byte, 0, 6+1+len(raw.Data))

	ticks := uint64(raw.Timestamp.UnixNano()) * 12 / 1000
	var tsBytes [6]byte
	for i := 5; i >= 0; i-- {
		tsBytes[i] = byte(ticks)
		ticks >>= 8
	}
	body = append(body, tsBytes[:]...)

	body = append(body, clampSignal(raw.SignalRSSI))
	body = append(body, raw.Data...)

	out := make([]byte, 0, 2+2*len(body))
	out = append(out, SyncByte, msgType)
	for _, b := range body {
		if b == SyncByte {
			out = append(out, SyncByte)
		}
		out = append(out, b)
	}
	return out
}

// clampSignal maps an RSSI value (dBFS, <= 0) onto the Beast 0-255
// signal-level byte, matching the dump1090-lineage scaling of the
// decoder's own signal field.
func clampSignal(rssiDBFS float64) byte {
	level := (rssiDBFS + 49.0) * 5.2
	if level < 0 {
		level = 0
	}
	if level > 255 {
		level = 255
	}
	return byte(level)
}

// EncodeAVR renders the raw payload as AVR/SBS ASCII framing: `*`,
// uppercase hex, `;`, newline (§4.7).
func EncodeAVR(raw adsb.RawMessage) []byte {
	var buf bytes.Buffer
	buf.WriteByte('*')
	buf.WriteString(hexUpper(raw.Data))
	buf.WriteByte(';')
	buf.WriteByte('\n')
	return buf.Bytes()
}

const hexDigits = "0123456789ABCDEF"

func hexUpper(data []byte) string {
	out := make([]byte, len(data)*2)
	for i, b := range data {
		out[i*2] = hexDigits[b>>4]
		out[i*2+1] = hexDigits[b&0x0F]
	}
	return string(out)
}
