package basestation

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090/internal/adsb"
	"go1090/internal/logging"
)

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	rotator, err := logging.NewLogRotator(t.TempDir(), false, logger)
	require.NoError(t, err)
	t.Cleanup(func() { rotator.Close() })
	return NewWriter(rotator, logger)
}

func TestWriteMessageAirbornePosition(t *testing.T) {
	w := newTestWriter(t)

	dm := &adsb.DecodedMessage{
		Raw:      adsb.RawMessage{Timestamp: time.Unix(1700000000, 0)},
		DF:       17,
		ICAO:     0x4840D6,
		METype:   11,
		Attrs:    adsb.HasPosition | adsb.HasAltitude,
		Altitude: 35000,
		Lat:      51.5,
		Lon:      -0.1,
	}
	require.NoError(t, w.WriteMessage(dm))

	path := w.logRotator.GetCurrentLogFile()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	fields := strings.Split(line, ",")
	assert.Equal(t, MSG, fields[0])
	assert.Equal(t, "3", fields[1]) // TransmissionES_AIRBORNE
	assert.Equal(t, "4840D6", fields[4])
	assert.Equal(t, "35000", fields[11])
	assert.Equal(t, "51.500000", fields[14])
	assert.Equal(t, "-0.100000", fields[15])
}

func TestWriteMessageIdentification(t *testing.T) {
	w := newTestWriter(t)

	dm := &adsb.DecodedMessage{
		Raw:      adsb.RawMessage{Timestamp: time.Unix(1700000000, 0)},
		DF:       17,
		ICAO:     0x4840D6,
		METype:   4,
		Attrs:    adsb.HasCallsign,
		Callsign: "UAL123",
	}
	require.NoError(t, w.WriteMessage(dm))

	path := w.logRotator.GetCurrentLogFile()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fields := strings.Split(strings.TrimSpace(string(data)), ",")
	assert.Equal(t, "1", fields[1]) // TransmissionES_ID_CAT
	assert.Equal(t, "UAL123", fields[10])
}

func TestWriteMessageUnsupportedDFReturnsNilWithoutError(t *testing.T) {
	w := newTestWriter(t)

	dm := &adsb.DecodedMessage{DF: 24, ICAO: 0x4840D6}
	require.NoError(t, w.WriteMessage(dm))

	path := w.logRotator.GetCurrentLogFile()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestWriteMessageNilGuard(t *testing.T) {
	w := newTestWriter(t)
	err := w.WriteMessage(nil)
	assert.Error(t, err)
}
