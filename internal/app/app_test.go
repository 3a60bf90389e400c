package app

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go1090/internal/adsb"
	"go1090/internal/control"
)

func TestConstants(t *testing.T) {
	assert.Equal(t, uint32(1090000000), uint32(DefaultFrequency))
	assert.Equal(t, uint32(2000000), uint32(DefaultSampleRate))
	assert.Equal(t, 40, DefaultGain)
}

func TestShowVersion(t *testing.T) {
	assert.NotPanics(t, func() {
		ShowVersion()
	})
}

func TestNewApplication(t *testing.T) {
	config := Config{
		Frequency:   DefaultFrequency,
		SampleRate:  DefaultSampleRate,
		Gain:        DefaultGain,
		DeviceIndex: 0,
		LogDir:      "./test_logs",
	}

	app := NewApplication(config)

	assert.NotNil(t, app)
	assert.NotNil(t, app.logger)
	assert.NotNil(t, app.ctx)
}

func TestApplicationLoggerConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
	}{
		{name: "Verbose logging", verbose: true},
		{name: "Normal logging", verbose: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Config{
				Frequency:   DefaultFrequency,
				SampleRate:  DefaultSampleRate,
				Gain:        DefaultGain,
				DeviceIndex: 0,
				LogDir:      "./test_logs",
				Verbose:     tt.verbose,
			}

			app := NewApplication(config)
			assert.NotNil(t, app.logger)
		})
	}
}

func TestApplicationToMagnitudeConversion(t *testing.T) {
	tests := []struct {
		name        string
		input       []byte
		expectedLen int
	}{
		{name: "Empty input", input: []byte{}, expectedLen: 0},
		{name: "Single I/Q pair", input: []byte{0x80, 0x80}, expectedLen: 1},
		{name: "Multiple I/Q pairs", input: []byte{0x80, 0x80, 0x7F, 0x7F, 0x81, 0x81}, expectedLen: 3},
		{name: "Odd trailing byte ignored", input: []byte{0x80, 0x80, 0x7F}, expectedLen: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := adsb.ToMagnitude(tt.input)
			assert.Equal(t, tt.expectedLen, len(result))
		})
	}
}

func TestApplicationPublishRefreshMillisDefaultsWhenUnset(t *testing.T) {
	app := NewApplication(Config{})
	assert.Equal(t, DefaultPublishRefreshMillis, app.publishRefreshMillis())

	app2 := NewApplication(Config{PublishRefreshMS: 500})
	assert.Equal(t, 500, app2.publishRefreshMillis())
}

func TestApplicationApplyCommandResetStats(t *testing.T) {
	app := NewApplication(Config{})
	app.processor = adsb.NewProcessor(app.logger)
	app.table = nil // reset-stats does not touch the table

	app.processor.ProcessSamples(make([]uint16, 32), time.Now()) // nudge stats machinery
	app.applyCommand(control.Command{Kind: control.ResetStats})

	stats := app.processor.GetStats()
	assert.Equal(t, uint64(0), stats.ValidMessages)
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.RemoveAll("./test_logs")
	os.Exit(code)
}
