package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go1090/internal/app"
)

func TestConfigDefaults(t *testing.T) {
	config := app.Config{
		Frequency:   app.DefaultFrequency,
		SampleRate:  app.DefaultSampleRate,
		Gain:        app.DefaultGain,
		DeviceIndex: 0,
		LogDir:      "./logs",
	}

	assert.Equal(t, uint32(1090000000), config.Frequency)
	assert.Equal(t, uint32(2000000), config.SampleRate)
	assert.Equal(t, 40, config.Gain)
}

func TestNewApplicationFromConfig(t *testing.T) {
	config := app.Config{
		Frequency:   app.DefaultFrequency,
		SampleRate:  app.DefaultSampleRate,
		Gain:        app.DefaultGain,
		DeviceIndex: 0,
		LogDir:      "./logs",
	}

	application := app.NewApplication(config)
	assert.NotNil(t, application)
}

func TestNewApplicationVerbose(t *testing.T) {
	application := app.NewApplication(app.Config{Verbose: true})
	assert.NotNil(t, application)
}

func TestShowVersionPrintsBanner(t *testing.T) {
	assert.NotPanics(t, func() {
		app.ShowVersion()
	})
}
