package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		line string
		want Command
	}{
		{"shutdown", Command{Kind: Shutdown}},
		{"set-home 51.5 -0.1", Command{Kind: SetHome, Lat: 51.5, Lon: -0.1}},
		{"set-ttl 30000", Command{Kind: SetTTL, TTLMillis: 30000}},
		{"reset-stats", Command{Kind: ResetStats}},
		{"follow 4840d6", Command{Kind: Follow, Hex: "4840D6"}},
	}

	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			got, err := ParseCommand(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	cases := []string{
		"",
		"set-home 51.5",
		"set-home abc -0.1",
		"set-ttl",
		"set-ttl notanumber",
		"follow",
		"nonsense",
	}

	for _, line := range cases {
		t.Run(line, func(t *testing.T) {
			_, err := ParseCommand(line)
			assert.Error(t, err)
		})
	}
}

func TestChannelSendDropsWhenFull(t *testing.T) {
	c := NewChannel(1)
	assert.True(t, c.Send(Command{Kind: ResetStats}))
	assert.False(t, c.Send(Command{Kind: Shutdown}))

	got := <-c.C()
	assert.Equal(t, ResetStats, got.Kind)
}
