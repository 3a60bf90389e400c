package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "reg.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestCSVProviderLookup(t *testing.T) {
	path := writeCSV(t, "icao24,registration,manufacturericao,model,operatorcallsign\n"+
		"4840d6,PH-BFA,BOEING,737-800,KLM\n")

	p, err := NewCSVProvider(path)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())

	reg, ok := p.Lookup("4840D6")
	require.True(t, ok)
	assert.Equal(t, "PH-BFA", reg.RegNumber)
	assert.Equal(t, "KLM", reg.CallSign)

	_, ok = p.Lookup("ffffff")
	assert.False(t, ok)
}

func TestCSVProviderMissingHeader(t *testing.T) {
	path := writeCSV(t, "registration,manufacturericao\nPH-BFA,BOEING\n")
	_, err := NewCSVProvider(path)
	assert.Error(t, err)
}
