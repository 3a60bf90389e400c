package registry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVProvider loads the aircraft registration CSV the spec describes as
// an external collaborator ("the aircraft registration CSV loader")
// into memory once and serves lookups from a map. Columns are matched
// by header name so a variety of registration CSV exports (FAA, OpenSky
// dumps, etc.) can be pointed at it without a fixed column order.
type CSVProvider struct {
	byICAO map[string]*Registration
}

// NewCSVProvider reads the whole file into memory. Expected headers
// (case-insensitive): icao24, registration, manufacturericao or
// manufacturer, model or typecode, operatorcallsign, icaoaircrafttype.
func NewCSVProvider(path string) (*CSVProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registration csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read registration csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	idx := func(names ...string) int {
		for _, n := range names {
			if i, ok := col[n]; ok {
				return i
			}
		}
		return -1
	}

	icaoIdx := idx("icao24", "icao", "hex", "modes")
	if icaoIdx == -1 {
		return nil, fmt.Errorf("registration csv missing icao24 column")
	}
	regIdx := idx("registration", "regid", "reg")
	mfrIdx := idx("manufacturericao", "manufacturer", "mfr")
	typeIdx := idx("model", "typecode", "icaoaircrafttype", "type")
	callIdx := idx("operatorcallsign", "callsign")
	heliIdx := idx("icaoaircrafttype")

	p := &CSVProvider{byICAO: make(map[string]*Registration)}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read registration csv row: %w", err)
		}
		if icaoIdx >= len(rec) {
			continue
		}
		icao := strings.ToLower(strings.TrimSpace(rec[icaoIdx]))
		if icao == "" {
			continue
		}
		reg := Registration{ICAO24: icao}
		if regIdx >= 0 && regIdx < len(rec) {
			reg.RegNumber = strings.TrimSpace(rec[regIdx])
		}
		if mfrIdx >= 0 && mfrIdx < len(rec) {
			reg.Manufacturer = strings.TrimSpace(rec[mfrIdx])
		}
		if typeIdx >= 0 && typeIdx < len(rec) {
			reg.Type = strings.TrimSpace(rec[typeIdx])
		}
		if callIdx >= 0 && callIdx < len(rec) {
			reg.CallSign = strings.TrimSpace(rec[callIdx])
		}
		if heliIdx >= 0 && heliIdx < len(rec) {
			reg.Helicopter = strings.EqualFold(strings.TrimSpace(rec[heliIdx]), "H")
		}
		p.byICAO[icao] = &reg
	}

	return p, nil
}

// Lookup implements Provider.
func (p *CSVProvider) Lookup(icao24 string) (Registration, bool) {
	reg, ok := p.byICAO[strings.ToLower(icao24)]
	if !ok {
		return Registration{}, false
	}
	return *reg, ok
}

// LookupRef implements RefProvider: the returned pointer is stable for
// the process lifetime, so callers may borrow it instead of copying
// (the aircraft table's tagged registration-variant cache does this).
func (p *CSVProvider) LookupRef(icao24 string) (*Registration, bool) {
	reg, ok := p.byICAO[strings.ToLower(icao24)]
	return reg, ok
}

// Len reports how many registration rows were loaded.
func (p *CSVProvider) Len() int {
	return len(p.byICAO)
}
