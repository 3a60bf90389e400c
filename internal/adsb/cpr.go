package adsb

import "math"

// cprNL is the number-of-longitude-zones function from 1090-WP-9-14,
// reused verbatim: it is identical across the teacher's cpr.go and
// Regentag-go1090's mode_s/aircraft.go, and is already the correct table.
func cprNL(lat float64) int {
	if lat < 0 {
		lat = -lat
	}
	switch {
	case lat < 10.47047130:
		return 59
	case lat < 14.82817437:
		return 58
	case lat < 18.18626357:
		return 57
	case lat < 21.02939493:
		return 56
	case lat < 23.54504487:
		return 55
	case lat < 25.82924707:
		return 54
	case lat < 27.93898710:
		return 53
	case lat < 29.91135686:
		return 52
	case lat < 31.77209708:
		return 51
	case lat < 33.53993436:
		return 50
	case lat < 35.22899598:
		return 49
	case lat < 36.85025108:
		return 48
	case lat < 38.41241892:
		return 47
	case lat < 39.92256684:
		return 46
	case lat < 41.38651832:
		return 45
	case lat < 42.80914012:
		return 44
	case lat < 44.19454951:
		return 43
	case lat < 45.54626723:
		return 42
	case lat < 46.86733252:
		return 41
	case lat < 48.16039128:
		return 40
	case lat < 49.42776439:
		return 39
	case lat < 50.67150166:
		return 38
	case lat < 51.89342469:
		return 37
	case lat < 53.09516153:
		return 36
	case lat < 54.27817472:
		return 35
	case lat < 55.44378444:
		return 34
	case lat < 56.59318756:
		return 33
	case lat < 57.72747354:
		return 32
	case lat < 58.84763776:
		return 31
	case lat < 59.95459277:
		return 30
	case lat < 61.04917774:
		return 29
	case lat < 62.13216659:
		return 28
	case lat < 63.20427479:
		return 27
	case lat < 64.26616523:
		return 26
	case lat < 65.31845310:
		return 25
	case lat < 66.36171008:
		return 24
	case lat < 67.39646774:
		return 23
	case lat < 68.42322022:
		return 22
	case lat < 69.44242631:
		return 21
	case lat < 70.45451075:
		return 20
	case lat < 71.45986473:
		return 19
	case lat < 72.45884545:
		return 18
	case lat < 73.45177442:
		return 17
	case lat < 74.43893416:
		return 16
	case lat < 75.42056257:
		return 15
	case lat < 76.39684391:
		return 14
	case lat < 77.36789461:
		return 13
	case lat < 78.33374083:
		return 12
	case lat < 79.29428225:
		return 11
	case lat < 80.24923213:
		return 10
	case lat < 81.19801349:
		return 9
	case lat < 82.13956981:
		return 8
	case lat < 83.07199445:
		return 7
	case lat < 83.99173563:
		return 6
	case lat < 84.89166191:
		return 5
	case lat < 85.75541621:
		return 4
	case lat < 86.53536998:
		return 3
	case lat < 87.00000000:
		return 2
	default:
		return 1
	}
}

func cprMod(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

func cprN(lat float64, odd int) int {
	n := cprNL(lat) - odd
	if n < 1 {
		n = 1
	}
	return n
}

func cprDlon(lat float64, odd int) float64 {
	return 360.0 / float64(cprN(lat, odd))
}

// CPRFrame is one half (even or odd) of a globally-encoded position pair.
type CPRFrame struct {
	Lat, Lon int
	Time     float64 // seconds, monotonic-ish timestamp of receipt
	Valid    bool
}

// globalDecode resolves an even/odd CPR frame pair into a latitude and
// longitude, following the 1090-WP-9-14 algorithm (teacher's/Regentag's
// cpr.go, both ported from dump1090). latestOdd selects which frame's zone
// width governs the longitude computation, matching whichever of the pair
// arrived most recently.
// GlobalDecode is the exported entry point globalDecode backs, used by
// both the processor's even/odd tracking and the aircraft table's
// position resolution (called with the aircraft record's own CPR pair
// as seed).
func GlobalDecode(even, odd CPRFrame, latestOdd bool) (lat, lon float64, ok bool) {
	return globalDecode(even, odd, latestOdd)
}

func globalDecode(even, odd CPRFrame, latestOdd bool) (lat, lon float64, ok bool) {
	lat0, lon0 := float64(even.Lat), float64(even.Lon)
	lat1, lon1 := float64(odd.Lat), float64(odd.Lon)

	j := math.Floor(((59*lat0 - 60*lat1) / cprResolution) + 0.5)
	rlat0 := airDlatEven * (cprModF(j, 60) + lat0/cprResolution)
	rlat1 := airDlatOdd * (cprModF(j, 59) + lat1/cprResolution)

	if rlat0 >= 270 {
		rlat0 -= 360
	}
	if rlat1 >= 270 {
		rlat1 -= 360
	}

	if cprNL(rlat0) != cprNL(rlat1) {
		return 0, 0, false
	}

	if !latestOdd {
		ni := cprN(rlat0, 0)
		m := math.Floor((lon0*float64(cprNL(rlat0)-1)-lon1*float64(cprNL(rlat0)))/cprResolution + 0.5)
		lon = cprDlon(rlat0, 0) * (cprModF(m, float64(ni)) + lon0/cprResolution)
		lat = rlat0
	} else {
		ni := cprN(rlat1, 1)
		m := math.Floor((lon0*float64(cprNL(rlat1)-1)-lon1*float64(cprNL(rlat1)))/cprResolution + 0.5)
		lon = cprDlon(rlat1, 1) * (cprModF(m, float64(ni)) + lon1/cprResolution)
		lat = rlat1
	}
	if lon > 180 {
		lon -= 360
	}
	return lat, lon, true
}

func cprModF(a, b float64) float64 {
	r := math.Mod(a, b)
	if r < 0 {
		r += b
	}
	return r
}

// LocalDecode resolves a single (even or odd) CPR frame relative to a
// known reference position, per §4.4. Returns ok=false if the resolved
// position falls outside maxDistNmi of ref (plausibility check the
// teacher's CPR code does not perform; added per spec).
func LocalDecode(refLat, refLon float64, frame CPRFrame, odd bool, maxDistNmi float64) (lat, lon float64, ok bool) {
	dlatIdx := 0
	if odd {
		dlatIdx = 1
	}
	dlat := airDlatEven
	if odd {
		dlat = airDlatOdd
	}

	j := math.Floor(refLat/dlat) + math.Floor(0.5+cprModF(refLat, dlat)/dlat-float64(frame.Lat)/cprResolution)
	rlat := dlat * (j + float64(frame.Lat)/cprResolution)

	dlon := 360.0
	if n := cprN(rlat, dlatIdx); n > 0 {
		dlon = 360.0 / float64(n)
	}

	m := math.Floor(refLon/dlon) + math.Floor(0.5+cprModF(refLon, dlon)/dlon-float64(frame.Lon)/cprResolution)
	rlon := dlon * (m + float64(frame.Lon)/cprResolution)

	dist := greatCircleNmi(refLat, refLon, rlat, rlon)
	if dist > maxDistNmi {
		return 0, 0, false
	}
	return rlat, rlon, true
}

// GreatCircleNmi exposes the haversine distance helper for callers
// outside the package (the aircraft table's distance-to-home and
// global_dist_checks bookkeeping).
func GreatCircleNmi(lat1, lon1, lat2, lon2 float64) float64 {
	return greatCircleNmi(lat1, lon1, lat2, lon2)
}

func greatCircleNmi(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusNmi = 3440.065
	rad := math.Pi / 180
	dlat := (lat2 - lat1) * rad
	dlon := (lon2 - lon1) * rad
	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusNmi * c
}
