package spline

// ArcTable is a chord-length lookup table mapping curve parameters to
// cumulative arc length, used to convert physical distances along a curve
// into evaluation parameters.
type ArcTable struct {
	params []float64
	cum    []float64
}

// DefaultArcResolution is the subdivision count used when callers have no
// accuracy requirement of their own.
const DefaultArcResolution = 512

// ArcTable builds a lookup table with the given number of chord subdivisions.
func (c *Curve) ArcTable(resolution int) ArcTable {
	if resolution < 2 {
		resolution = 2
	}

	params := make([]float64, resolution+1)
	cum := make([]float64, resolution+1)

	prev := c.PointAt(0)
	for i := 1; i <= resolution; i++ {
		u := float64(i) / float64(resolution)
		pt := c.PointAt(u)
		params[i] = u
		cum[i] = cum[i-1] + pt.Distance(prev)
		prev = pt
	}
	return ArcTable{params: params, cum: cum}
}

// Length returns the total arc length of the curve.
func (t ArcTable) Length() float64 {
	return t.cum[len(t.cum)-1]
}

// ParamAtLength converts an arc-length distance from the curve start into a
// normalized parameter. Distances outside [0, Length] clamp to the ends.
func (t ArcTable) ParamAtLength(s float64) float64 {
	total := t.Length()
	if s <= 0 || total == 0 {
		return 0
	}
	if s >= total {
		return t.params[len(t.params)-1]
	}

	// Binary search for the chord containing s.
	lo, hi := 0, len(t.cum)-1
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if t.cum[mid] < s {
			lo = mid
		} else {
			hi = mid
		}
	}

	span := t.cum[hi] - t.cum[lo]
	frac := 0.0
	if span > 0 {
		frac = (s - t.cum[lo]) / span
	}
	return t.params[lo] + frac*(t.params[hi]-t.params[lo])
}

// LengthAtParam returns the arc length from the curve start to parameter u.
func (t ArcTable) LengthAtParam(u float64) float64 {
	if u <= 0 {
		return 0
	}
	if u >= 1 {
		return t.Length()
	}

	lo, hi := 0, len(t.params)-1
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if t.params[mid] < u {
			lo = mid
		} else {
			hi = mid
		}
	}

	span := t.params[hi] - t.params[lo]
	frac := 0.0
	if span > 0 {
		frac = (u - t.params[lo]) / span
	}
	return t.cum[lo] + frac*(t.cum[hi]-t.cum[lo])
}
