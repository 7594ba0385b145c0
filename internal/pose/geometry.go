package pose

import (
	"fmt"
	"math"
)

// Angle returns the angle in degrees at vertex b formed by the segments
// b→a and b→c, folded into [0, 180]. Landmarks below minVisibility yield
// ErrLowConfidence so callers can treat the metric as unavailable for the
// frame.
func Angle(a, b, c Landmark, minVisibility float64) (float64, error) {
	for _, lm := range []Landmark{a, b, c} {
		if lm.Visibility < minVisibility {
			return 0, ErrLowConfidence
		}
	}

	rad := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	deg := math.Abs(rad * 180 / math.Pi)
	if deg > 180 {
		deg = 360 - deg
	}
	return deg, nil
}

// DistanceRatio returns |p1−p2| / |p3−p4| for normalized comparisons such
// as shoulder width against hip width. A near-zero denominator segment is
// reported as low confidence: the estimator has collapsed the two points
// and the ratio is meaningless.
func DistanceRatio(p1, p2, p3, p4 Landmark, minVisibility float64) (float64, error) {
	for _, lm := range []Landmark{p1, p2, p3, p4} {
		if lm.Visibility < minVisibility {
			return 0, ErrLowConfidence
		}
	}

	num := math.Hypot(p1.X-p2.X, p1.Y-p2.Y)
	den := math.Hypot(p3.X-p4.X, p3.Y-p4.Y)
	if den < 1e-9 {
		return 0, fmt.Errorf("%w: zero-length reference segment", ErrLowConfidence)
	}
	return num / den, nil
}
