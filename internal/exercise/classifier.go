package exercise

import (
	"errors"

	"github.com/meltforce/movassist/internal/pose"
)

// Metrics holds the measurements computed for one frame. A metric that
// could not be computed (occluded landmark, missing joint) is simply
// absent.
type Metrics map[string]float64

// ComputeMetrics evaluates every metric in the definition against a frame,
// resolving side-relative joint names for the detected side. Unavailable
// metrics are omitted; only genuinely unexpected errors are returned.
func ComputeMetrics(def *Definition, f *pose.Frame, side pose.Side, minVisibility float64) Metrics {
	m := make(Metrics, len(def.Metrics))
	for name, spec := range def.Metrics {
		lms := make([]pose.Landmark, 0, len(spec.Points))
		ok := true
		for _, p := range spec.Points {
			lm, err := f.Landmark(pose.Sided(p, side))
			if err != nil {
				ok = false
				break
			}
			lms = append(lms, lm)
		}
		if !ok {
			continue
		}

		var v float64
		var err error
		switch spec.Type {
		case MetricAngle:
			v, err = pose.Angle(lms[0], lms[1], lms[2], minVisibility)
		case MetricRatio:
			v, err = pose.DistanceRatio(lms[0], lms[1], lms[2], lms[3], minVisibility)
		}
		if errors.Is(err, pose.ErrLowConfidence) {
			continue
		}
		if err != nil {
			continue
		}
		m[name] = v
	}
	return m
}

// Classify maps one frame's metrics to a phase. Pure function of the
// metrics and the previous phase: the previous phase splits the band
// between the two thresholds into descent and ascent, and keeps a value
// sitting exactly on a threshold in its current phase. An unavailable
// drive metric holds the previous phase so momentary occlusion cannot
// cause a spurious transition.
func Classify(def *Definition, m Metrics, prev Phase) Phase {
	v, ok := m[def.DriveMetric]
	if !ok {
		return prev
	}

	switch prev {
	case def.StartPhase:
		if v >= def.UpMin {
			return def.StartPhase
		}
		if v <= def.BottomMax {
			return def.ExtremePhase
		}
		return def.DescentPhase
	case def.DescentPhase:
		if v <= def.BottomMax {
			return def.ExtremePhase
		}
		if v > def.UpMin {
			return def.StartPhase
		}
		return def.DescentPhase
	case def.ExtremePhase:
		if v <= def.BottomMax {
			return def.ExtremePhase
		}
		if v > def.UpMin {
			return def.StartPhase
		}
		return def.AscentPhase
	case def.AscentPhase:
		if v >= def.UpMin {
			return def.StartPhase
		}
		if v <= def.BottomMax {
			return def.ExtremePhase
		}
		return def.AscentPhase
	default:
		// No history yet: classify by band, preferring the start phase.
		if v >= def.UpMin {
			return def.StartPhase
		}
		if v <= def.BottomMax {
			return def.ExtremePhase
		}
		return def.DescentPhase
	}
}
