package exercise

import (
	"gonum.org/v1/gonum/stat"
)

// AngleStats are aggregate statistics over the per-rep bottom angles.
type AngleStats struct {
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stddev"`
}

// Summary is the aggregated result of a session. It is a pure function of
// the repetition history, so it can be recomputed mid-session for a live
// display and again at session end for the final report.
type Summary struct {
	Exercise        string `json:"exercise"`
	TotalReps       int    `json:"total_reps"`
	GoodReps        int    `json:"good_reps"`
	BadReps         int    `json:"bad_reps"`
	FramesProcessed int    `json:"frames_processed"`
	FramesSkipped   int    `json:"frames_skipped"`

	// ViolationHistogram counts, per rule name, how many repetitions were
	// tainted by it. The counts sum to the total violation instances
	// across bad repetitions.
	ViolationHistogram map[string]int `json:"violation_histogram,omitempty"`

	// BottomAngle summarizes how deep each repetition went; nil when no
	// repetitions completed.
	BottomAngle *AngleStats `json:"bottom_angle,omitempty"`

	Reps []Rep `json:"reps"`
}

// Summarize aggregates a repetition history into a Summary.
func Summarize(exercise string, reps []Rep, framesProcessed, framesSkipped int) Summary {
	s := Summary{
		Exercise:        exercise,
		TotalReps:       len(reps),
		FramesProcessed: framesProcessed,
		FramesSkipped:   framesSkipped,
		Reps:            reps,
	}

	var angles []float64
	for _, r := range reps {
		if r.Verdict == VerdictGood {
			s.GoodReps++
		} else {
			s.BadReps++
			if s.ViolationHistogram == nil {
				s.ViolationHistogram = make(map[string]int)
			}
			for _, v := range r.Violations {
				s.ViolationHistogram[v]++
			}
		}
		angles = append(angles, r.BottomAngle)
	}

	if len(angles) > 0 {
		as := &AngleStats{
			Mean: stat.Mean(angles, nil),
			Min:  angles[0],
			Max:  angles[0],
		}
		for _, a := range angles[1:] {
			if a < as.Min {
				as.Min = a
			}
			if a > as.Max {
				as.Max = a
			}
		}
		if len(angles) > 1 {
			as.StdDev = stat.StdDev(angles, nil)
		}
		s.BottomAngle = as
	}

	return s
}
