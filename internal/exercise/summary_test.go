package exercise

import (
	"math"
	"testing"
)

// TestSummarize verifies verdict counts, the violation histogram, and the
// bottom-angle statistics.
func TestSummarize(t *testing.T) {
	reps := []Rep{
		{Number: 1, Verdict: VerdictGood, BottomAngle: 80},
		{Number: 2, Verdict: VerdictBad, Violations: []string{"hip_min", "ankle_min"}, BottomAngle: 70},
		{Number: 3, Verdict: VerdictBad, Violations: []string{"hip_min"}, BottomAngle: 90},
	}

	s := Summarize("squat", reps, 300, 12)

	if s.TotalReps != 3 || s.GoodReps != 1 || s.BadReps != 2 {
		t.Errorf("counts = %d/%d/%d, want 3/1/2", s.TotalReps, s.GoodReps, s.BadReps)
	}
	if s.FramesProcessed != 300 || s.FramesSkipped != 12 {
		t.Errorf("frames = %d/%d, want 300/12", s.FramesProcessed, s.FramesSkipped)
	}
	if s.ViolationHistogram["hip_min"] != 2 {
		t.Errorf("hip_min count = %d, want 2", s.ViolationHistogram["hip_min"])
	}
	if s.ViolationHistogram["ankle_min"] != 1 {
		t.Errorf("ankle_min count = %d, want 1", s.ViolationHistogram["ankle_min"])
	}

	if s.BottomAngle == nil {
		t.Fatal("bottom angle stats missing")
	}
	if math.Abs(s.BottomAngle.Mean-80) > 1e-9 {
		t.Errorf("mean = %v, want 80", s.BottomAngle.Mean)
	}
	if s.BottomAngle.Min != 70 || s.BottomAngle.Max != 90 {
		t.Errorf("min/max = %v/%v, want 70/90", s.BottomAngle.Min, s.BottomAngle.Max)
	}
	if s.BottomAngle.StdDev <= 0 {
		t.Errorf("stddev = %v, want positive", s.BottomAngle.StdDev)
	}
}

// TestSummarizeNoReps verifies an empty session has no angle stats and no
// histogram.
func TestSummarizeNoReps(t *testing.T) {
	s := Summarize("pushup", nil, 50, 50)
	if s.TotalReps != 0 {
		t.Errorf("total = %d, want 0", s.TotalReps)
	}
	if s.BottomAngle != nil {
		t.Errorf("bottom angle = %+v, want nil", s.BottomAngle)
	}
	if s.ViolationHistogram != nil {
		t.Errorf("histogram = %v, want nil", s.ViolationHistogram)
	}
}

// TestSummarizeSingleRep verifies a single rep yields zero stddev.
func TestSummarizeSingleRep(t *testing.T) {
	s := Summarize("squat", []Rep{{Number: 1, Verdict: VerdictGood, BottomAngle: 85}}, 60, 0)
	if s.BottomAngle == nil {
		t.Fatal("bottom angle stats missing")
	}
	if s.BottomAngle.StdDev != 0 {
		t.Errorf("stddev = %v, want 0 for single rep", s.BottomAngle.StdDev)
	}
	if s.BottomAngle.Mean != 85 {
		t.Errorf("mean = %v, want 85", s.BottomAngle.Mean)
	}
}
