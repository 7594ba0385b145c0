package exercise

import (
	"math"
	"reflect"
	"testing"

	"github.com/meltforce/movassist/internal/pose"
)

func analyzerDef() *Definition {
	d := classifierDef()
	d.Rules = []Rule{
		{Name: "min_depth", Metric: "knee_angle", Min: f(40), Phases: []Phase{"bottom"}, Message: "Squat too deep"},
	}
	d.DepthMessage = "Squat not deep enough"
	return d
}

func testOptions() Options {
	return Options{DebounceFrames: 3, FeedbackCooldownFrames: 1000, MinVisibility: 0.5}
}

// segment is a run of frames at one knee angle.
type segment struct {
	deg float64
	n   int
}

// feed drives the analyzer through the segments with sequential frame
// indices and returns every tick result.
func feed(a *Analyzer, startIndex int, segs []segment) []TickResult {
	var out []TickResult
	idx := startIndex
	for _, s := range segs {
		for range s.n {
			out = append(out, a.Tick(legFrame(idx, s.deg)))
			idx++
		}
	}
	return out
}

var fullRep = []segment{
	{170, 4}, // start phase
	{120, 3}, // descent accepted on the 3rd frame
	{80, 3},  // bottom
	{120, 3}, // ascent
	{170, 3}, // back up: repetition boundary
}

// TestAnalyzerCountsRep verifies one clean down-up cycle yields exactly one
// good repetition with the cycle's deepest angle recorded.
func TestAnalyzerCountsRep(t *testing.T) {
	a := NewAnalyzer(analyzerDef(), testOptions())
	results := feed(a, 0, fullRep)

	if a.RepCount() != 1 {
		t.Fatalf("rep count = %d, want 1", a.RepCount())
	}
	rep := a.Reps()[0]
	if rep.Verdict != VerdictGood {
		t.Errorf("verdict = %q, want good", rep.Verdict)
	}
	if len(rep.Violations) != 0 {
		t.Errorf("violations = %v, want none", rep.Violations)
	}
	if math.Abs(rep.BottomAngle-80) > 1e-6 {
		t.Errorf("bottom angle = %v, want 80", rep.BottomAngle)
	}
	if rep.Number != 1 {
		t.Errorf("rep number = %d, want 1", rep.Number)
	}

	// The rep closes on the tick that accepts the return to the start
	// phase, and only that tick reports it.
	var completed int
	for _, r := range results {
		if r.CompletedRep != nil {
			completed++
			if r.CompletedRep.EndFrame != r.FrameIndex {
				t.Errorf("end frame = %d on tick %d", r.CompletedRep.EndFrame, r.FrameIndex)
			}
		}
	}
	if completed != 1 {
		t.Errorf("completed reported on %d ticks, want 1", completed)
	}
}

// TestAnalyzerNonZeroStartIndex verifies the first repetition's frame range
// is anchored on the recording's actual first frame, not frame zero. Frame
// indices only need to increase; recordings trimmed mid-stream (or read
// after a warmup discard) start wherever they start.
func TestAnalyzerNonZeroStartIndex(t *testing.T) {
	a := NewAnalyzer(analyzerDef(), testOptions())
	feed(a, 100, fullRep)

	if a.RepCount() != 1 {
		t.Fatalf("rep count = %d, want 1", a.RepCount())
	}
	rep := a.Reps()[0]
	if rep.StartFrame != 100 {
		t.Errorf("start frame = %d, want 100", rep.StartFrame)
	}
	if rep.EndFrame != 115 {
		t.Errorf("end frame = %d, want 115", rep.EndFrame)
	}
}

// TestAnalyzerPhaseEnterFrame verifies each tick reports the frame whose
// tick accepted the current phase.
func TestAnalyzerPhaseEnterFrame(t *testing.T) {
	a := NewAnalyzer(analyzerDef(), testOptions())
	results := feed(a, 100, []segment{{170, 4}, {120, 3}})

	// Still in the start phase through the first 170° frames and the two
	// unaccepted descent candidates.
	for _, r := range results[:6] {
		if r.PhaseEnterFrame != 100 {
			t.Fatalf("tick %d: phase enter frame = %d, want 100", r.FrameIndex, r.PhaseEnterFrame)
		}
	}
	// Descent accepted on the third consecutive candidate.
	last := results[6]
	if last.Phase != "descent" || last.PhaseEnterFrame != 106 {
		t.Errorf("tick %d: phase %q entered at %d, want descent at 106", last.FrameIndex, last.Phase, last.PhaseEnterFrame)
	}
}

// TestAnalyzerDebounceRejectsFlicker verifies a phase excursion shorter than
// the debounce window never becomes the accepted phase.
func TestAnalyzerDebounceRejectsFlicker(t *testing.T) {
	a := NewAnalyzer(analyzerDef(), testOptions())
	feed(a, 0, []segment{
		{170, 4},
		{120, 2}, // two frames below the window
		{170, 4},
	})

	if a.Phase() != "up" {
		t.Errorf("phase = %q, want up", a.Phase())
	}
	if a.RepCount() != 0 {
		t.Errorf("rep count = %d, want 0", a.RepCount())
	}
}

// TestAnalyzerShallowCycleNoRep verifies a descent that never reaches the
// bottom phase produces depth feedback but no repetition.
func TestAnalyzerShallowCycleNoRep(t *testing.T) {
	a := NewAnalyzer(analyzerDef(), testOptions())
	results := feed(a, 0, []segment{
		{170, 4},
		{120, 4}, // descent accepted, never deep enough
		{170, 3}, // back up
	})

	if a.RepCount() != 0 {
		t.Fatalf("rep count = %d, want 0", a.RepCount())
	}

	var feedback []string
	for _, r := range results {
		feedback = append(feedback, r.Feedback...)
	}
	found := false
	for _, msg := range feedback {
		if msg == "Squat not deep enough" {
			found = true
		}
	}
	if !found {
		t.Errorf("feedback = %v, want depth message", feedback)
	}
}

// TestAnalyzerViolationTaintsRep verifies a rule broken at the bottom marks
// the repetition bad, and that the next repetition starts clean.
func TestAnalyzerViolationTaintsRep(t *testing.T) {
	a := NewAnalyzer(analyzerDef(), testOptions())

	// First rep goes below the 40° depth limit.
	feed(a, 0, []segment{
		{170, 4}, {120, 3}, {35, 3}, {120, 3}, {170, 3},
	})
	// Second rep is clean.
	feed(a, 16, []segment{
		{120, 3}, {80, 3}, {120, 3}, {170, 3},
	})

	reps := a.Reps()
	if len(reps) != 2 {
		t.Fatalf("rep count = %d, want 2", len(reps))
	}
	if reps[0].Verdict != VerdictBad {
		t.Errorf("rep 1 verdict = %q, want bad", reps[0].Verdict)
	}
	if !reflect.DeepEqual(reps[0].Violations, []string{"min_depth"}) {
		t.Errorf("rep 1 violations = %v, want [min_depth]", reps[0].Violations)
	}
	if reps[1].Verdict != VerdictGood {
		t.Errorf("rep 2 verdict = %q, want good (violations must reset per rep)", reps[1].Verdict)
	}
	if len(reps[1].Violations) != 0 {
		t.Errorf("rep 2 violations = %v, want none", reps[1].Violations)
	}
}

// TestAnalyzerDeterministicReplay verifies the same frame sequence always
// reproduces an identical repetition history and phase trace.
func TestAnalyzerDeterministicReplay(t *testing.T) {
	segs := []segment{
		{170, 5}, {120, 3}, {35, 4}, {120, 3}, {170, 4},
		{120, 3}, {80, 3}, {120, 3}, {170, 3},
	}

	a := NewAnalyzer(analyzerDef(), testOptions())
	b := NewAnalyzer(analyzerDef(), testOptions())

	ra := feed(a, 0, segs)
	rb := feed(b, 0, segs)

	if !reflect.DeepEqual(a.Reps(), b.Reps()) {
		t.Error("replay produced a different repetition history")
	}
	for i := range ra {
		if ra[i].Phase != rb[i].Phase {
			t.Fatalf("tick %d: phase %q vs %q", i, ra[i].Phase, rb[i].Phase)
		}
	}
}

// TestAnalyzerNilFrameHolds verifies malformed frames are counted, hold the
// phase, and never abort the session.
func TestAnalyzerNilFrameHolds(t *testing.T) {
	a := NewAnalyzer(analyzerDef(), testOptions())
	feed(a, 0, []segment{{170, 4}, {120, 3}})

	phase := a.Phase()
	res := a.Tick(nil)
	if !res.Skipped {
		t.Error("nil frame not reported as skipped")
	}
	if a.Phase() != phase {
		t.Errorf("phase changed across nil frame: %q → %q", phase, a.Phase())
	}
	if a.FramesSkipped() != 1 {
		t.Errorf("frames skipped = %d, want 1", a.FramesSkipped())
	}

	// An empty frame counts the same as nil.
	res = a.Tick(&pose.Frame{Index: 99})
	if !res.Skipped {
		t.Error("empty frame not reported as skipped")
	}
}

// TestAnalyzerOcclusionHolds verifies frames whose drive landmarks fall
// below the visibility gate hold the accepted phase.
func TestAnalyzerOcclusionHolds(t *testing.T) {
	a := NewAnalyzer(analyzerDef(), testOptions())
	feed(a, 0, []segment{{170, 4}, {120, 3}})
	if a.Phase() != "descent" {
		t.Fatalf("phase = %q, want descent", a.Phase())
	}

	// Deep angle but occluded: must not reach the bottom phase.
	for i := range 5 {
		fr := legFrame(7+i, 60)
		lm := fr.Landmarks[pose.LeftKnee]
		lm.Visibility = 0.2
		fr.Landmarks[pose.LeftKnee] = lm
		a.Tick(fr)
	}
	if a.Phase() != "descent" {
		t.Errorf("phase = %q, want descent held through occlusion", a.Phase())
	}
}

// TestAnalyzerDebounceDefaultOptions verifies zero options fall back to the
// documented defaults.
func TestAnalyzerDebounceDefaultOptions(t *testing.T) {
	o := Options{}.withDefaults()
	if o.DebounceFrames != DefaultDebounceFrames {
		t.Errorf("debounce = %d, want %d", o.DebounceFrames, DefaultDebounceFrames)
	}
	if o.FeedbackCooldownFrames != DefaultFeedbackCooldownFrames {
		t.Errorf("cooldown = %d, want %d", o.FeedbackCooldownFrames, DefaultFeedbackCooldownFrames)
	}
	if o.MinVisibility != DefaultMinVisibility {
		t.Errorf("min visibility = %v, want %v", o.MinVisibility, DefaultMinVisibility)
	}
}
