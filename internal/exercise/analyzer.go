package exercise

import (
	"math"
	"sort"

	"github.com/meltforce/movassist/internal/pose"
)

// Verdict is the form judgment for one completed repetition.
type Verdict string

const (
	VerdictGood Verdict = "good"
	VerdictBad  Verdict = "bad"
)

// Options tunes the analyzer. Zero values fall back to defaults.
type Options struct {
	// DebounceFrames is how many consecutive ticks a candidate phase must
	// be the classifier's output before it is accepted.
	DebounceFrames int
	// FeedbackCooldownFrames suppresses repeat feedback for the same
	// violation within this many frames.
	FeedbackCooldownFrames int
	// MinVisibility is the landmark confidence below which a metric is
	// unavailable for the frame.
	MinVisibility float64
}

// Defaults for Options. The debounce of 3 frames suppresses single-frame
// classifier flicker without adding noticeable phase latency at typical
// frame rates.
const (
	DefaultDebounceFrames         = 3
	DefaultFeedbackCooldownFrames = 30
	DefaultMinVisibility          = 0.5
)

func (o Options) withDefaults() Options {
	if o.DebounceFrames <= 0 {
		o.DebounceFrames = DefaultDebounceFrames
	}
	if o.FeedbackCooldownFrames <= 0 {
		o.FeedbackCooldownFrames = DefaultFeedbackCooldownFrames
	}
	if o.MinVisibility <= 0 {
		o.MinVisibility = DefaultMinVisibility
	}
	return o
}

// Rep is one completed repetition. Immutable once created.
type Rep struct {
	Number     int      `json:"number"`
	StartFrame int      `json:"start_frame"`
	EndFrame   int      `json:"end_frame"`
	Verdict    Verdict  `json:"verdict"`
	Violations []string `json:"violations,omitempty"`
	// BottomAngle is the minimum drive-metric angle reached during the
	// repetition.
	BottomAngle float64 `json:"bottom_angle"`
}

// TickResult is what one frame of analysis yields for the caller's display.
type TickResult struct {
	FrameIndex int   `json:"frame"`
	Phase      Phase `json:"phase"`
	// PhaseEnterFrame is the index of the frame whose tick accepted the
	// current phase.
	PhaseEnterFrame int      `json:"phase_enter_frame"`
	RepCount        int      `json:"rep_count"`
	Feedback        []string `json:"feedback,omitempty"`
	// CompletedRep is non-nil when this tick closed a repetition.
	CompletedRep *Rep `json:"completed_rep,omitempty"`
	// Skipped is true when the frame was malformed and the tick was
	// treated as a hold.
	Skipped bool `json:"skipped,omitempty"`
}

// Analyzer is the repetition state machine for one exercise session. It is
// driven by strictly ordered, non-overlapping Tick calls and holds all
// mutable session state; it is not safe for concurrent use. Given the same
// initial state and frame sequence it reproduces an identical repetition
// history.
type Analyzer struct {
	def  *Definition
	opts Options
	fb   *FeedbackGenerator

	phase           Phase
	phaseEnterFrame int
	started         bool

	candidate      Phase
	candidateCount int

	extremeVisited  bool
	violations      map[string]bool
	cycleStartFrame int
	bottomAngle     float64

	reps          []Rep
	framesSeen    int
	framesSkipped int
}

// NewAnalyzer creates an analyzer for the given (already validated)
// definition, starting in the exercise's start phase.
func NewAnalyzer(def *Definition, opts Options) *Analyzer {
	opts = opts.withDefaults()
	return &Analyzer{
		def:         def,
		opts:        opts,
		fb:          NewFeedbackGenerator(def.Messages(), opts.FeedbackCooldownFrames),
		phase:       def.StartPhase,
		violations:  make(map[string]bool),
		bottomAngle: math.MaxFloat64,
	}
}

// Tick consumes one frame and advances the state machine. A nil or empty
// frame is not fatal: the tick holds the current phase, updates nothing,
// and bumps the skipped-frame counter.
func (a *Analyzer) Tick(f *pose.Frame) TickResult {
	a.framesSeen++

	if f == nil || len(f.Landmarks) == 0 {
		a.framesSkipped++
		return TickResult{
			Phase:           a.phase,
			PhaseEnterFrame: a.phaseEnterFrame,
			RepCount:        len(a.reps),
			Skipped:         true,
		}
	}

	// Frame indices need not start at zero; anchor the first cycle on the
	// first frame we actually analyze.
	if !a.started {
		a.started = true
		a.cycleStartFrame = f.Index
		a.phaseEnterFrame = f.Index
	}

	side := pose.DetectSide(f)
	metrics := ComputeMetrics(a.def, f, side, a.opts.MinVisibility)

	var completed *Rep
	var feedbackNames []string

	candidate := Classify(a.def, metrics, a.phase)
	if accepted := a.debounce(candidate); accepted {
		completed, feedbackNames = a.onPhaseAccepted(f.Index)
	}

	// Track the deepest point of the current cycle.
	if v, ok := metrics[a.def.DriveMetric]; ok && v < a.bottomAngle {
		a.bottomAngle = v
	}

	// Re-evaluate form rules for the accepted phase. Violations are a
	// union: once a rule is broken the repetition stays tainted.
	for i := range a.def.Rules {
		r := &a.def.Rules[i]
		if !r.AppliesTo(a.phase) {
			continue
		}
		v, ok := metrics[r.Metric]
		if !ok {
			continue
		}
		if r.Violated(v) {
			a.violations[r.Name] = true
			feedbackNames = append(feedbackNames, r.Name)
		}
	}

	return TickResult{
		FrameIndex:      f.Index,
		Phase:           a.phase,
		PhaseEnterFrame: a.phaseEnterFrame,
		RepCount:        len(a.reps),
		Feedback:        a.fb.Emit(f.Index, feedbackNames),
		CompletedRep:    completed,
	}
}

// debounce feeds one classifier output into the acceptance counter and
// reports whether the accepted phase changed this tick.
func (a *Analyzer) debounce(candidate Phase) bool {
	if candidate == a.phase {
		a.candidate = ""
		a.candidateCount = 0
		return false
	}
	if candidate == a.candidate {
		a.candidateCount++
	} else {
		a.candidate = candidate
		a.candidateCount = 1
	}
	if a.candidateCount < a.opts.DebounceFrames {
		return false
	}

	a.phase = candidate
	a.candidate = ""
	a.candidateCount = 0
	return true
}

// onPhaseAccepted handles an accepted phase change at the given frame. It
// returns the completed repetition, if this transition closed one, and any
// feedback names the transition itself produced.
func (a *Analyzer) onPhaseAccepted(frameIndex int) (*Rep, []string) {
	a.phaseEnterFrame = frameIndex

	if a.phase == a.def.ExtremePhase {
		a.extremeVisited = true
		return nil, nil
	}
	if a.phase != a.def.StartPhase {
		return nil, nil
	}

	// Back at the start phase: a repetition boundary only if the extreme
	// phase was visited since the last one. A cycle that merely dips into
	// the middle band counts nothing, but earns depth feedback.
	if !a.extremeVisited {
		a.resetCycle(frameIndex)
		return nil, []string{"depth"}
	}

	rep := Rep{
		Number:      len(a.reps) + 1,
		StartFrame:  a.cycleStartFrame,
		EndFrame:    frameIndex,
		Verdict:     VerdictGood,
		BottomAngle: a.bottomAngle,
	}
	if len(a.violations) > 0 {
		rep.Verdict = VerdictBad
		rep.Violations = make([]string, 0, len(a.violations))
		for name := range a.violations {
			rep.Violations = append(rep.Violations, name)
		}
		sort.Strings(rep.Violations)
	}
	a.reps = append(a.reps, rep)
	a.resetCycle(frameIndex)
	return &a.reps[len(a.reps)-1], nil
}

func (a *Analyzer) resetCycle(frameIndex int) {
	a.violations = make(map[string]bool)
	a.extremeVisited = false
	a.cycleStartFrame = frameIndex
	a.bottomAngle = math.MaxFloat64
}

// Phase returns the current accepted phase.
func (a *Analyzer) Phase() Phase { return a.phase }

// RepCount returns the number of completed repetitions.
func (a *Analyzer) RepCount() int { return len(a.reps) }

// Reps returns a copy of the repetition history.
func (a *Analyzer) Reps() []Rep {
	out := make([]Rep, len(a.reps))
	copy(out, a.reps)
	return out
}

// FramesSeen returns how many ticks the analyzer has consumed.
func (a *Analyzer) FramesSeen() int { return a.framesSeen }

// FramesSkipped returns how many ticks were malformed and held state.
func (a *Analyzer) FramesSkipped() int { return a.framesSkipped }
