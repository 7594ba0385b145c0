// Package session drives an exercise analyzer over a landmark provider and
// assembles the session record.
package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/movassist/internal/exercise"
	"github.com/meltforce/movassist/internal/ingest"
)

// Config controls one session run.
type Config struct {
	Exercise string
	// FPS of the source video; used only to derive the session duration.
	FPS float64
	// WarmupFrames are discarded before analysis begins, giving a live
	// subject time to get into position.
	WarmupFrames int
	Analyzer     exercise.Options
}

// Stats tracks progress through a recording.
type Stats struct {
	FramesRead    int
	FramesSkipped int
	WarmupFrames  int
}

// Record is the finished session: identity, timing, and the analyzer's
// summary. It is what gets persisted and served.
type Record struct {
	ID              uuid.UUID        `json:"id"`
	Exercise        string           `json:"exercise"`
	StartedAt       time.Time        `json:"started_at"`
	FPS             float64          `json:"fps,omitempty"`
	DurationSeconds float64          `json:"duration_seconds,omitempty"`
	Summary         exercise.Summary `json:"summary"`
}

// Runner consumes a provider frame by frame, one synchronous tick each.
// One Runner serves one session; it is not safe for concurrent use.
type Runner struct {
	cfg      Config
	analyzer *exercise.Analyzer
	log      *slog.Logger
	stats    Stats
}

// NewRunner creates a runner for the given validated definition.
func NewRunner(def *exercise.Definition, cfg Config, log *slog.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		analyzer: exercise.NewAnalyzer(def, cfg.Analyzer),
		log:      log,
	}
}

// Run drives the analyzer to end of stream and returns the session record.
// Malformed frames hold the analyzer state and are counted, never fatal;
// only provider I/O failures abort the run.
func (r *Runner) Run(p ingest.Provider) (*Record, error) {
	started := time.Now()

	for {
		f, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ingest.ErrMalformedFrame) {
			r.stats.FramesRead++
			res := r.analyzer.Tick(nil)
			if res.Skipped {
				r.stats.FramesSkipped++
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading frames: %w", err)
		}

		r.stats.FramesRead++
		if r.stats.WarmupFrames < r.cfg.WarmupFrames {
			r.stats.WarmupFrames++
			continue
		}

		res := r.analyzer.Tick(f)
		if res.Skipped {
			r.stats.FramesSkipped++
		}
		if res.CompletedRep != nil {
			r.log.Debug("repetition completed",
				"exercise", r.cfg.Exercise,
				"rep", res.CompletedRep.Number,
				"verdict", res.CompletedRep.Verdict,
				"violations", res.CompletedRep.Violations,
			)
		}
	}

	rec := &Record{
		ID:        uuid.New(),
		Exercise:  r.cfg.Exercise,
		StartedAt: started,
		FPS:       r.cfg.FPS,
		Summary:   r.Snapshot(),
	}
	if r.cfg.FPS > 0 {
		rec.DurationSeconds = float64(r.stats.FramesRead) / r.cfg.FPS
	}
	return rec, nil
}

// Snapshot summarizes the repetition history so far. Safe to call between
// ticks for a live-updating display.
func (r *Runner) Snapshot() exercise.Summary {
	return exercise.Summarize(r.cfg.Exercise,
		r.analyzer.Reps(), r.analyzer.FramesSeen(), r.analyzer.FramesSkipped())
}

// Stats returns the current run counters.
func (r *Runner) Stats() Stats { return r.stats }

// Result converts a finished record and stats into an ingest result.
func Result(rec *Record, stats Stats) *ingest.Result {
	return &ingest.Result{
		FramesRead:    stats.FramesRead,
		FramesSkipped: stats.FramesSkipped,
		WarmupFrames:  stats.WarmupFrames,
		RepsDetected:  rec.Summary.TotalReps,
		GoodReps:      rec.Summary.GoodReps,
		BadReps:       rec.Summary.BadReps,
		SessionID:     rec.ID.String(),
	}
}
