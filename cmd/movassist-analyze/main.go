package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/meltforce/movassist/internal/exercise"
	"github.com/meltforce/movassist/internal/ingest/mediapipe"
	"github.com/meltforce/movassist/internal/session"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	exerciseName := flag.String("exercise", "", "exercise to analyze (e.g. squat, pushup)")
	inputPath := flag.String("input", "-", "JSONL landmark recording ('-' for stdin)")
	outPath := flag.String("out", "", "write summary JSON to file instead of stdout")
	fps := flag.Float64("fps", 0, "source frame rate, used to derive session duration")
	warmup := flag.Int("warmup", 0, "frames to discard before analysis begins")
	debounce := flag.Int("debounce", 0, "consecutive frames before a phase change is accepted (0 = default)")
	cooldown := flag.Int("cooldown", 0, "frames between repeated feedback messages (0 = default)")
	minVisibility := flag.Float64("min-visibility", 0, "landmark visibility gate (0 = default)")
	exercisesFile := flag.String("exercises", "", "YAML file overriding the built-in exercise definitions")
	verbose := flag.Bool("v", false, "log per-rep detail")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("movassist-analyze", Version)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *exerciseName == "" {
		fmt.Fprintf(os.Stderr, "Usage: movassist-analyze -exercise <name> [-input recording.jsonl] [-fps N]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	registry, err := exercise.LoadRegistry(*exercisesFile)
	if err != nil {
		log.Error("failed to load exercise definitions", "error", err)
		os.Exit(1)
	}
	def, err := registry.Get(*exerciseName)
	if err != nil {
		log.Error("unknown exercise", "exercise", *exerciseName, "known", registry.Names())
		os.Exit(1)
	}

	var in io.Reader = os.Stdin
	if *inputPath != "-" {
		f, err := os.Open(*inputPath)
		if err != nil {
			log.Error("failed to open input", "path", *inputPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	runner := session.NewRunner(def, session.Config{
		Exercise:     *exerciseName,
		FPS:          *fps,
		WarmupFrames: *warmup,
		Analyzer: exercise.Options{
			DebounceFrames:         *debounce,
			FeedbackCooldownFrames: *cooldown,
			MinVisibility:          *minVisibility,
		},
	}, log)

	rec, err := runner.Run(mediapipe.NewProvider(in))
	if err != nil {
		log.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	stats := runner.Stats()
	log.Info("analysis complete",
		"exercise", rec.Exercise,
		"frames_read", stats.FramesRead,
		"frames_skipped", stats.FramesSkipped,
		"total_reps", rec.Summary.TotalReps,
		"good_reps", rec.Summary.GoodReps,
		"bad_reps", rec.Summary.BadReps,
	)

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Error("failed to create output file", "path", *outPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		log.Error("failed to write summary", "error", err)
		os.Exit(1)
	}
}
