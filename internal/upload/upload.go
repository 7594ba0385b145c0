// Package upload walks a directory of landmark recordings and sends new ones
// to the server for analysis, tracking ingested files in a local state DB.
package upload

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	RepsDetected int
	GoodReps     int
	BadReps      int
}

// Uploader walks a recordings directory laid out as <dir>/<exercise>/*.jsonl
// and POSTs each new recording to the MovAssist server.
type Uploader struct {
	client     *Client
	state      *StateDB
	recordings string
	fps        float64
	dryRun     bool
	log        *slog.Logger
	stats      Stats
}

// New creates a new Uploader.
func New(client *Client, state *StateDB, recordingsDir string, fps float64, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client:     client,
		state:      state,
		recordings: recordingsDir,
		fps:        fps,
		dryRun:     dryRun,
		log:        log,
	}
}

// Run executes the upload pipeline. Each subdirectory of the recordings dir
// names the exercise its files belong to.
func (u *Uploader) Run() (*Stats, error) {
	entries, err := os.ReadDir(u.recordings)
	if err != nil {
		return &u.stats, fmt.Errorf("reading %s: %w", u.recordings, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		exercise := entry.Name()
		dir := filepath.Join(u.recordings, exercise)
		if err := u.processExerciseDir(dir, exercise); err != nil {
			return &u.stats, fmt.Errorf("processing %s: %w", exercise, err)
		}
	}

	return &u.stats, nil
}

// processExerciseDir uploads all new .jsonl recordings for one exercise.
func (u *Uploader) processExerciseDir(dir, exercise string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		return err
	}

	for _, f := range files {
		u.stats.FilesTotal++

		relPath, _ := filepath.Rel(u.recordings, f)
		info, err := os.Stat(f)
		if err != nil {
			u.log.Warn("stat failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}

		hash, err := HashFile(f)
		if err != nil {
			u.log.Warn("hash failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}

		uploaded, err := u.state.IsUploaded(relPath, info.Size(), hash)
		if err != nil {
			u.log.Warn("state check failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}
		if uploaded {
			u.stats.FilesSkipped++
			continue
		}

		if u.dryRun {
			u.log.Info("dry-run: would send",
				"exercise", exercise,
				"file", relPath,
				"bytes", info.Size(),
			)
			continue
		}

		data, err := os.ReadFile(f)
		if err != nil {
			u.log.Warn("read failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}

		result, err := u.client.SendRecording(exercise, u.fps, data)
		if err != nil {
			u.log.Warn("send failed", "file", relPath, "error", err)
			u.stats.FilesErrored++
			continue
		}

		if err := u.state.MarkUploaded(relPath, info.Size(), hash, result.SessionID); err != nil {
			u.log.Warn("failed to mark uploaded", "file", relPath, "error", err)
		}
		u.stats.FilesUploaded++
		u.stats.RepsDetected += result.RepsDetected
		u.stats.GoodReps += result.GoodReps
		u.stats.BadReps += result.BadReps

		u.log.Info("uploaded recording",
			"exercise", exercise,
			"file", relPath,
			"session_id", result.SessionID,
			"reps", result.RepsDetected,
		)
	}

	return nil
}
