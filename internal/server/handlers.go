package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meltforce/movassist/internal/exercise"
	"github.com/meltforce/movassist/internal/ingest/mediapipe"
	"github.com/meltforce/movassist/internal/session"
	"github.com/meltforce/movassist/internal/storage"
)

// handleIngest accepts a JSONL landmark recording, runs it through the
// analyzer, persists the resulting session, and returns the run result.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("exercise")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise parameter required"})
		return
	}
	def, err := s.registry.Get(name)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	cfg := session.Config{
		Exercise:     name,
		WarmupFrames: s.analyzer.WarmupFrames,
		Analyzer: exercise.Options{
			DebounceFrames:         s.analyzer.DebounceFrames,
			FeedbackCooldownFrames: s.analyzer.FeedbackCooldownFrames,
			MinVisibility:          s.analyzer.MinVisibility,
		},
	}
	if v := r.URL.Query().Get("fps"); v != "" {
		fps, err := strconv.ParseFloat(v, 64)
		if err != nil || fps < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid fps parameter"})
			return
		}
		cfg.FPS = fps
	}
	if v := r.URL.Query().Get("warmup"); v != "" {
		warmup, err := strconv.Atoi(v)
		if err != nil || warmup < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid warmup parameter"})
			return
		}
		cfg.WarmupFrames = warmup
	}

	runner := session.NewRunner(def, cfg, s.log)
	rec, err := runner.Run(mediapipe.NewProvider(r.Body))
	if err != nil {
		s.log.Error("ingest error", "exercise", name, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := s.db.InsertSession(r.Context(), rec); err != nil {
		s.log.Error("storing session", "session_id", rec.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	result := session.Result(rec, runner.Stats())
	result.Message = fmt.Sprintf("analyzed %d frames, %d reps detected", result.FramesRead, result.RepsDetected)

	s.log.Info("session ingested",
		"session_id", rec.ID,
		"exercise", name,
		"frames", result.FramesRead,
		"reps", result.RepsDetected,
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"result":  result,
		"summary": rec.Summary,
	})
}

// exerciseInfo is the read-only view of a definition served to clients.
type exerciseInfo struct {
	Name      string   `json:"name"`
	Drive     string   `json:"drive_metric"`
	UpMin     float64  `json:"up_min"`
	BottomMax float64  `json:"bottom_max"`
	Rules     []string `json:"rules"`
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	var out []exerciseInfo
	for _, name := range s.registry.Names() {
		def, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		info := exerciseInfo{
			Name:      def.Name,
			Drive:     def.DriveMetric,
			UpMin:     def.UpMin,
			BottomMax: def.BottomMax,
		}
		for _, rule := range def.Rules {
			info.Rules = append(info.Rules, rule.Name)
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	rows, err := s.db.ListSessions(r.Context(), r.URL.Query().Get("exercise"), start, end, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	detail, err := s.db.GetSession(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleGetSessionReps(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	reps, err := s.db.GetSessionReps(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reps)
}

func (s *Server) handleViolationStats(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	stats, err := s.db.ViolationStats(r.Context(), r.URL.Query().Get("exercise"), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	totals, err := s.db.Totals(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 30 days
		end = time.Now()
		start = end.AddDate(0, 0, -30)
		return
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return
}
