package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"linguaformula/internal/auth"
	"linguaformula/internal/entity"
	"linguaformula/internal/repository"
)

const recentAttempts = 20

// AttemptStore records graded quiz answers.
type AttemptStore interface {
	SaveAttempt(ctx context.Context, a entity.Attempt) error
	RecentAttempts(ctx context.Context, userID, limit int) ([]entity.Attempt, error)
}

// ProgressReader lists per-formula quiz totals.
type ProgressReader interface {
	GetUserProgress(ctx context.Context, userID int) ([]entity.FormulaProgress, error)
}

type StatsHandler struct {
	rd       *Renderer
	progress ProgressReader
	attempts AttemptStore
	logger   *zap.Logger
}

// NewStatsHandler accepts nil stores when no database is configured.
func NewStatsHandler(rd *Renderer, progress ProgressReader, attempts AttemptStore, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{rd: rd, progress: progress, attempts: attempts, logger: logger}
}

type progressView struct {
	Enabled  bool
	Progress []entity.FormulaProgress
	Weak     map[int]bool
	Recent   []entity.Attempt
	Attempts int
	Correct  int
}

func totals(stats []entity.FormulaProgress) (int, int) {
	var total, correct int
	for _, v := range stats {
		total += v.AttemptsCount
		correct += v.CorrectCount
	}
	return total, correct
}

func (h *StatsHandler) load(ctx context.Context, userID int) (progressView, error) {
	view := progressView{Enabled: h.progress != nil, Weak: map[int]bool{}}
	if h.progress == nil {
		return view, nil
	}

	stats, err := h.progress.GetUserProgress(ctx, userID)
	if err != nil {
		return view, err
	}
	view.Progress = stats
	view.Attempts, view.Correct = totals(stats)

	if weak, err := repository.WeakFormulas(stats); err == nil {
		for _, id := range weak {
			view.Weak[id] = true
		}
	}

	if h.attempts != nil {
		recent, err := h.attempts.RecentAttempts(ctx, userID, recentAttempts)
		if err != nil {
			h.logger.Warn("recent attempts", zap.Int("user_id", userID), zap.Error(err))
		}
		view.Recent = recent
	}
	return view, nil
}

func (h *StatsHandler) StatsPage(w http.ResponseWriter, r *http.Request) {
	user := auth.FromContext(r.Context()).User
	p := h.rd.page(r, "Quiz progress")

	view, err := h.load(r.Context(), user.ID)
	if err != nil {
		h.logger.Warn("load progress", zap.Int("user_id", user.ID), zap.Error(err))
		p.Error = "Failed to load progress."
	}
	p.Data = view
	h.rd.render(w, r, http.StatusOK, "progress", p)
}

// GetStats returns the signed-in user's progress as JSON.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	user := auth.FromContext(r.Context()).User

	w.Header().Set("Content-Type", "application/json")
	if h.progress == nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Progress tracking is not enabled"})
		return
	}

	stats, err := h.progress.GetUserProgress(r.Context(), user.ID)
	if err != nil {
		h.logger.Warn("load progress", zap.Int("user_id", user.ID), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to load progress."})
		return
	}
	if stats == nil {
		stats = []entity.FormulaProgress{}
	}
	total, correct := totals(stats)

	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"attempts": total,
		"correct":  correct,
		"stats":    stats,
	})
}
