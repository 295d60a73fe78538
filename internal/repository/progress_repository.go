package repository

import (
	"context"
	"database/sql"

	"linguaformula/internal/entity"
)

// WeakThreshold is the accuracy, in percent, below which a formula needs
// more practice.
const WeakThreshold = 70

type ProgressRepository struct {
	db *sql.DB
}

func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) GetUserProgress(ctx context.Context, userID int) ([]entity.FormulaProgress, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, formula_id, formula_name, attempts_count, correct_count, last_attempt_at
		FROM formula_progress
		WHERE user_id = $1
		ORDER BY last_attempt_at DESC NULLS LAST, formula_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ups []entity.FormulaProgress
	for rows.Next() {
		var (
			up   entity.FormulaProgress
			last sql.NullTime
		)
		err := rows.Scan(&up.UserID, &up.FormulaID, &up.FormulaName, &up.AttemptsCount, &up.CorrectCount, &last)
		if err != nil {
			return ups, err
		}
		if last.Valid {
			t := last.Time
			up.LastAttemptAt = &t
		}
		ups = append(ups, up)
	}
	return ups, rows.Err()
}

// WeakFormulas returns the formula ids whose accuracy is under
// WeakThreshold.
func WeakFormulas(list []entity.FormulaProgress) ([]int, error) {
	if len(list) == 0 {
		return nil, &ProgressRepositoryError{"No user progress"}
	}

	weak := make([]int, 0)
	for _, p := range list {
		if p.AttemptsCount > 0 && p.Accuracy() < WeakThreshold {
			weak = append(weak, p.FormulaID)
		}
	}
	return weak, nil
}

type ProgressRepositoryError struct {
	Message string
}

func (e *ProgressRepositoryError) Error() string {
	return "progress repository error: " + e.Message
}
