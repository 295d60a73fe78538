package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"linguaformula/internal/entity"
)

type AttemptRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewAttemptRepository(db *sql.DB) *AttemptRepository {
	return &AttemptRepository{db: db, now: time.Now}
}

// SaveAttempt stores a graded answer and, when the question belongs to a
// formula, bumps that formula's progress row.
func (a *AttemptRepository) SaveAttempt(ctx context.Context, attempt entity.Attempt) error {
	now := a.now()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO attempts
		(user_id, formula_id, course_id, question_id, question_type, user_answer, is_correct, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, attempt.UserID, attempt.FormulaID, attempt.CourseID, attempt.QuestionID,
		string(attempt.QuestionType), attempt.UserAnswer, attempt.IsCorrect, now)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	if attempt.FormulaID != nil {
		correct := 0
		if attempt.IsCorrect {
			correct = 1
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO formula_progress
			(user_id, formula_id, formula_name, attempts_count, correct_count, last_attempt_at, updated_at)
			VALUES ($1, $2, $3, 1, $4, $5, $5)
			ON CONFLICT (user_id, formula_id) DO UPDATE
			SET attempts_count = formula_progress.attempts_count + 1,
			correct_count = formula_progress.correct_count + EXCLUDED.correct_count,
			formula_name = CASE WHEN EXCLUDED.formula_name = '' THEN formula_progress.formula_name ELSE EXCLUDED.formula_name END,
			last_attempt_at = EXCLUDED.last_attempt_at,
			updated_at = EXCLUDED.updated_at
		`, attempt.UserID, *attempt.FormulaID, attempt.FormulaName, correct, now)
		if err != nil {
			return fmt.Errorf("update progress: %w", err)
		}
	}

	return tx.Commit()
}

// RecentAttempts returns the user's latest attempts, newest first.
func (a *AttemptRepository) RecentAttempts(ctx context.Context, userID, limit int) ([]entity.Attempt, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT a.id, a.user_id, a.formula_id, COALESCE(fp.formula_name, ''), a.course_id,
			a.question_id, a.question_type, a.user_answer, a.is_correct, a.created_at
		FROM attempts a
		LEFT JOIN formula_progress fp ON fp.user_id = a.user_id AND fp.formula_id = a.formula_id
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Attempt
	for rows.Next() {
		var (
			at        entity.Attempt
			formulaID sql.NullInt64
			courseID  sql.NullInt64
			qtype     string
		)
		err := rows.Scan(&at.ID, &at.UserID, &formulaID, &at.FormulaName, &courseID,
			&at.QuestionID, &qtype, &at.UserAnswer, &at.IsCorrect, &at.CreatedAt)
		if err != nil {
			return out, err
		}
		at.FormulaID = nullInt(formulaID)
		at.CourseID = nullInt(courseID)
		at.QuestionType = entity.QuestionType(qtype)
		out = append(out, at)
	}
	return out, rows.Err()
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
