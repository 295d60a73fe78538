package repository

import (
	"context"
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linguaformula/internal/config"
	"linguaformula/internal/database"
	"linguaformula/internal/entity"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockAttempts(t *testing.T) (*AttemptRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewAttemptRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func intptr(i int) *int { return &i }

func TestSaveAttempt_WithFormula(t *testing.T) {
	repo, mock := newMockAttempts(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attempts")).
		WithArgs(5, 7, 3, 11, "multiple_choice", "4 A", true, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("formula_name = CASE WHEN EXCLUDED.formula_name = '' THEN formula_progress.formula_name")).
		WithArgs(5, 7, "Ohms Law", 1, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveAttempt(context.Background(), entity.Attempt{
		UserID:       5,
		FormulaID:    intptr(7),
		FormulaName:  "Ohms Law",
		CourseID:     intptr(3),
		QuestionID:   11,
		QuestionType: entity.MultipleChoice,
		UserAnswer:   "4 A",
		IsCorrect:    true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveAttempt_WithoutFormula(t *testing.T) {
	repo, mock := newMockAttempts(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attempts")).
		WithArgs(5, nil, nil, 12, "true_false", "False", false, fixedNow).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := repo.SaveAttempt(context.Background(), entity.Attempt{
		UserID:       5,
		QuestionID:   12,
		QuestionType: entity.TrueFalse,
		UserAnswer:   "False",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveAttempt_RollsBack(t *testing.T) {
	repo, mock := newMockAttempts(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attempts")).WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO formula_progress")).WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := repo.SaveAttempt(context.Background(), entity.Attempt{
		UserID:       5,
		FormulaID:    intptr(7),
		QuestionID:   11,
		QuestionType: entity.MultipleChoice,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update progress: deadlock detected")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentAttempts(t *testing.T) {
	repo, mock := newMockAttempts(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "formula_id", "formula_name", "course_id",
		"question_id", "question_type", "user_answer", "is_correct", "created_at"}).
		AddRow(2, 5, nil, "", nil, 12, "true_false", "False", false, fixedNow).
		AddRow(1, 5, 7, "Ohms Law", 3, 11, "multiple_choice", "4 A", true, fixedNow.Add(-time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("FROM attempts a")).WithArgs(5, 20).WillReturnRows(rows)

	got, err := repo.RecentAttempts(context.Background(), 5, 20)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Nil(t, got[0].FormulaID)
	assert.Nil(t, got[0].CourseID)
	assert.Equal(t, entity.TrueFalse, got[0].QuestionType)

	assert.Equal(t, entity.Attempt{
		ID:           1,
		UserID:       5,
		FormulaID:    intptr(7),
		FormulaName:  "Ohms Law",
		CourseID:     intptr(3),
		QuestionID:   11,
		QuestionType: entity.MultipleChoice,
		UserAnswer:   "4 A",
		IsCorrect:    true,
		CreatedAt:    fixedNow.Add(-time.Minute),
	}, got[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentAttempts_QueryError(t *testing.T) {
	repo, mock := newMockAttempts(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM attempts a")).WillReturnError(errors.New("connection reset"))

	_, err := repo.RecentAttempts(context.Background(), 5, 20)
	assert.EqualError(t, err, "connection reset")
}

func TestGetUserProgress(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"user_id", "formula_id", "formula_name", "attempts_count", "correct_count", "last_attempt_at"}).
		AddRow(5, 7, "Ohms Law", 4, 3, fixedNow).
		AddRow(5, 9, "Quadratic Formula", 0, 0, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM formula_progress")).WithArgs(5).WillReturnRows(rows)

	got, err := NewProgressRepository(db).GetUserProgress(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].LastAttemptAt)
	assert.Equal(t, fixedNow, *got[0].LastAttemptAt)
	assert.Nil(t, got[1].LastAttemptAt)
	assert.Equal(t, "Quadratic Formula", got[1].FormulaName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestAttemptRepository_Postgres runs the queries against a real server
// when LINGUAFORMULA_TEST_DATABASE_URL is set.
func TestAttemptRepository_Postgres(t *testing.T) {
	url := os.Getenv("LINGUAFORMULA_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LINGUAFORMULA_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{URL: url}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.MigrateUp(db, zap.NewNop()))

	userID := int(time.Now().UnixNano() % 1_000_000_000)
	t.Cleanup(func() {
		db.Exec(`DELETE FROM attempts WHERE user_id = $1`, userID)
		db.Exec(`DELETE FROM formula_progress WHERE user_id = $1`, userID)
	})

	repo := NewAttemptRepository(db)
	save := func(name string, correct bool) {
		require.NoError(t, repo.SaveAttempt(ctx, entity.Attempt{
			UserID:       userID,
			FormulaID:    intptr(7),
			FormulaName:  name,
			QuestionID:   11,
			QuestionType: entity.MultipleChoice,
			UserAnswer:   "4 A",
			IsCorrect:    correct,
		}))
	}
	save("Ohms Law", true)
	save("", false)

	got, err := repo.RecentAttempts(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, at := range got {
		assert.Equal(t, "Ohms Law", at.FormulaName, "a blank name keeps the stored one")
	}

	progress, err := NewProgressRepository(db).GetUserProgress(ctx, userID)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, 2, progress[0].AttemptsCount)
	assert.Equal(t, 1, progress[0].CorrectCount)
}
