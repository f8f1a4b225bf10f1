package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/edushell/portal/internal/domain/exercise"
)

const schema = `
CREATE TABLE IF NOT EXISTS exercises (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    statement TEXT NOT NULL,
    type TEXT NOT NULL,
    difficulty TEXT NOT NULL DEFAULT '',
    estimated_minutes INTEGER NOT NULL DEFAULT 0,
    course_id TEXT,
    language TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS courses (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS course_exercises (
    course_id TEXT NOT NULL,
    exercise_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (course_id, exercise_id),
    FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE
);
`

type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check: *SQLiteStore satisfies Store.
var _ Store = (*SQLiteStore)(nil)

func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// a single connection serializes writers and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ============================================================================
// Exercises
// ============================================================================

// SaveExercise inserts or replaces an exercise. Replacing keeps the
// original rowid, so listing order stays the insertion order.
func (s *SQLiteStore) SaveExercise(ctx context.Context, ex exercise.Exercise) error {
	var courseID sql.NullString
	if ex.CourseID != "" {
		courseID = sql.NullString{String: ex.CourseID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exercises (id, title, statement, type, difficulty, estimated_minutes, course_id, language)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			statement = excluded.statement,
			type = excluded.type,
			difficulty = excluded.difficulty,
			estimated_minutes = excluded.estimated_minutes,
			course_id = excluded.course_id,
			language = excluded.language
	`, ex.ID, ex.Title, ex.Statement, ex.Type.Slug(), string(ex.Difficulty), ex.EstimatedMinutes, courseID, ex.Language)
	return err
}

const exerciseColumns = "id, title, statement, type, difficulty, estimated_minutes, course_id, language"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExercise(row rowScanner) (exercise.Exercise, error) {
	var (
		ex         exercise.Exercise
		typeSlug   string
		difficulty string
		courseID   sql.NullString
	)
	if err := row.Scan(&ex.ID, &ex.Title, &ex.Statement, &typeSlug, &difficulty, &ex.EstimatedMinutes, &courseID, &ex.Language); err != nil {
		return exercise.Exercise{}, err
	}

	t, err := exercise.ParseType(typeSlug)
	if err != nil {
		return exercise.Exercise{}, fmt.Errorf("exercise %s: %w", ex.ID, err)
	}
	ex.Type = t
	ex.Difficulty = exercise.ParseDifficulty(difficulty)
	if courseID.Valid {
		ex.CourseID = courseID.String
	}
	return ex, nil
}

func (s *SQLiteStore) GetExercise(ctx context.Context, id string) (exercise.Exercise, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+exerciseColumns+" FROM exercises WHERE id = ?", id)
	ex, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return exercise.Exercise{}, ErrNotFound
	}
	return ex, err
}

func (s *SQLiteStore) ListExercises(ctx context.Context) ([]exercise.Exercise, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+exerciseColumns+" FROM exercises ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exercises []exercise.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}

func (s *SQLiteStore) DeleteExercise(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM course_exercises WHERE exercise_id = ?", id); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM exercises WHERE id = ?", id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}
