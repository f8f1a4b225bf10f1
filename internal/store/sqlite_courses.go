package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/edushell/portal/internal/domain/course"
)

// ============================================================================
// Courses
// ============================================================================

// SaveCourse upserts the course and rewrites its exercise list.
func (s *SQLiteStore) SaveCourse(ctx context.Context, c *course.Course) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO courses (id, title, description) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, description = excluded.description
	`, c.ID, c.Title, c.Description)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM course_exercises WHERE course_id = ?", c.ID); err != nil {
		return err
	}

	for i, exerciseID := range c.ExerciseIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO course_exercises (course_id, exercise_id, position) VALUES (?, ?, ?)",
			c.ID, exerciseID, i,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetCourse(ctx context.Context, id string) (*course.Course, error) {
	var c course.Course
	err := s.db.QueryRowContext(ctx, "SELECT id, title, description FROM courses WHERE id = ?", id).
		Scan(&c.ID, &c.Title, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	exerciseIDs, err := s.courseExerciseIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	c.ExerciseIDs = exerciseIDs

	return &c, nil
}

func (s *SQLiteStore) ListCourses(ctx context.Context) ([]*course.Course, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, title, description FROM courses ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []*course.Course
	for rows.Next() {
		var c course.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description); err != nil {
			return nil, err
		}
		courses = append(courses, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, c := range courses {
		exerciseIDs, err := s.courseExerciseIDs(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.ExerciseIDs = exerciseIDs
	}
	return courses, nil
}

func (s *SQLiteStore) courseExerciseIDs(ctx context.Context, courseID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT exercise_id FROM course_exercises WHERE course_id = ? ORDER BY position",
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var exerciseID string
		if err := rows.Scan(&exerciseID); err != nil {
			return nil, err
		}
		ids = append(ids, exerciseID)
	}
	return ids, rows.Err()
}
