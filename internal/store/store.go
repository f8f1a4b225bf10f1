package store

import (
	"context"
	"errors"

	"github.com/edushell/portal/internal/domain/course"
	"github.com/edushell/portal/internal/domain/exercise"
)

var (
	ErrNotFound = errors.New("not found")
)

// Store persists the exercise catalog. It never holds learner progress.
type Store interface {
	SaveExercise(ctx context.Context, ex exercise.Exercise) error
	GetExercise(ctx context.Context, id string) (exercise.Exercise, error)
	ListExercises(ctx context.Context) ([]exercise.Exercise, error)
	DeleteExercise(ctx context.Context, id string) error

	SaveCourse(ctx context.Context, c *course.Course) error
	GetCourse(ctx context.Context, id string) (*course.Course, error)
	ListCourses(ctx context.Context) ([]*course.Course, error)

	Ping(ctx context.Context) error
	Close() error
}
