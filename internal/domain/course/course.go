package course

import (
	"errors"
	"strings"

	"github.com/edushell/portal/internal/id"
)

// Course groups exercises under a title. ExerciseIDs is ordered.
type Course struct {
	ID          string
	Title       string
	Description string
	ExerciseIDs []string
}

func New(title string) (*Course, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errors.New("course title cannot be empty")
	}
	return &Course{
		ID:          id.GenerateID(),
		Title:       title,
		ExerciseIDs: []string{},
	}, nil
}

// AddExercise appends an exercise reference, ignoring duplicates.
func (c *Course) AddExercise(exerciseID string) error {
	if exerciseID == "" {
		return errors.New("exercise id cannot be empty")
	}
	for _, existing := range c.ExerciseIDs {
		if existing == exerciseID {
			return nil
		}
	}
	c.ExerciseIDs = append(c.ExerciseIDs, exerciseID)
	return nil
}
