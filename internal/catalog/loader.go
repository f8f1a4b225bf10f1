package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/edushell/portal/internal/domain/course"
	"github.com/edushell/portal/internal/domain/exercise"
	"github.com/edushell/portal/internal/store"
)

// File is the YAML structure of a catalog seed/export document.
type File struct {
	Version   string         `yaml:"version"`
	Courses   []CourseFile   `yaml:"courses"`
	Exercises []ExerciseFile `yaml:"exercises"`
}

type CourseFile struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Exercises   []string `yaml:"exercises,omitempty"`
}

type ExerciseFile struct {
	ID               string `yaml:"id"`
	Title            string `yaml:"title"`
	Statement        string `yaml:"statement"`
	Type             string `yaml:"type"`
	Difficulty       string `yaml:"difficulty,omitempty"`
	EstimatedMinutes int    `yaml:"estimated_minutes,omitempty"`
	Course           string `yaml:"course,omitempty"`
	Language         string `yaml:"language,omitempty"`
}

// Document is a parsed, validated catalog.
type Document struct {
	Exercises []exercise.Exercise
	Courses   []*course.Course
}

// LoadFile reads and parses a YAML catalog from disk.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog. Exercise types must be known; ids must be
// unique. Courses without an id get a generated one.
func Parse(data []byte) (*Document, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	doc := &Document{
		Exercises: make([]exercise.Exercise, 0, len(f.Exercises)),
		Courses:   make([]*course.Course, 0, len(f.Courses)),
	}

	seen := make(map[string]bool, len(f.Exercises))
	for _, ef := range f.Exercises {
		t, err := exercise.ParseType(ef.Type)
		if err != nil {
			return nil, fmt.Errorf("exercise %q: %w", ef.ID, err)
		}
		ex, err := exercise.New(ef.ID, ef.Title, ef.Statement, t)
		if err != nil {
			return nil, err
		}
		if seen[ex.ID] {
			return nil, fmt.Errorf("duplicate exercise id %q", ex.ID)
		}
		seen[ex.ID] = true

		ex.Difficulty = exercise.ParseDifficulty(ef.Difficulty)
		if ef.EstimatedMinutes > 0 {
			ex.EstimatedMinutes = ef.EstimatedMinutes
		}
		ex.CourseID = ef.Course
		if ef.Language != "" {
			ex.Language = ef.Language
		}
		doc.Exercises = append(doc.Exercises, ex)
	}

	for _, cf := range f.Courses {
		c, err := course.New(cf.Title)
		if err != nil {
			return nil, fmt.Errorf("course %q: %w", cf.ID, err)
		}
		if cf.ID != "" {
			c.ID = cf.ID
		}
		c.Description = cf.Description
		for _, exerciseID := range cf.Exercises {
			if !seen[exerciseID] {
				return nil, fmt.Errorf("course %q references unknown exercise %q", c.ID, exerciseID)
			}
			if err := c.AddExercise(exerciseID); err != nil {
				return nil, err
			}
		}
		doc.Courses = append(doc.Courses, c)
	}

	return doc, nil
}

// ImportResult counts what Import wrote.
type ImportResult struct {
	ExercisesSaved int
	CoursesSaved   int
}

// Import upserts every exercise and course of doc into s.
func Import(ctx context.Context, s store.Store, doc *Document) (ImportResult, error) {
	var result ImportResult
	for _, ex := range doc.Exercises {
		if err := s.SaveExercise(ctx, ex); err != nil {
			return result, fmt.Errorf("save exercise %s: %w", ex.ID, err)
		}
		result.ExercisesSaved++
	}
	for _, c := range doc.Courses {
		if err := s.SaveCourse(ctx, c); err != nil {
			return result, fmt.Errorf("save course %s: %w", c.ID, err)
		}
		result.CoursesSaved++
	}
	return result, nil
}

// SeedIfEmpty imports the file at path only when the store has no exercises.
func SeedIfEmpty(ctx context.Context, s store.Store, path string) (ImportResult, error) {
	existing, err := s.ListExercises(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	if len(existing) > 0 {
		return ImportResult{}, nil
	}
	doc, err := LoadFile(path)
	if err != nil {
		return ImportResult{}, err
	}
	return Import(ctx, s, doc)
}

// Export writes the whole catalog of s as YAML.
func Export(ctx context.Context, s store.Store, version string, w io.Writer) error {
	exercises, err := s.ListExercises(ctx)
	if err != nil {
		return fmt.Errorf("load exercises: %w", err)
	}
	courses, err := s.ListCourses(ctx)
	if err != nil {
		return fmt.Errorf("load courses: %w", err)
	}

	f := File{
		Version:   version,
		Courses:   make([]CourseFile, 0, len(courses)),
		Exercises: make([]ExerciseFile, 0, len(exercises)),
	}
	for _, c := range courses {
		f.Courses = append(f.Courses, CourseFile{
			ID:          c.ID,
			Title:       c.Title,
			Description: c.Description,
			Exercises:   c.ExerciseIDs,
		})
	}
	for _, ex := range exercises {
		f.Exercises = append(f.Exercises, ExerciseFile{
			ID:               ex.ID,
			Title:            ex.Title,
			Statement:        ex.Statement,
			Type:             ex.Type.Slug(),
			Difficulty:       string(ex.Difficulty),
			EstimatedMinutes: ex.EstimatedMinutes,
			Course:           ex.CourseID,
			Language:         ex.Language,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}

var errEmptyDocument = errors.New("catalog document has no exercises or courses")

// Validate rejects documents that would import nothing.
func (d *Document) Validate() error {
	if len(d.Exercises) == 0 && len(d.Courses) == 0 {
		return errEmptyDocument
	}
	return nil
}
