package exercise

import (
	"errors"
	"fmt"
	"strings"
)

// Type selects the interaction mode of an exercise. The set is closed:
// every switch over Type lists all three values and has no default branch.
type Type int

const (
	TypeMultipleChoice Type = iota + 1
	TypeTextAnswer
	TypeCode
)

// Label is the wire/display form used by the exercises API.
func (t Type) Label() string {
	switch t {
	case TypeMultipleChoice:
		return "Multiple choice"
	case TypeTextAnswer:
		return "Text Answer"
	case TypeCode:
		return "Code"
	}
	return ""
}

// Slug is the short form used in URLs and seed files.
func (t Type) Slug() string {
	switch t {
	case TypeMultipleChoice:
		return "multiple-choice"
	case TypeTextAnswer:
		return "text-answer"
	case TypeCode:
		return "code"
	}
	return ""
}

func (t Type) String() string { return t.Label() }

// Types lists every exercise type in display order.
func Types() []Type {
	return []Type{TypeMultipleChoice, TypeTextAnswer, TypeCode}
}

var ErrUnknownType = errors.New("unknown exercise type")

// ParseType accepts either the label ("Multiple choice") or the slug
// ("multiple-choice"), case-insensitively.
func ParseType(s string) (Type, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, t := range Types() {
		if norm == strings.ToLower(t.Label()) || norm == t.Slug() {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Mode is the interaction mode the session controller dispatches to.
type Mode int

const (
	ModeQuiz Mode = iota + 1
	ModeCode
)

func (m Mode) String() string {
	switch m {
	case ModeQuiz:
		return "quiz"
	case ModeCode:
		return "code"
	}
	return ""
}

// Mode maps the exercise type to its interaction mode.
func (t Type) Mode() Mode {
	switch t {
	case TypeMultipleChoice, TypeTextAnswer:
		return ModeQuiz
	case TypeCode:
		return ModeCode
	}
	panic(fmt.Sprintf("exercise: invalid type %d", int(t)))
}

// Difficulty is display-only. The zero value means "not set".
type Difficulty string

const (
	DifficultyNone   Difficulty = ""
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalizes free-form input. Unknown values yield DifficultyNone.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "facile":
		return DifficultyEasy
	case "medium", "moyen":
		return DifficultyMedium
	case "hard", "difficile":
		return DifficultyHard
	default:
		return DifficultyNone
	}
}

// Label returns the capitalized display form.
func (d Difficulty) Label() string {
	if d == DifficultyNone {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// DefaultLanguage is what the code editor is configured with when an
// exercise does not name one.
const DefaultLanguage = "javascript"

// Exercise is immutable once built; it is handed around by value.
type Exercise struct {
	ID               string
	Title            string
	Statement        string
	Type             Type
	Difficulty       Difficulty
	EstimatedMinutes int // 0 = unknown
	CourseID         string
	Language         string
}

// New validates the required fields and normalizes optional ones.
func New(id, title, statement string, t Type) (Exercise, error) {
	if strings.TrimSpace(id) == "" {
		return Exercise{}, errors.New("exercise id cannot be empty")
	}
	if t.Label() == "" {
		return Exercise{}, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	return Exercise{
		ID:        id,
		Title:     title,
		Statement: statement,
		Type:      t,
		Language:  DefaultLanguage,
	}, nil
}

// Mode is a shorthand for e.Type.Mode().
func (e Exercise) Mode() Mode {
	return e.Type.Mode()
}

// EditorLanguage returns the configured language or the default.
func (e Exercise) EditorLanguage() string {
	if e.Language == "" {
		return DefaultLanguage
	}
	return e.Language
}

// Find performs a linear lookup by id.
func Find(items []Exercise, id string) (Exercise, bool) {
	if id == "" {
		return Exercise{}, false
	}
	for _, ex := range items {
		if ex.ID == id {
			return ex, true
		}
	}
	return Exercise{}, false
}
