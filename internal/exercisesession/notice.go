package exercisesession

// Level is the severity of a transient notice shown after an action.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a one-shot message surfaced to the learner.
type Notice struct {
	Level Level
	Text  string
}

const (
	TextEmptySubmission = "Please write some code before submitting."
	TextSubmitted       = "Code submitted successfully! (Demo mode - no actual validation)"
	TextSubmitFailed    = "Your submission could not be processed. Please try again."
	TextRunLogged       = "Code executed in console (development mode)"
	TextRunFailed       = "Error in code"
)
