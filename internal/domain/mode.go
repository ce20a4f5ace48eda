package domain

import (
	"fmt"
	"net/url"
)

// Mode selects the navigation discipline of a session.
type Mode string

const (
	// ModeQuiz is the graded, forward-only mode with per-question timing.
	ModeQuiz Mode = "quiz"
	// ModeMockTest is the free-navigation practice mode.
	ModeMockTest Mode = "mockTest"
)

// ParseMode validates a mode string.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeQuiz, ModeMockTest:
		return Mode(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
}

// ResultKey is the persistence key for the latest result of quizID in this mode.
func (m Mode) ResultKey(quizID string) string {
	return string(m) + "Result-" + quizID
}

// ResultsPath is where a learner is sent once a session finishes.
func (m Mode) ResultsPath(quizID, courseID string) string {
	if m == ModeMockTest {
		return "/mock-tests/" + url.PathEscape(courseID) + "/results?quizId=" + url.QueryEscape(quizID)
	}
	return "/quiz/" + url.PathEscape(quizID) + "/results"
}
