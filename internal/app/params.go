package app

import (
	"net/url"
	"strconv"
	"strings"

	"quizdeck/internal/domain"
)

// Limits holds the defaults applied to start parameters.
type Limits struct {
	QuizTimeLimit int
	MockTimeLimit int
	MockQuestions int
}

// DefaultLimits: 10 minutes per quiz, 30 minutes and 20 questions per mock test.
func DefaultLimits() Limits {
	return Limits{QuizTimeLimit: 600, MockTimeLimit: 1800, MockQuestions: 20}
}

// StartParams configures a new session.
type StartParams struct {
	TimeLimit    int
	NumQuestions int
	Weeks        []int
}

// ParseStartParams reads timeLimit, numQuestions and weeks from a query string.
// Missing or invalid values fall back to the limits; unparsable weeks are ignored,
// and a weeks value with no valid entry selects nothing.
func (l Limits) ParseStartParams(mode domain.Mode, values url.Values) StartParams {
	p := StartParams{TimeLimit: l.QuizTimeLimit}
	if mode == domain.ModeMockTest {
		p.TimeLimit = l.MockTimeLimit
		p.NumQuestions = positiveInt(values.Get("numQuestions"), l.MockQuestions)
		p.Weeks = parseWeeks(values.Get("weeks"))
	}
	p.TimeLimit = positiveInt(values.Get("timeLimit"), p.TimeLimit)
	return p
}

// normalize fills zero values from the limits.
func (l Limits) normalize(mode domain.Mode, p StartParams) StartParams {
	if p.TimeLimit <= 0 {
		p.TimeLimit = l.QuizTimeLimit
		if mode == domain.ModeMockTest {
			p.TimeLimit = l.MockTimeLimit
		}
	}
	if mode == domain.ModeMockTest && p.NumQuestions <= 0 {
		p.NumQuestions = l.MockQuestions
	}
	return p
}

func positiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseWeeks(raw string) []int {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	// Non-nil even when nothing parses: a filter of only bad weeks matches no quiz.
	weeks := []int{}
	for _, part := range strings.Split(raw, ",") {
		w, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		weeks = append(weeks, w)
	}
	return weeks
}
