package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
	"quizdeck/internal/infra/memory"
)

func cs101() domain.Course {
	return domain.Course{
		ID:          "cs101",
		Name:        "CS101",
		Description: "Introduction to computing",
		Quizzes: []domain.Quiz{
			{
				ID:    "w1",
				Title: "Week 1",
				Week:  1,
				Questions: []domain.Question{
					{ID: "q1", Text: "Binary of 2?", Options: []string{"10", "11", "01"}, CorrectAnswer: domain.Single("10")},
					{ID: "q2", Text: "Bits in a byte?", Options: []string{"4", "8", "16"}, CorrectAnswer: domain.Single("8")},
					{ID: "q3", Text: "Hex of 15?", Options: []string{"E", "F", "G"}, CorrectAnswer: domain.Single("F")},
					{ID: "q4", Text: "Base of octal?", Options: []string{"6", "8", "10"}, CorrectAnswer: domain.Single("8")},
				},
			},
			{
				ID:    "w2",
				Title: "Week 2",
				Week:  2,
				Questions: []domain.Question{
					{ID: "q5", Text: "Which are primes?", Options: []string{"2", "3", "4"}, CorrectAnswer: domain.Multiple("2", "3")},
					{ID: "q6", Text: "Is 0 even?", Options: []string{"yes", "no"}, CorrectAnswer: domain.Single("yes")},
				},
			},
			{ID: "w3", Title: "Week 3", Week: 3},
		},
	}
}

func questionByID(t *testing.T, course domain.Course, id string) domain.Question {
	t.Helper()
	q, ok := course.FindQuestion(id)
	if !ok {
		t.Fatalf("question %s not in fixture", id)
	}
	return q
}

// answer selects the correct (or a wrong) answer for whatever is on screen.
func answer(t *testing.T, s *app.Session, course domain.Course, correct bool) {
	t.Helper()
	view, err := s.Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	q := questionByID(t, course, view.QuestionID)
	if correct {
		for _, v := range q.CorrectAnswer.Values {
			if err := s.Select(v); err != nil {
				t.Fatalf("select %q: %v", v, err)
			}
		}
		return
	}
	for _, opt := range q.Options {
		if !q.CorrectAnswer.Contains(opt) {
			if err := s.Select(opt); err != nil {
				t.Fatalf("select %q: %v", opt, err)
			}
			return
		}
	}
	t.Fatalf("question %s has no wrong option", q.ID)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1700000000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type failingLoader struct{}

func (failingLoader) LoadCourses(context.Context) ([]domain.Course, error) {
	return nil, errors.New("disk on fire")
}

func newService(t *testing.T, opts ...app.Option) (*app.QuizService, *memory.ResultStore, *memory.SessionStore) {
	t.Helper()
	store := memory.NewResultStore()
	sessions := memory.NewSessionStore()
	catalog := app.NewCatalog(memory.NewStaticCourseLoader(cs101()), nil)
	opts = append([]app.Option{app.WithTickInterval(0), app.WithSeed(42)}, opts...)
	return app.NewQuizService(catalog, sessions, app.NewResultBridge(store, nil), opts...), store, sessions
}
