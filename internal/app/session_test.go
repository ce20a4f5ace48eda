package app_test

import (
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
)

func newGradedSession(t *testing.T, quiz domain.Quiz, timeLimit int, clock *fakeClock, onFinish func(domain.SessionResult)) *app.Session {
	t.Helper()
	s := app.NewSession("s1", app.SessionConfig{
		Mode:      domain.ModeQuiz,
		Quiz:      quiz,
		Course:    cs101(),
		TimeLimit: timeLimit,
		Now:       clock.Now,
		Rand:      rand.New(rand.NewSource(11)),
		OnFinish:  onFinish,
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func newMockSession(t *testing.T, quiz domain.Quiz, delay time.Duration, onFinish func(domain.SessionResult)) *app.Session {
	t.Helper()
	s := app.NewSession("m1", app.SessionConfig{
		Mode:             domain.ModeMockTest,
		Quiz:             quiz,
		Course:           cs101(),
		TimeLimit:        1800,
		AutoAdvanceDelay: delay,
		Rand:             rand.New(rand.NewSource(5)),
		OnFinish:         onFinish,
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func TestGradedSessionScoresAndTimesAnswers(t *testing.T) {
	course := cs101()
	quiz := course.Quizzes[0]
	quiz.Questions = quiz.Questions[:3]
	clock := newFakeClock()

	var results []domain.SessionResult
	s := newGradedSession(t, quiz, 600, clock, func(r domain.SessionResult) { results = append(results, r) })

	for i, correct := range []bool{true, false, true} {
		answer(t, s, course, correct)
		clock.Advance(time.Duration(i+2) * time.Second)
		if err := s.Next(); err != nil {
			t.Fatalf("next: %v", err)
		}
	}

	if s.State() != app.StateFinished {
		t.Fatalf("expected finished, got %s", s.State())
	}
	if len(results) != 1 {
		t.Fatalf("expected one persisted result, got %d", len(results))
	}
	r := results[0]
	if r.Score != 2 || r.Total != 3 || len(r.Answers) != 3 {
		t.Fatalf("unexpected result %+v", r)
	}
	if app.Percentage(r.Score, r.Total) != 67 {
		t.Fatalf("expected 67%%, got %d", app.Percentage(r.Score, r.Total))
	}
	for i, a := range r.Answers {
		if a.TimeSpent != float64(i+2) {
			t.Fatalf("answer %d: expected %ds spent, got %v", i, i+2, a.TimeSpent)
		}
	}
	if s.Redirect() != "/quiz/w1/results" {
		t.Fatalf("unexpected redirect %q", s.Redirect())
	}
}

func TestGradedSessionRejectsInvalidMoves(t *testing.T) {
	course := cs101()
	s := newGradedSession(t, course.Quizzes[0], 600, newFakeClock(), nil)

	if err := s.Next(); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if err := s.Back(); !errors.Is(err, domain.ErrBackNotAllowed) {
		t.Fatalf("expected ErrBackNotAllowed, got %v", err)
	}
	if err := s.Select("not an option"); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}
	if err := s.Finish(true); !errors.Is(err, domain.ErrUnsupportedInMode) {
		t.Fatalf("expected ErrUnsupportedInMode, got %v", err)
	}
	if err := s.SetAutoAdvance(true); !errors.Is(err, domain.ErrUnsupportedInMode) {
		t.Fatalf("expected ErrUnsupportedInMode, got %v", err)
	}
}

func TestSelectReplacesSingleAnswer(t *testing.T) {
	course := cs101()
	s := newGradedSession(t, course.Quizzes[0], 600, newFakeClock(), nil)
	view, _ := s.Current()
	q := questionByID(t, course, view.QuestionID)

	_ = s.Select(q.Options[0])
	_ = s.Select(q.Options[1])
	view, _ = s.Current()
	if view.Selected.Multi || len(view.Selected.Values) != 1 || view.Selected.Values[0] != q.Options[1] {
		t.Fatalf("expected only the last option selected, got %+v", view.Selected)
	}
}

func TestOptionsAreReshuffledButComplete(t *testing.T) {
	course := cs101()
	s := newGradedSession(t, course.Quizzes[0], 600, newFakeClock(), nil)
	view, _ := s.Current()
	q := questionByID(t, course, view.QuestionID)
	if len(view.Options) != len(q.Options) {
		t.Fatalf("expected %d options, got %v", len(q.Options), view.Options)
	}
	for _, opt := range view.Options {
		if !q.HasOption(opt) {
			t.Fatalf("unexpected option %q", opt)
		}
	}
}

func TestTimerExpiryFinishesWithPendingAnswer(t *testing.T) {
	course := cs101()
	var results []domain.SessionResult
	s := newGradedSession(t, course.Quizzes[0], 3, newFakeClock(), func(r domain.SessionResult) { results = append(results, r) })

	answer(t, s, course, true)
	s.Tick()
	s.Tick()
	if s.TimeRemaining() != 1 || s.State() != app.StateInProgress {
		t.Fatalf("expected 1s left and in progress, got %d %s", s.TimeRemaining(), s.State())
	}
	s.Tick()
	s.Tick()

	if s.State() != app.StateFinished || s.TimeRemaining() != 0 {
		t.Fatalf("expected finished at 0, got %s %d", s.State(), s.TimeRemaining())
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	r := results[0]
	if len(r.Answers) != 1 || r.Score != 1 || r.Total != 4 || r.Time != 3 {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestFinishIsIdempotentUnderConcurrency(t *testing.T) {
	course := cs101()
	var persisted atomic.Int32
	s := app.NewSession("race", app.SessionConfig{
		Mode:      domain.ModeMockTest,
		Quiz:      course.Quizzes[1],
		Course:    course,
		TimeLimit: 1,
		Rand:      rand.New(rand.NewSource(9)),
		OnFinish:  func(domain.SessionResult) { persisted.Add(1) },
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	answer(t, s, course, true)
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	events, cancel := s.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Tick()
		}()
		go func() {
			defer wg.Done()
			_ = s.Finish(true)
		}()
	}
	wg.Wait()
	s.Close()

	finished := 0
	for ev := range events {
		if ev.Type == app.EventFinished {
			finished++
		}
	}
	if persisted.Load() != 1 {
		t.Fatalf("expected exactly one persisted result, got %d", persisted.Load())
	}
	if finished != 1 {
		t.Fatalf("expected exactly one finished event, got %d", finished)
	}
	if s.State() != app.StateFinished {
		t.Fatalf("close must not undo a finish, got %s", s.State())
	}
}

func TestMockNavigationAndFinishGuards(t *testing.T) {
	course := cs101()
	var results []domain.SessionResult
	s := newMockSession(t, course.Quizzes[0], time.Hour, func(r domain.SessionResult) { results = append(results, r) })

	if err := s.Back(); !errors.Is(err, domain.ErrNavigationBoundary) {
		t.Fatalf("expected boundary at first question, got %v", err)
	}
	if err := s.Finish(false); !errors.Is(err, domain.ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}
	if err := s.Finish(true); !errors.Is(err, domain.ErrNotLastQuestion) {
		t.Fatalf("expected ErrNotLastQuestion, got %v", err)
	}

	// Unanswered questions can be skipped in mock mode.
	for i := 0; i < 3; i++ {
		if err := s.Next(); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}
	if err := s.Next(); !errors.Is(err, domain.ErrNavigationBoundary) {
		t.Fatalf("expected boundary at last question, got %v", err)
	}
	if err := s.Finish(true); !errors.Is(err, domain.ErrNothingAnswered) {
		t.Fatalf("expected ErrNothingAnswered, got %v", err)
	}

	if err := s.Back(); err != nil {
		t.Fatalf("back: %v", err)
	}
	answer(t, s, course, true)
	view, _ := s.Current()
	if view.Index != 2 || view.Progress != 25 {
		t.Fatalf("unexpected view %+v", view)
	}
	_ = s.Next()
	if err := s.Finish(true); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := s.Finish(true); err != nil {
		t.Fatalf("second finish should be a no-op, got %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	r := results[0]
	if r.Score != 1 || r.Total != 4 || len(r.Answers) != 4 {
		t.Fatalf("unexpected result %+v", r)
	}
	notAnswered := 0
	for _, a := range r.Answers {
		if a.TimeSpent != 0 {
			t.Fatalf("mock answers carry no time, got %v", a.TimeSpent)
		}
		if a.SelectedAnswer.String() == domain.NotAnswered {
			notAnswered++
		}
	}
	if notAnswered != 3 {
		t.Fatalf("expected 3 unanswered records, got %d", notAnswered)
	}
	if s.Redirect() != "/mock-tests/cs101/results?quizId=w1" {
		t.Fatalf("unexpected redirect %q", s.Redirect())
	}
}

func TestMockMultiAnswerToggles(t *testing.T) {
	course := cs101()
	quiz := domain.Quiz{ID: "multi", Questions: []domain.Question{questionByID(t, course, "q5")}}
	var results []domain.SessionResult
	s := newMockSession(t, quiz, time.Hour, func(r domain.SessionResult) { results = append(results, r) })

	for _, opt := range []string{"2", "4", "3", "4"} {
		if err := s.Select(opt); err != nil {
			t.Fatalf("select %s: %v", opt, err)
		}
	}
	view, _ := s.Current()
	if !view.Multi || !view.Selected.Contains("2") || !view.Selected.Contains("3") || view.Selected.Contains("4") {
		t.Fatalf("unexpected selection %+v", view.Selected)
	}
	if err := s.Finish(true); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if results[0].Score != 1 {
		t.Fatalf("expected the toggled selection to be correct, got %+v", results[0].Answers)
	}
}

func TestMockAutoAdvance(t *testing.T) {
	course := cs101()
	s := newMockSession(t, course.Quizzes[0], 10*time.Millisecond, nil)
	defer s.Close()

	if err := s.SetAutoAdvance(true); err != nil {
		t.Fatalf("auto advance: %v", err)
	}
	answer(t, s, course, true)

	deadline := time.Now().Add(time.Second)
	for {
		view, _ := s.Current()
		if view.Index == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("auto-advance never moved past question 0")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMockAutoAdvanceIsCancelled(t *testing.T) {
	course := cs101()
	s := newMockSession(t, course.Quizzes[0], 40*time.Millisecond, nil)
	defer s.Close()

	_ = s.SetAutoAdvance(true)
	answer(t, s, course, true)
	if err := s.SetAutoAdvance(false); err != nil {
		t.Fatalf("disable auto advance: %v", err)
	}

	time.Sleep(120 * time.Millisecond)
	if view, _ := s.Current(); view.Index != 0 {
		t.Fatalf("cancelled auto-advance still moved to %d", view.Index)
	}
}

func TestCloseDiscardsAttempt(t *testing.T) {
	course := cs101()
	called := false
	s := newGradedSession(t, course.Quizzes[0], 5, newFakeClock(), func(domain.SessionResult) { called = true })
	answer(t, s, course, true)

	s.Close()
	s.Tick()
	for i := 0; i < 10; i++ {
		s.Tick()
	}

	if called {
		t.Fatalf("abandoned session must not persist")
	}
	if s.State() != app.StateAbandoned {
		t.Fatalf("expected abandoned, got %s", s.State())
	}
	if _, ok := s.Result(); ok {
		t.Fatalf("abandoned session must have no result")
	}
	if err := s.Select("10"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after close, got %v", err)
	}
}

func TestStartRejectsEmptyQuiz(t *testing.T) {
	s := app.NewSession("empty", app.SessionConfig{Quiz: cs101().Quizzes[2], TimeLimit: 60})
	if err := s.Start(); !errors.Is(err, domain.ErrEmptyQuiz) {
		t.Fatalf("expected ErrEmptyQuiz, got %v", err)
	}
}

func TestCountdownDrivesTheSession(t *testing.T) {
	course := cs101()
	done := make(chan domain.SessionResult, 1)
	s := app.NewSession("timed", app.SessionConfig{
		Mode:         domain.ModeQuiz,
		Quiz:         course.Quizzes[0],
		Course:       course,
		TimeLimit:    2,
		TickInterval: 5 * time.Millisecond,
		OnFinish:     func(r domain.SessionResult) { done <- r },
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Close()

	select {
	case r := <-done:
		if r.Time != 2 || len(r.Answers) != 0 {
			t.Fatalf("unexpected result %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("countdown never finished the session")
	}
}

func TestSlowPersistenceDoesNotHoldTheSession(t *testing.T) {
	course := cs101()
	entered := make(chan struct{})
	release := make(chan struct{})
	s := newGradedSession(t, course.Quizzes[0], 1, newFakeClock(), func(domain.SessionResult) {
		close(entered)
		<-release
	})
	events, cancel := s.Subscribe()
	defer cancel()
	<-events // current question

	go s.Tick()
	<-entered

	// While the result is being written the session still answers.
	stateCh := make(chan app.State, 1)
	go func() { stateCh <- s.State() }()
	select {
	case st := <-stateCh:
		if st != app.StateFinished {
			t.Fatalf("expected finished while persisting, got %s", st)
		}
	case <-time.After(time.Second):
		t.Fatalf("session lock held during persistence")
	}

	late, lateCancel := s.Subscribe()
	defer lateCancel()
	select {
	case ev := <-events:
		t.Fatalf("finished published before persistence completed: %+v", ev)
	default:
	}

	close(release)
	for _, ch := range []<-chan app.Event{events, late} {
		select {
		case ev := <-ch:
			if ev.Type != app.EventFinished || ev.Finished.Redirect != "/quiz/w1/results" {
				t.Fatalf("unexpected event %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("finished event never published")
		}
	}
	select {
	case ev := <-late:
		t.Fatalf("late subscriber got a duplicate event %+v", ev)
	default:
	}
}
