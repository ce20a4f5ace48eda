package app

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizdeck/internal/domain"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizService wires sessions to the catalog and result persistence.
type QuizService struct {
	catalog  *Catalog
	sessions SessionRepository
	results  *ResultBridge
	cfg      serviceConfig

	mu  sync.Mutex
	rnd *rand.Rand
}

type serviceConfig struct {
	limits           Limits
	tickInterval     time.Duration
	autoAdvanceDelay time.Duration
	saveTimeout      time.Duration
	now              func() time.Time
	newID            func() string
	seed             int64
	logger           *slog.Logger
}

// Option customizes a QuizService.
type Option func(*serviceConfig)

func WithLimits(l Limits) Option { return func(c *serviceConfig) { c.limits = l } }

// WithTickInterval sets the countdown resolution; zero leaves ticking to the caller.
func WithTickInterval(d time.Duration) Option { return func(c *serviceConfig) { c.tickInterval = d } }

func WithAutoAdvanceDelay(d time.Duration) Option {
	return func(c *serviceConfig) { c.autoAdvanceDelay = d }
}
func WithClock(now func() time.Time) Option   { return func(c *serviceConfig) { c.now = now } }
func WithIDGenerator(f func() string) Option  { return func(c *serviceConfig) { c.newID = f } }
func WithSeed(seed int64) Option              { return func(c *serviceConfig) { c.seed = seed } }
func WithLogger(logger *slog.Logger) Option   { return func(c *serviceConfig) { c.logger = logger } }

func NewQuizService(catalog *Catalog, sessions SessionRepository, results *ResultBridge, opts ...Option) *QuizService {
	cfg := serviceConfig{
		limits:           DefaultLimits(),
		tickInterval:     time.Second,
		autoAdvanceDelay: 300 * time.Millisecond,
		saveTimeout:      5 * time.Second,
		now:              time.Now,
		newID:            uuid.NewString,
		seed:             time.Now().UnixNano(),
		logger:           slog.Default(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &QuizService{
		catalog:  catalog,
		sessions: sessions,
		results:  results,
		cfg:      cfg,
		rnd:      rand.New(rand.NewSource(cfg.seed)),
	}
}

func (s *QuizService) Catalog() *Catalog { return s.catalog }
func (s *QuizService) Limits() Limits    { return s.cfg.limits }

// StartQuiz begins a graded attempt of quizID.
func (s *QuizService) StartQuiz(ctx context.Context, quizID string, params StartParams) (*Session, error) {
	quiz, course, err := s.catalog.QuizByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, domain.ModeQuiz, quiz, course, s.cfg.limits.normalize(domain.ModeQuiz, params))
}

// StartMockTest assembles a practice quiz from courseID's question bank and
// begins an attempt of it.
func (s *QuizService) StartMockTest(ctx context.Context, courseID string, params StartParams) (*Session, error) {
	course, err := s.catalog.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	params = s.cfg.limits.normalize(domain.ModeMockTest, params)

	s.mu.Lock()
	quiz := BuildMockQuiz(course, params.Weeks, params.NumQuestions, s.rnd, s.cfg.now())
	s.mu.Unlock()

	return s.start(ctx, domain.ModeMockTest, quiz, course, params)
}

func (s *QuizService) start(ctx context.Context, mode domain.Mode, quiz domain.Quiz, course domain.Course, params StartParams) (*Session, error) {
	if len(quiz.Questions) == 0 {
		return nil, domain.ErrEmptyQuiz
	}

	// A new attempt invalidates the previous result for the same key.
	if err := s.results.Clear(ctx, mode, quiz.ID); err != nil {
		s.cfg.logger.Warn("could not clear previous result", "quiz_id", quiz.ID, "mode", mode, "error", err)
	}

	s.mu.Lock()
	rnd := rand.New(rand.NewSource(s.rnd.Int63()))
	s.mu.Unlock()

	session := NewSession(s.cfg.newID(), SessionConfig{
		Mode:             mode,
		Quiz:             quiz,
		Course:           course,
		TimeLimit:        params.TimeLimit,
		TickInterval:     s.cfg.tickInterval,
		AutoAdvanceDelay: s.cfg.autoAdvanceDelay,
		Now:              s.cfg.now,
		Rand:             rnd,
		OnFinish:         s.persistResult,
	})
	if err := session.Start(); err != nil {
		return nil, err
	}
	s.sessions.Save(session)
	s.cfg.logger.Info("quiz session started",
		"session_id", session.ID(), "quiz_id", quiz.ID, "mode", mode,
		"questions", len(quiz.Questions), "time_limit", params.TimeLimit)
	return session, nil
}

// Session returns a live session.
func (s *QuizService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// End tears a session down. Unfinished attempts are discarded.
func (s *QuizService) End(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	if session.State() == StateInProgress {
		s.cfg.logger.Info("quiz session abandoned", "session_id", sessionID, "quiz_id", session.Quiz().ID)
	}
	session.Close()
	s.sessions.Delete(sessionID)
}

// Review waits up to wait for the result of quizID and renders it.
func (s *QuizService) Review(ctx context.Context, mode domain.Mode, quizID string, wait time.Duration) (Review, error) {
	result, err := s.results.Await(ctx, mode, quizID, wait)
	if err != nil {
		return Review{}, err
	}
	return BuildReview(result)
}

// Leaderboard is a placeholder until scores are aggregated somewhere.
func (s *QuizService) Leaderboard(_ context.Context) domain.Leaderboard {
	return domain.Leaderboard{Entries: []domain.LeaderboardEntry{}}
}

// persistResult is best effort: a failed write is logged and the session
// still moves on to the results view.
func (s *QuizService) persistResult(result domain.SessionResult) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.saveTimeout)
	defer cancel()
	if err := s.results.Save(ctx, result); err != nil {
		s.cfg.logger.Error("could not save quiz result", "quiz_id", result.QuizID, "mode", result.Mode, "error", err)
		return
	}
	s.cfg.logger.Info("quiz finished",
		"quiz_id", result.QuizID, "mode", result.Mode,
		"score", result.Score, "total", result.Total, "time", result.Time)
}
