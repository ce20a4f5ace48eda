package app

import (
	"math/rand"
	"sync"
	"time"

	"quizdeck/internal/domain"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateFinished
	// StateAbandoned means the learner left before finishing; nothing was persisted.
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateFinished:
		return "finished"
	case StateAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// Event types published to session subscribers.
const (
	EventQuestion = "question"
	EventTick     = "tick"
	EventFinished = "finished"
)

// Event is a state change pushed to subscribers.
type Event struct {
	Type          string         `json:"type"`
	Question      *QuestionView  `json:"question,omitempty"`
	TimeRemaining int            `json:"timeRemaining"`
	Finished      *FinishSummary `json:"finished,omitempty"`
}

// FinishSummary tells the client where to find its results.
type FinishSummary struct {
	QuizID   string `json:"quizId"`
	Score    int    `json:"score"`
	Total    int    `json:"total"`
	Time     int    `json:"time"`
	Redirect string `json:"redirect"`
}

// QuestionView is the displayable state of the current question.
type QuestionView struct {
	Index         int           `json:"index"`
	Total         int           `json:"total"`
	QuestionID    string        `json:"questionId"`
	Text          string        `json:"text"`
	Options       []string      `json:"options"`
	Multi         bool          `json:"multi"`
	Selected      domain.Choice `json:"selected"`
	TimeRemaining int           `json:"timeRemaining"`
	Clock         string        `json:"clock"`
	Progress      float64       `json:"progress"`
	CanBack       bool          `json:"canBack"`
	CanNext       bool          `json:"canNext"`
	IsLast        bool          `json:"isLast"`
	AutoAdvance   bool          `json:"autoAdvance"`
}

// SessionConfig describes one attempt.
type SessionConfig struct {
	Mode   domain.Mode
	Quiz   domain.Quiz
	Course domain.Course
	// TimeLimit is in seconds.
	TimeLimit int
	// TickInterval of zero disables the background countdown; callers drive Tick.
	TickInterval     time.Duration
	AutoAdvanceDelay time.Duration
	Now              func() time.Time
	Rand             *rand.Rand
	// OnFinish runs exactly once, outside the session lock, before the finished
	// event is published. The session is already Finished while it runs.
	OnFinish func(domain.SessionResult)
}

// Session is the state machine of a single quiz attempt. All transitions are
// serialized by mu, including the countdown and auto-advance callbacks.
// Persisting a finished result happens outside mu.
type Session struct {
	id  string
	cfg SessionConfig
	now func() time.Time
	rnd *rand.Rand

	mu             sync.Mutex
	state          State
	questions      []domain.Question
	index          int
	displayOptions []string
	selections     []domain.Choice
	records        []domain.AnswerRecord
	timeRemaining  int
	questionStart  time.Time
	autoAdvance    bool
	advanceTimer   *time.Timer
	advanceGen     uint64
	countdown      *countdown
	result         *domain.SessionResult
	redirect       string
	published      bool
	subscribers    map[chan Event]struct{}
}

// NewSession builds a session in the NotStarted state.
func NewSession(id string, cfg SessionConfig) *Session {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	rnd := cfg.Rand
	if rnd == nil {
		rnd = newRand()
	}
	if cfg.Mode == "" {
		cfg.Mode = domain.ModeQuiz
	}
	return &Session{
		id:            id,
		cfg:           cfg,
		now:           now,
		rnd:           rnd,
		timeRemaining: cfg.TimeLimit,
		subscribers:   make(map[chan Event]struct{}),
	}
}

func (s *Session) ID() string            { return s.id }
func (s *Session) Mode() domain.Mode     { return s.cfg.Mode }
func (s *Session) Quiz() domain.Quiz     { return s.cfg.Quiz }
func (s *Session) Course() domain.Course { return s.cfg.Course }
func (s *Session) TimeLimit() int        { return s.cfg.TimeLimit }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TimeRemaining returns the countdown value in seconds.
func (s *Session) TimeRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeRemaining
}

// Start fixes the question order and starts the countdown.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateInProgress:
		return nil
	case StateFinished:
		return domain.ErrSessionFinished
	case StateAbandoned:
		return domain.ErrSessionNotFound
	}
	if len(s.cfg.Quiz.Questions) == 0 {
		return domain.ErrEmptyQuiz
	}

	s.questions = Shuffle(s.rnd, s.cfg.Quiz.Questions)
	s.selections = make([]domain.Choice, len(s.questions))
	s.state = StateInProgress
	if s.cfg.TickInterval > 0 {
		s.countdown = startCountdown(s.cfg.TickInterval, s.Tick)
	}
	s.showLocked(0)
	return nil
}

// Current returns the question on screen.
func (s *Session) Current() (QuestionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.activeLocked(); err != nil {
		return QuestionView{}, err
	}
	return s.viewLocked(), nil
}

// Select records option for the current question. Multi-answer questions
// toggle membership; single-answer questions replace the selection.
func (s *Session) Select(option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.activeLocked(); err != nil {
		return err
	}

	q := s.questions[s.index]
	if !q.HasOption(option) {
		return domain.ErrOptionNotFound
	}
	s.cancelAdvanceLocked()
	if q.IsMulti() {
		s.selections[s.index] = s.selections[s.index].Toggle(option)
	} else {
		s.selections[s.index] = domain.Single(option)
		if s.cfg.Mode == domain.ModeMockTest && s.autoAdvance && s.index < len(s.questions)-1 {
			s.scheduleAdvanceLocked()
		}
	}
	s.broadcastLocked(Event{Type: EventQuestion, Question: s.viewPtrLocked(), TimeRemaining: s.timeRemaining})
	return nil
}

// Next advances. In graded mode it commits the current answer first and
// finishes the session when called on the last question.
func (s *Session) Next() error {
	s.mu.Lock()
	var publish func()
	defer func() {
		s.mu.Unlock()
		if publish != nil {
			publish()
		}
	}()
	if err := s.activeLocked(); err != nil {
		return err
	}

	if s.cfg.Mode == domain.ModeQuiz {
		selected := s.selections[s.index]
		if selected.Empty() {
			return domain.ErrNoSelection
		}
		s.records = append(s.records, s.recordLocked(s.index, s.now().Sub(s.questionStart).Seconds()))
		if s.index == len(s.questions)-1 {
			publish = s.finishLocked()
			return nil
		}
		s.showLocked(s.index + 1)
		return nil
	}

	if s.index >= len(s.questions)-1 {
		return domain.ErrNavigationBoundary
	}
	s.showLocked(s.index + 1)
	return nil
}

// Back moves to the previous question in mock-test mode.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.activeLocked(); err != nil {
		return err
	}
	if s.cfg.Mode == domain.ModeQuiz {
		return domain.ErrBackNotAllowed
	}
	if s.index == 0 {
		return domain.ErrNavigationBoundary
	}
	s.showLocked(s.index - 1)
	return nil
}

// SetAutoAdvance toggles automatic navigation after answering a single-answer
// question in mock-test mode.
func (s *Session) SetAutoAdvance(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.activeLocked(); err != nil {
		return err
	}
	if s.cfg.Mode != domain.ModeMockTest {
		return domain.ErrUnsupportedInMode
	}
	s.autoAdvance = enabled
	if !enabled {
		s.cancelAdvanceLocked()
	}
	return nil
}

// Finish submits a mock test. Submitting requires confirmation, the last
// question on screen and at least one answer. Calling Finish on a session that
// already finished is a no-op.
func (s *Session) Finish(confirmed bool) error {
	s.mu.Lock()
	var publish func()
	defer func() {
		s.mu.Unlock()
		if publish != nil {
			publish()
		}
	}()
	if s.state == StateFinished {
		return nil
	}
	if err := s.activeLocked(); err != nil {
		return err
	}
	if s.cfg.Mode != domain.ModeMockTest {
		return domain.ErrUnsupportedInMode
	}
	if !confirmed {
		return domain.ErrConfirmationRequired
	}
	if s.index != len(s.questions)-1 {
		return domain.ErrNotLastQuestion
	}
	if s.answeredLocked() == 0 {
		return domain.ErrNothingAnswered
	}
	publish = s.finishLocked()
	return nil
}

// Tick decrements the countdown and finishes the session when it hits zero.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return
	}
	if s.timeRemaining <= 1 {
		s.timeRemaining = 0
		publish := s.finishLocked()
		s.mu.Unlock()
		publish()
		return
	}
	s.timeRemaining--
	s.broadcastLocked(Event{Type: EventTick, TimeRemaining: s.timeRemaining})
	s.mu.Unlock()
}

// Close tears the session down. An unfinished attempt is discarded without
// persisting anything. Subscriber channels are closed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopSchedulesLocked()
	if s.state != StateFinished {
		s.state = StateAbandoned
	}
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Result returns the finished result, if any.
func (s *Session) Result() (domain.SessionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return domain.SessionResult{}, false
	}
	return *s.result, true
}

// Redirect is the results location, set once the session finishes.
func (s *Session) Redirect() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redirect
}

// Subscribe returns a channel of session events, primed with the current
// state. The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	switch s.state {
	case StateInProgress:
		ch <- Event{Type: EventQuestion, Question: s.viewPtrLocked(), TimeRemaining: s.timeRemaining}
	case StateFinished:
		// Until the result is persisted the finished event is still on its way.
		if s.published {
			ch <- Event{Type: EventFinished, Finished: s.summaryLocked(), TimeRemaining: s.timeRemaining}
		}
	}
	if s.state == StateAbandoned {
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) activeLocked() error {
	switch s.state {
	case StateNotStarted:
		return domain.ErrSessionNotStarted
	case StateFinished:
		return domain.ErrSessionFinished
	case StateAbandoned:
		return domain.ErrSessionNotFound
	}
	return nil
}

// showLocked displays question i with a fresh option order.
func (s *Session) showLocked(i int) {
	s.cancelAdvanceLocked()
	s.index = i
	s.displayOptions = Shuffle(s.rnd, s.questions[i].Options)
	s.questionStart = s.now()
	s.broadcastLocked(Event{Type: EventQuestion, Question: s.viewPtrLocked(), TimeRemaining: s.timeRemaining})
}

func (s *Session) scheduleAdvanceLocked() {
	gen := s.advanceGen
	s.advanceTimer = time.AfterFunc(s.cfg.AutoAdvanceDelay, func() { s.autoNext(gen) })
}

func (s *Session) autoNext(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress || gen != s.advanceGen {
		return
	}
	s.advanceTimer = nil
	if s.index < len(s.questions)-1 {
		s.showLocked(s.index + 1)
	}
}

// cancelAdvanceLocked invalidates any pending auto-advance, including one
// whose timer already fired and is waiting for the lock.
func (s *Session) cancelAdvanceLocked() {
	s.advanceGen++
	if s.advanceTimer != nil {
		s.advanceTimer.Stop()
		s.advanceTimer = nil
	}
}

func (s *Session) stopSchedulesLocked() {
	s.cancelAdvanceLocked()
	s.countdown.Stop()
}

// finishLocked moves the session to Finished and snapshots the result. The
// returned func must be called after mu is released: it hands the result to
// OnFinish and then publishes the finished event.
func (s *Session) finishLocked() func() {
	if s.state != StateInProgress {
		return func() {}
	}
	s.state = StateFinished
	s.stopSchedulesLocked()

	result := s.buildResultLocked()
	s.result = &result
	s.redirect = s.cfg.Mode.ResultsPath(s.cfg.Quiz.ID, s.cfg.Course.ID)

	return func() {
		if s.cfg.OnFinish != nil {
			s.cfg.OnFinish(result)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.published = true
		s.broadcastLocked(Event{Type: EventFinished, Finished: s.summaryLocked(), TimeRemaining: s.timeRemaining})
	}
}

func (s *Session) buildResultLocked() domain.SessionResult {
	var answers []domain.AnswerRecord
	if s.cfg.Mode == domain.ModeQuiz {
		answers = append(answers, s.records...)
		// Expiry can interrupt a question that was answered but not yet committed.
		if len(s.records) == s.index && !s.selections[s.index].Empty() {
			answers = append(answers, s.recordLocked(s.index, s.now().Sub(s.questionStart).Seconds()))
		}
	} else {
		answers = make([]domain.AnswerRecord, 0, len(s.questions))
		for i := range s.questions {
			answers = append(answers, s.recordLocked(i, 0))
		}
	}

	score := 0
	for _, a := range answers {
		if a.IsCorrect {
			score++
		}
	}
	quiz := s.cfg.Quiz
	course := s.cfg.Course
	return domain.SessionResult{
		QuizID:  quiz.ID,
		Mode:    s.cfg.Mode,
		Answers: answers,
		Time:    s.cfg.TimeLimit - s.timeRemaining,
		Total:   len(quiz.Questions),
		Score:   score,
		Quiz:    &quiz,
		Course:  &course,
	}
}

func (s *Session) recordLocked(i int, timeSpent float64) domain.AnswerRecord {
	q := s.questions[i]
	selected := s.selections[i]
	return domain.AnswerRecord{
		QuestionID:     q.ID,
		QuestionText:   q.Text,
		SelectedAnswer: selected,
		CorrectAnswer:  q.CorrectAnswer,
		IsCorrect:      domain.IsCorrect(q, selected),
		TimeSpent:      timeSpent,
	}
}

func (s *Session) answeredLocked() int {
	n := 0
	for _, sel := range s.selections {
		if !sel.Empty() {
			n++
		}
	}
	return n
}

func (s *Session) viewPtrLocked() *QuestionView {
	v := s.viewLocked()
	return &v
}

func (s *Session) viewLocked() QuestionView {
	q := s.questions[s.index]
	total := len(s.questions)
	last := s.index == total-1

	var progress float64
	if s.cfg.Mode == domain.ModeQuiz {
		progress = float64(s.index) / float64(total) * 100
	} else {
		progress = float64(s.answeredLocked()) / float64(total) * 100
	}

	return QuestionView{
		Index:         s.index,
		Total:         total,
		QuestionID:    q.ID,
		Text:          q.Text,
		Options:       append([]string(nil), s.displayOptions...),
		Multi:         q.IsMulti(),
		Selected:      s.selections[s.index],
		TimeRemaining: s.timeRemaining,
		Clock:         FormatClock(s.timeRemaining),
		Progress:      progress,
		CanBack:       s.cfg.Mode == domain.ModeMockTest && s.index > 0,
		CanNext:       !last || s.cfg.Mode == domain.ModeQuiz,
		IsLast:        last,
		AutoAdvance:   s.autoAdvance,
	}
}

func (s *Session) summaryLocked() *FinishSummary {
	if s.result == nil {
		return nil
	}
	return &FinishSummary{
		QuizID:   s.result.QuizID,
		Score:    s.result.Score,
		Total:    s.result.Total,
		Time:     s.result.Time,
		Redirect: s.redirect,
	}
}

func (s *Session) broadcastLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop the oldest event rather than block the session.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
