package domain

// Question models a multiple-choice prompt. CorrectAnswer is a single value for
// single-answer questions and a set for multi-answer ones.
type Question struct {
	ID            string   `json:"id" validate:"required"`
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"required,min=1,dive,required"`
	CorrectAnswer Choice   `json:"correctAnswer"`
}

// IsMulti reports whether the question accepts several answers.
func (q Question) IsMulti() bool {
	return q.CorrectAnswer.Multi
}

// HasOption reports whether option is one of the question's options.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Quiz is a week-tagged set of questions.
type Quiz struct {
	ID        string     `json:"id" validate:"required"`
	Title     string     `json:"title" validate:"required"`
	Week      int        `json:"week"`
	Questions []Question `json:"questions" validate:"dive"`
}

// Course groups quizzes ordered by week.
type Course struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ImageID     string `json:"imageId"`
	Quizzes     []Quiz `json:"quizzes"`
}

// Quiz returns the quiz with the given id.
func (c Course) Quiz(quizID string) (Quiz, bool) {
	for _, q := range c.Quizzes {
		if q.ID == quizID {
			return q, true
		}
	}
	return Quiz{}, false
}

// FindQuestion scans every quiz of the course, not only one, since mock tests
// mix questions from several weeks.
func (c Course) FindQuestion(questionID string) (Question, bool) {
	for _, quiz := range c.Quizzes {
		for _, q := range quiz.Questions {
			if q.ID == questionID {
				return q, true
			}
		}
	}
	return Question{}, false
}

// QuestionCount is the size of the whole question bank.
func (c Course) QuestionCount() int {
	n := 0
	for _, q := range c.Quizzes {
		n += len(q.Questions)
	}
	return n
}

// AnswerRecord is the graded outcome of one question.
type AnswerRecord struct {
	QuestionID     string  `json:"questionId"`
	QuestionText   string  `json:"questionText"`
	SelectedAnswer Choice  `json:"selectedAnswer"`
	CorrectAnswer  Choice  `json:"correctAnswer"`
	IsCorrect      bool    `json:"isCorrect"`
	TimeSpent      float64 `json:"timeSpent"`
}

// SessionResult is what a finished session hands to persistence.
type SessionResult struct {
	QuizID  string         `json:"quizId"`
	Mode    Mode           `json:"mode"`
	Answers []AnswerRecord `json:"answers"`
	Time    int            `json:"time"`
	Total   int            `json:"total"`
	Score   int            `json:"score"`
	Quiz    *Quiz          `json:"quiz,omitempty"`
	Course  *Course        `json:"course,omitempty"`
}

// LeaderboardEntry is one row of the (not yet populated) leaderboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Avatar   string `json:"avatar"`
}

// Leaderboard is always empty until a scoring pipeline feeds it.
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
}
