package app

import (
	"fmt"
	"math"

	"quizdeck/internal/domain"
)

// OptionTag classifies an option in the answer review.
type OptionTag string

const (
	TagCorrectChosen    OptionTag = "correct-and-chosen"
	TagCorrectNotChosen OptionTag = "correct-and-not-chosen"
	TagIncorrectChosen  OptionTag = "incorrect-and-chosen"
	TagNeither          OptionTag = "neither"
)

// CoursesPath is where the review points learners when a result is unusable.
const CoursesPath = "/courses"

type ReviewOption struct {
	Text string    `json:"text"`
	Tag  OptionTag `json:"tag"`
}

type ReviewRow struct {
	QuestionID     string         `json:"questionId"`
	QuestionText   string         `json:"questionText"`
	IsCorrect      bool           `json:"isCorrect"`
	SelectedAnswer string         `json:"selectedAnswer"`
	TimeSpent      float64        `json:"timeSpent"`
	Options        []ReviewOption `json:"options"`
}

// Review is the rendered results page.
type Review struct {
	QuizID     string      `json:"quizId"`
	QuizTitle  string      `json:"quizTitle"`
	CourseID   string      `json:"courseId"`
	CourseName string      `json:"courseName"`
	Mode       domain.Mode `json:"mode"`
	Score      int         `json:"score"`
	Total      int         `json:"total"`
	Percentage int         `json:"percentage"`
	Time       int         `json:"time"`
	Clock      string      `json:"clock"`
	Rows       []ReviewRow `json:"rows"`
	RetryPath  string      `json:"retryPath"`
}

// BuildReview renders result. Questions are resolved against every quiz of the
// embedded course; records whose question cannot be found are skipped.
func BuildReview(result domain.SessionResult) (Review, error) {
	if result.Quiz == nil || result.Course == nil {
		return Review{}, domain.ErrIncompleteResult
	}
	course := *result.Course

	review := Review{
		QuizID:     result.QuizID,
		QuizTitle:  result.Quiz.Title,
		CourseID:   course.ID,
		CourseName: course.Name,
		Mode:       result.Mode,
		Score:      result.Score,
		Total:      result.Total,
		Percentage: Percentage(result.Score, result.Total),
		Time:       result.Time,
		Clock:      FormatClock(result.Time),
		Rows:       make([]ReviewRow, 0, len(result.Answers)),
		RetryPath:  "/courses/" + course.ID,
	}

	for _, ans := range result.Answers {
		question, ok := course.FindQuestion(ans.QuestionID)
		if !ok {
			continue
		}
		row := ReviewRow{
			QuestionID:     ans.QuestionID,
			QuestionText:   ans.QuestionText,
			IsCorrect:      ans.IsCorrect,
			SelectedAnswer: ans.SelectedAnswer.String(),
			TimeSpent:      ans.TimeSpent,
			Options:        make([]ReviewOption, 0, len(question.Options)),
		}
		for _, option := range question.Options {
			row.Options = append(row.Options, ReviewOption{
				Text: option,
				Tag:  tagOption(ans.CorrectAnswer.Contains(option), ans.SelectedAnswer.Contains(option)),
			})
		}
		review.Rows = append(review.Rows, row)
	}
	return review, nil
}

// Percentage is round(100 * score / total), zero for an empty quiz.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// FormatClock renders seconds as mm:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func tagOption(correct, chosen bool) OptionTag {
	switch {
	case correct && chosen:
		return TagCorrectChosen
	case correct:
		return TagCorrectNotChosen
	case chosen:
		return TagIncorrectChosen
	}
	return TagNeither
}
