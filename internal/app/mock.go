package app

import (
	"fmt"
	"math/rand"
	"time"

	"quizdeck/internal/domain"
)

// EligibleQuestions pools the questions of the selected weeks. A nil weeks
// means all weeks; an empty non-nil one matches none.
func EligibleQuestions(course domain.Course, weeks []int) []domain.Question {
	selected := make(map[int]struct{}, len(weeks))
	for _, w := range weeks {
		selected[w] = struct{}{}
	}

	var pool []domain.Question
	for _, quiz := range course.Quizzes {
		if weeks != nil {
			if _, ok := selected[quiz.Week]; !ok {
				continue
			}
		}
		pool = append(pool, quiz.Questions...)
	}
	return pool
}

// BuildMockQuiz draws up to numQuestions random questions from the eligible pool.
func BuildMockQuiz(course domain.Course, weeks []int, numQuestions int, rnd *rand.Rand, now time.Time) domain.Quiz {
	pool := EligibleQuestions(course, weeks)
	if numQuestions > len(pool) {
		numQuestions = len(pool)
	}
	return domain.Quiz{
		ID:        fmt.Sprintf("mock-%s-%d", course.ID, now.UnixMilli()),
		Title:     course.Name + " Mock Test",
		Week:      0,
		Questions: ShuffleWithLimit(rnd, pool, numQuestions),
	}
}
