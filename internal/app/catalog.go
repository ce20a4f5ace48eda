package app

import (
	"context"
	"log/slog"

	"quizdeck/internal/domain"
)

// CourseLoader produces the full course catalog.
type CourseLoader interface {
	LoadCourses(ctx context.Context) ([]domain.Course, error)
}

// Catalog answers course and quiz lookups. Load failures are logged and
// degrade to an empty catalog.
type Catalog struct {
	loader CourseLoader
	logger *slog.Logger
}

func NewCatalog(loader CourseLoader, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{loader: loader, logger: logger}
}

// ListCourses returns every course, or none when the catalog cannot be read.
func (c *Catalog) ListCourses(ctx context.Context) []domain.Course {
	courses, err := c.loader.LoadCourses(ctx)
	if err != nil {
		c.logger.Error("failed to read course catalog", "error", err)
		return []domain.Course{}
	}
	return courses
}

func (c *Catalog) CourseByID(ctx context.Context, courseID string) (domain.Course, error) {
	for _, course := range c.ListCourses(ctx) {
		if course.ID == courseID {
			return course, nil
		}
	}
	return domain.Course{}, domain.ErrCourseNotFound
}

// QuizByID finds a quiz and the course that owns it.
func (c *Catalog) QuizByID(ctx context.Context, quizID string) (domain.Quiz, domain.Course, error) {
	for _, course := range c.ListCourses(ctx) {
		if quiz, ok := course.Quiz(quizID); ok {
			return quiz, course, nil
		}
	}
	return domain.Quiz{}, domain.Course{}, domain.ErrQuizNotFound
}
