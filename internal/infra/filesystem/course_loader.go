package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"quizdeck/internal/domain"
)

// SubjectFile holds course metadata inside each course directory.
const SubjectFile = "subject.json"

// CourseLoader reads the catalog from a directory tree:
//
//	<root>/<Course Dir>/subject.json   course metadata
//	<root>/<Course Dir>/*.json         one quiz per file
//
// Directories without subject.json are ignored. The tree is re-read on every
// call; wrap the loader in a cache when that matters.
type CourseLoader struct {
	root     string
	validate *validator.Validate
}

func NewCourseLoader(root string) *CourseLoader {
	return &CourseLoader{root: root, validate: NewValidator()}
}

type subjectMeta struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ImageID     string `json:"imageId"`
}

func (l *CourseLoader) LoadCourses(ctx context.Context) ([]domain.Course, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	courses := make([]domain.Course, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		course, ok, err := l.loadCourse(entry.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			courses = append(courses, course)
		}
	}
	return courses, nil
}

func (l *CourseLoader) loadCourse(dir string) (domain.Course, bool, error) {
	coursePath := filepath.Join(l.root, dir)

	var meta subjectMeta
	if err := l.decode(filepath.Join(coursePath, SubjectFile), &meta); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Course{}, false, nil
		}
		return domain.Course{}, false, err
	}

	files, err := os.ReadDir(coursePath)
	if err != nil {
		return domain.Course{}, false, fmt.Errorf("read course dir %s: %w", dir, err)
	}
	quizzes := make([]domain.Quiz, 0, len(files))
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || name == SubjectFile || !strings.HasSuffix(name, ".json") {
			continue
		}
		var quiz domain.Quiz
		if err := l.decode(filepath.Join(coursePath, name), &quiz); err != nil {
			return domain.Course{}, false, err
		}
		quizzes = append(quizzes, quiz)
	}
	sort.SliceStable(quizzes, func(i, j int) bool { return quizzes[i].Week < quizzes[j].Week })

	return domain.Course{
		ID:          Slug(dir),
		Name:        meta.Name,
		Description: meta.Description,
		ImageID:     meta.ImageID,
		Quizzes:     quizzes,
	}, true, nil
}

func (l *CourseLoader) decode(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := l.validate.Struct(v); err != nil {
		return fmt.Errorf("invalid %s: %w", path, err)
	}
	return nil
}

// Slug turns a directory name into a course id: trimmed, lowercased, with
// whitespace runs collapsed to single hyphens.
func Slug(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}
