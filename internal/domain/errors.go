package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a session id is unknown or already torn down.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionFinished is returned for input arriving after the session finished.
	ErrSessionFinished = errors.New("quiz session already finished")
	// ErrSessionNotStarted is returned for input arriving before Start.
	ErrSessionNotStarted = errors.New("quiz session not started")
	// ErrQuizNotFound indicates the quiz id does not resolve in the catalog.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrCourseNotFound indicates the course id does not resolve in the catalog.
	ErrCourseNotFound = errors.New("course not found")
	// ErrEmptyQuiz is returned when starting a session on a quiz without questions.
	ErrEmptyQuiz = errors.New("quiz has no questions")
	// ErrOptionNotFound indicates a selected option is not offered by the current question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrNoSelection is returned when advancing a graded quiz without an answer.
	ErrNoSelection = errors.New("no answer selected")
	// ErrBackNotAllowed is returned when navigating back in graded mode.
	ErrBackNotAllowed = errors.New("cannot return to a previous question in graded mode")
	// ErrNavigationBoundary is returned when moving past the first or last question.
	ErrNavigationBoundary = errors.New("no question in that direction")
	// ErrConfirmationRequired guards mock-test submission against accidental clicks.
	ErrConfirmationRequired = errors.New("finishing requires confirmation")
	// ErrNotLastQuestion is returned when finishing a mock test before the final question.
	ErrNotLastQuestion = errors.New("finish is only available on the last question")
	// ErrNothingAnswered is returned when finishing a mock test with no answers.
	ErrNothingAnswered = errors.New("answer at least one question before finishing")
	// ErrUnsupportedInMode is returned for operations that do not apply to the session mode.
	ErrUnsupportedInMode = errors.New("operation not supported in this mode")
	// ErrUnknownMode indicates an unrecognised session mode.
	ErrUnknownMode = errors.New("unknown quiz mode")
	// ErrResultNotFound indicates no result is stored under the requested key.
	ErrResultNotFound = errors.New("quiz result not found")
	// ErrIncompleteResult indicates a stored result lacks its quiz or course.
	ErrIncompleteResult = errors.New("quiz result is missing quiz data")
)
