package filesystem

import (
	"github.com/go-playground/validator/v10"

	"quizdeck/internal/domain"
)

// NewValidator returns a validator that also checks every question's answer
// key is non-empty and drawn from its options.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateQuestion, domain.Question{})
	return v
}

func validateQuestion(sl validator.StructLevel) {
	q := sl.Current().Interface().(domain.Question)
	if q.CorrectAnswer.Empty() {
		sl.ReportError(q.CorrectAnswer, "CorrectAnswer", "correctAnswer", "required", "")
		return
	}
	for _, answer := range q.CorrectAnswer.Values {
		if !q.HasOption(answer) {
			sl.ReportError(q.CorrectAnswer, "CorrectAnswer", "correctAnswer", "oneof_options", answer)
			return
		}
	}
}
