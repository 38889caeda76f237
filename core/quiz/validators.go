package quiz

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/mprata/pollclass/core"
)

var (
	correctOptionTag  = "correctoption"
	correctOptionText = "correct option index out of range"
)

// InitValidators registers quiz validators on the global validator.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(questionStructValidation, Question{})
	core.RegisterCustomTranslation(validate, translator, correctOptionTag, correctOptionText)
}

// questionStructValidation checks that the correct-answer marker points at one
// of the question's options.
func questionStructValidation(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(Question)
	if !ok {
		return
	}
	if len(q.Options) == 0 {
		return // `required` reports this one
	}
	if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
		sl.ReportError(q.CorrectOption, "correct", "CorrectOption", correctOptionTag, "")
	}
}
