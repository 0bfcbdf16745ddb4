package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/coursehub/lms/core"
)

var (
	answerInOptionsTag  = "answerinoptions"
	answerInOptionsText = "correct answer must be one of the options"
)

// InitValidators registers the course validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(quizQuestionStructValidation, NewQuizQuestion{})
	core.RegisterCustomTranslation(validate, translator, answerInOptionsTag, answerInOptionsText)
}

// quizQuestionStructValidation checks that the correct answer exactly matches one of the options.
func quizQuestionStructValidation(sl validator.StructLevel) {
	nq, ok := sl.Current().Interface().(NewQuizQuestion)
	if !ok || nq.CorrectAnswer == "" || len(nq.Options) == 0 {
		return
	}
	if !core.ContainsString(nq.Options, nq.CorrectAnswer) {
		sl.ReportError(nq.CorrectAnswer, "correctAnswer", "CorrectAnswer", answerInOptionsTag, "")
	}
}
