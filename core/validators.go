package core

import (
	"reflect"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	// DateFormat is the wire format of schedule_date.
	DateFormat = "2006-01-02"
	// TimeFormat is the wire format of schedule_time.
	TimeFormat = "15:04"
)

var (
	// custom validation tags & texts
	dateFormatTag  = "dateformat"
	dateFormatText = "must be a valid date in the format YYYY-MM-DD"

	timeFormatTag  = "timeformat"
	timeFormatText = "must be a valid time in the format HH:MM"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(dateFormatTag, dateFormatValidation)
	RegisterCustomTranslation(validate, translator, dateFormatTag, dateFormatText)

	_ = validate.RegisterValidation(timeFormatTag, timeFormatValidation)
	RegisterCustomTranslation(validate, translator, timeFormatTag, timeFormatText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

func dateFormatValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateFormat, fl.Field().String())
	return err == nil
}

func timeFormatValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(TimeFormat, fl.Field().String())
	return err == nil
}
