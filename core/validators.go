package core

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"
)

const requiredText = "this field is required"

var (
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	// custom tags shared by every request struct
	customTags = []struct {
		tag  string
		text string // "{0}" is the json field name
		fn   validator.Func
	}{
		{"alphanum_", "only alphanumeric characters and underscores are allowed", alphaNumUnderValidation},
		{"isodate", "{0} must be a date formatted as YYYY-MM-DD", isoDateValidation},
		{"money", "{0} must be an amount with at most 2 decimal places", moneyValidation},
	}

	// built-in tags whose default texts do not fit the API's error envelope
	overriddenTags = map[string]string{
		"required":         requiredText,
		"required_with":    requiredText,
		"required_without": requiredText,
	}
)

// InitValidators registers json field names, english translations and the custom tags on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for _, ct := range customTags {
		_ = validate.RegisterValidation(ct.tag, ct.fn)
		RegisterCustomTranslation(validate, translator, ct.tag, ct.text)
	}
	for tag, text := range overriddenTags {
		RegisterCustomTranslation(validate, translator, tag, text, true)
	}
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
// "{0}" in text is replaced by the field name.
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

func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

func isoDateValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

// moneyValidation accepts decimal strings (json.Number included) that fit the amount columns.
// Sign is left to the domain rules.
func moneyValidation(fl validator.FieldLevel) bool {
	amount, err := decimal.NewFromString(fl.Field().String())
	return err == nil && IsMoney(amount)
}
