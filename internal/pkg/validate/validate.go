// Package validate wraps a shared go-playground validator configured for
// request and command structs.
package validate

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	notBlankTag  = "notblank"
	notBlankText = "{0} must not be blank"

	httpURLTag  = "httpurl"
	httpURLText = "{0} must be an http(s) URL"
)

var (
	once       sync.Once
	validate   *validator.Validate
	translator ut.Translator
)

// Validator returns the process-wide validator instance.
func Validator() *validator.Validate {
	once.Do(initValidator)
	return validate
}

func initValidator() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	registerTranslation(notBlankTag, notBlankText)
	_ = validate.RegisterValidation(httpURLTag, httpURL)
	registerTranslation(httpURLTag, httpURLText)
}

func registerTranslation(tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func notBlank(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.String:
		return strings.TrimSpace(f.String()) != ""
	case reflect.Ptr:
		if f.IsNil() {
			return false
		}
		return f.Elem().Kind() != reflect.String || strings.TrimSpace(f.Elem().String()) != ""
	default:
		return !f.IsZero()
	}
}

func httpURL(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if raw == "" {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Struct validates s and flattens field errors into one readable error.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Translate(translator))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
