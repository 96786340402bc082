package validator

import (
	"chatcord-backend/internal/apperr"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names instead of go field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.Pointer {
			if field.IsNil() {
				return true
			}
			field = field.Elem()
		}
		return strings.TrimSpace(field.String()) != ""
	})
	if err != nil {
		panic(err)
	}

	return v
}

// Struct validates the validate tags of a request and reports every
// failing field as "field:tag" inside a Validation error.
func Struct(request any) error {
	err := validate.Struct(request)
	if err == nil {
		return nil
	}

	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return err
	}

	fields := make([]string, 0, len(validateErrs))
	for _, e := range validateErrs {
		fields = append(fields, fmt.Sprintf("%s:%s", e.Field(), e.Tag()))
	}
	return apperr.Newf(apperr.Validation, "invalid request: %s", strings.Join(fields, ", "))
}

var channelNameRegex = regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)

// ChannelName lower-cases a channel name and replaces spaces with dashes,
// "My Channel" becomes "my-channel".
func ChannelName(name string) (string, error) {
	const maxLength = 32

	name = strings.Join(strings.Fields(strings.ToLower(name)), "-")
	if name == "" {
		return "", fmt.Errorf("empty_name")
	}
	if utf8.RuneCountInString(name) > maxLength {
		return "", fmt.Errorf("long_name")
	}
	if !channelNameRegex.MatchString(name) {
		return "", fmt.Errorf("bad_format")
	}
	return name, nil
}
