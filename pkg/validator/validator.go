// Package validator wraps go-playground/validator with the request
// validation rules the campushub handlers share, including the custom
// campusid tag for campus-issued roll numbers.
package validator

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// campusIDPattern matches campus-issued roll numbers: a department prefix,
// a two-digit intake year, an optional programme letter and a serial,
// e.g. "cs21b042" or "ee19003".
var campusIDPattern = regexp.MustCompile(`^[a-z]{2,4}[0-9]{2}[a-z]?[0-9]{3,5}$`)

// IsCampusID reports whether s is a well-formed campus roll number.
func IsCampusID(s string) bool {
	return campusIDPattern.MatchString(strings.ToLower(s))
}

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors collects multiple validation failures.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, len(v))
	for i, err := range v {
		if err.Param != "" {
			parts[i] = err.Field + " failed on " + err.Tag + "=" + err.Param
		} else {
			parts[i] = err.Field + " failed on " + err.Tag
		}
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct validates a struct using the registered rules. Failures
// come back as ValidationErrors keyed by the field's json name.
func ValidateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	if ve, ok := err.(validator.ValidationErrors); ok {
		failures := make(ValidationErrors, 0, len(ve))
		for _, fe := range ve {
			failures = append(failures, ValidationError{
				Field: fe.Field(),
				Tag:   fe.Tag(),
				Param: fe.Param(),
			})
		}
		return failures
	}

	return err
}

// RegisterValidation exposes underlying validator custom rules.
func RegisterValidation(tag string, fn validator.Func) error {
	return getValidator().RegisterValidation(tag, fn)
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(jsonFieldName)

		_ = validate.RegisterValidation("campusid", func(fl validator.FieldLevel) bool {
			return IsCampusID(fl.Field().String())
		})
	})
	return validate
}

// jsonFieldName reports errors under the json tag name rather than the Go
// field name.
func jsonFieldName(fld reflect.StructField) string {
	name := fld.Tag.Get("json")
	if name == "" {
		return fld.Name
	}

	if comma := strings.Index(name, ","); comma != -1 {
		name = name[:comma]
	}

	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
