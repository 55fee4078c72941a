package task

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrValidation matches any *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an operation references a missing task ID.
	ErrNotFound = errors.New("task not found")

	// ErrCorrupt is returned when a stored row holds a value outside its domain.
	ErrCorrupt = errors.New("corrupt task record")
)

// ValidationError reports a missing or out-of-domain field at creation time.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidationErrors collects every field failure of a single validation pass.
type ValidationErrors []*ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Is lets errors.Is(err, ErrValidation) match a ValidationErrors.
func (es ValidationErrors) Is(target error) bool { return target == ErrValidation }

func notFound(id int64) error {
	return fmt.Errorf("task %d: %w", id, ErrNotFound)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json names so messages match what API callers sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// A Date validates as its text form, so an unset deadline fails "required".
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(Date); ok {
			return d.String()
		}
		return nil
	}, Date{})
	return v
}

var fieldMessages = map[string]string{
	"required": "is required",
	"oneof":    "must be one of %s",
}

// Validate checks that the required fields are present and in domain.
func (nt NewTask) Validate() error {
	nt.Title = strings.TrimSpace(nt.Title)
	nt.Email = strings.TrimSpace(nt.Email)
	err := validate.Struct(nt)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate task: %w", err)
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		reason, ok := fieldMessages[fe.Tag()]
		if !ok {
			reason = "failed " + fe.Tag()
		}
		if strings.Contains(reason, "%s") {
			reason = fmt.Sprintf(reason, strings.ReplaceAll(fe.Param(), " ", ", "))
		}
		out = append(out, &ValidationError{Field: fe.Field(), Reason: reason})
	}
	return out
}
