// Package validator checks request fields before any side effect runs. Rules
// are go-playground/validator tags; failures are collected in field order and
// the first one is reported to the client.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Dan9191/resource-service/internal/apperrors"
)

// Password bounds. bcrypt rejects inputs longer than 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// PasswordRules is the tag applied to every password field
const PasswordRules = "min=6,maxbytes=72"

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			if name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]; name != "" && name != "-" {
				return name
			}
		}
		return strings.ToLower(f.Name)
	})
	must(v.RegisterValidation("posint", func(fl validator.FieldLevel) bool {
		_, ok := parsePositive(fl.Field().String())
		return ok
	}))
	must(v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func parsePositive(value string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Violation is a single failed rule
type Violation struct {
	Field   string
	Message string
}

// Validator collects violations in the order rules are applied
type Validator struct {
	violations []Violation
}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) add(field, msg string) {
	v.violations = append(v.violations, Violation{Field: field, Message: msg})
}

// Struct applies the validate tags of s
func (v *Validator) Struct(s any) *Validator {
	v.collect("", validate.Struct(s))
	return v
}

// Var applies tag to a single value reported under field
func (v *Validator) Var(field string, value any, tag string) *Validator {
	v.collect(field, validate.Var(value, tag))
	return v
}

// Required fails when value is empty after trimming
func (v *Validator) Required(field, value string) *Validator {
	return v.Var(field, strings.TrimSpace(value), "required")
}

// PositiveInt parses value and fails unless it is an integer greater than zero
func (v *Validator) PositiveInt(field, value string) (int64, *Validator) {
	v.Var(field, value, "posint")
	n, _ := parsePositive(value)
	return n, v
}

// Check adds msg for field when ok is false
func (v *Validator) Check(ok bool, field, msg string) *Validator {
	if !ok {
		v.add(field, msg)
	}
	return v
}

// Valid reports whether no rule failed
func (v *Validator) Valid() bool {
	return len(v.violations) == 0
}

// Violations returns every failed rule
func (v *Validator) Violations() []Violation {
	return v.violations
}

// Err returns an invalid input error carrying the first violation, or nil
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return apperrors.InvalidInput(v.violations[0].Message)
}

// ParseID returns the integer form of a value already checked with posint
func ParseID(value string) int64 {
	n, _ := parsePositive(value)
	return n
}

func (v *Validator) collect(field string, err error) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.add(field, fmt.Sprintf("%s is invalid", field))
		return
	}
	for _, fe := range verrs {
		name := fe.Field()
		if name == "" {
			name = field
		}
		v.add(name, message(name, fe))
	}
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", field, fe.Param())
	case "posint":
		return fmt.Sprintf("%s must be a positive integer", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
