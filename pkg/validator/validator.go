package validator

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var (
	emailRules = []validation.Rule{
		validation.Required,
		validation.Length(0, 255),
		validation.Match(emailRegex).Error("must be a valid email address"),
	}
	// bcrypt ignores everything past 72 bytes.
	passwordRules = []validation.Rule{
		validation.Required,
		validation.Length(0, 72),
	}
	tokenRules = []validation.Rule{
		validation.Required,
		validation.Length(0, 128),
	}
)

func ValidateRegisterRequest(email, password string) ValidationErrors {
	return collect(validation.Errors{
		"email":    validation.Validate(email, emailRules...),
		"password": validation.Validate(password, passwordRules...),
	})
}

func ValidateLoginRequest(email, password string) ValidationErrors {
	return collect(validation.Errors{
		"email":    validation.Validate(email, validation.Required, validation.Length(0, 255)),
		"password": validation.Validate(password, validation.Required),
	})
}

func ValidateVerificationToken(token string) ValidationErrors {
	return collect(validation.Errors{
		"token": validation.Validate(token, tokenRules...),
	})
}

// collect flattens ozzo field errors into a stable, field-sorted list.
func collect(errs validation.Errors) ValidationErrors {
	out := make(ValidationErrors, 0)

	filtered := errs.Filter()
	if filtered == nil {
		return out
	}

	var fieldErrs validation.Errors
	if !errors.As(filtered, &fieldErrs) {
		return append(out, ValidationError{Field: "request", Message: filtered.Error()})
	}

	for field, err := range fieldErrs {
		out = append(out, ValidationError{Field: field, Message: err.Error()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })

	return out
}
