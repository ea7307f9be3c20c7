package validator

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"rentease/pkg/logger"
	"rentease/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type UserValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	return &UserValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *UserValidator) Validate(user *model.User) error {
	if err := v.validate.Struct(user); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	return nil
}

func (v *UserValidator) ValidateUpdate(update *model.UserUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	return nil
}

// ValidatePassword enforces the password policy for registration and
// password changes.
func (v *UserValidator) ValidatePassword(password string) error {
	if len(password) < 8 {
		return ValidationErrors{
			ValidationError{Field: "Password", Message: "password must be at least 8 characters"},
		}
	}
	if len(password) > 72 {
		// bcrypt truncates beyond 72 bytes
		return ValidationErrors{
			ValidationError{Field: "Password", Message: "password must be at most 72 characters"},
		}
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLetter || !hasDigit {
		return ValidationErrors{
			ValidationError{Field: "Password", Message: "password must contain at least one letter and one digit"},
		}
	}

	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
