package service

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// Field rules shared by registration and profile updates. Fields are checked
// in declaration order and the first failure wins.
const (
	emailRule    = "email"
	usernameRule = "min=3,max=20,username"
	passwordRule = "min=8,containsany=ABCDEFGHIJKLMNOPQRSTUVWXYZ,containsany=0123456789"
	teamNameRule = "min=2"
	siteURLRule  = "url"
)

// bcrypt ignores input beyond 72 bytes and newer versions reject it.
const maxPasswordBytes = 72

var fieldMessages = map[string]func(validator.FieldError) string{
	"email": func(validator.FieldError) string { return "invalid email format" },
	"username": func(fe validator.FieldError) string {
		switch fe.Tag() {
		case "min":
			return "username must be at least 3 characters"
		case "max":
			return "username must be at most 20 characters"
		default:
			return "username may only contain letters, digits and underscores"
		}
	},
	"password": func(fe validator.FieldError) string {
		switch {
		case fe.Tag() == "min":
			return "password must be at least 8 characters"
		case strings.Contains(fe.Param(), "A"):
			return "password must contain at least one uppercase letter"
		default:
			return "password must contain at least one digit"
		}
	},
	"team_name": func(validator.FieldError) string { return "team name must be at least 2 characters" },
	"site_url":  func(validator.FieldError) string { return "invalid URL format" },
}

// checkField validates a single value against rule and returns a
// ValidationError with a field specific message.
func checkField(field, value, rule string) error {
	if err := validate.Var(value, rule); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			if msg, ok := fieldMessages[field]; ok {
				return domain.ValidationError("%s", msg(verrs[0]))
			}
			return domain.ValidationError("invalid %s", field)
		}
		return domain.UnexpectedError("validation failed", err)
	}
	if field == "password" && len(value) > maxPasswordBytes {
		return domain.ValidationError("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
