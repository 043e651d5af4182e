package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"sriox/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var (
	subdomainPattern  = regexp.MustCompile(`^[a-z0-9-]+$`)
	usernamePattern   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	githubUserPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})$`)
	githubRepoPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)
)

// NewValidator returns a validator that reports fields by their JSON names
// and knows the username, subdomain and GitHub name formats.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterValidation("subdomain", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) <= 63 && subdomainPattern.MatchString(s)
	})
	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("github_user", func(fl validator.FieldLevel) bool {
		return githubUserPattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("github_repo", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return githubRepoPattern.MatchString(s) && s != "." && s != ".."
	})
	return v
}

// check validates in and converts the first failure into an InvalidInput error.
func check(v *validator.Validate, in any) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return apperr.New(apperr.ErrInvalidInput, err.Error())
	}
	return apperr.New(apperr.ErrInvalidInput, describe(ves[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "username":
		return fmt.Sprintf("%s can only contain letters, numbers, underscores, and hyphens", field)
	case "subdomain":
		return fmt.Sprintf("%s can only contain letters, numbers, and hyphens", field)
	case "http_url":
		return fmt.Sprintf("%s must be a valid http or https URL", field)
	case "github_user":
		return fmt.Sprintf("%s is not a valid GitHub username", field)
	case "github_repo":
		return fmt.Sprintf("%s is not a valid repository name", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
