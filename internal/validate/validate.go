package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"marketplace/internal/apperr"
)

var (
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID       = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reSlug     = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)
	reUsername = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$`)
	reColor    = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	_ = val.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		_, ok := Username(fl.Field().String())
		return ok
	})
	_ = val.RegisterValidation("rid", func(fl validator.FieldLevel) bool {
		_, ok := ID(fl.Field().String())
		return ok
	})
	_ = val.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		_, ok := Slug(fl.Field().String())
		return ok
	})
	_ = val.RegisterValidation("color", func(fl validator.FieldLevel) bool {
		return reColor.MatchString(fl.Field().String())
	})
	_ = val.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return Password(fl.Field().String())
	})
	return val
}

// Struct runs the `validate` tags of s and reports the first failing field as a
// BadRequest.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.BadRequest(fmt.Sprintf("invalid %s: failed %q", lowerFirst(fe.Field()), fe.Tag()))
	}
	return apperr.BadRequest("invalid input").Wrap(err)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a simple resource identifier (product/category/tenant ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

func Slug(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reSlug.MatchString(s)
}

// Username lowercases and checks the storefront naming rules: 3..63 chars of
// lowercase letters, digits and hyphens, alphanumeric at both ends, no "--".
func Username(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 || len(s) > 63 {
		return "", false
	}
	if strings.Contains(s, "--") {
		return "", false
	}
	return s, reUsername.MatchString(s)
}

// Password enforces a length window and mixed character classes.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 72 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}

// Price parses an optional non-negative decimal. Empty input yields nil.
func Price(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("invalid price %q", s))
	}
	if d.IsNegative() {
		return nil, apperr.BadRequest(fmt.Sprintf("price must not be negative: %q", s))
	}
	return &d, nil
}

// List splits a comma separated query value, dropping blanks.
func List(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Int parses a positive integer query value, falling back to def.
func Int(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}
