package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidUsername     = errors.New("invalid username")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrInvalidCategoryName = errors.New("category name must be between 1 and 100 characters")
	ErrInvalidExpenseName  = errors.New("expense name must be at most 500 characters")
	ErrInvalidCurrency     = errors.New("currency must be a 3-letter code")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)
	currencyRegex = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

// NormalizeCategoryName trims surrounding whitespace and checks the length
// limit of the categories.name column.
func NormalizeCategoryName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	length := utf8.RuneCountInString(trimmed)
	if length == 0 || length > 100 {
		return "", ErrInvalidCategoryName
	}
	return trimmed, nil
}

func ValidateExpenseName(name string) error {
	if utf8.RuneCountInString(name) > 500 {
		return ErrInvalidExpenseName
	}
	return nil
}

// ValidateCurrency accepts any casing; the code must be one of allowed once
// upper-cased.
func ValidateCurrency(code string, allowed []string) error {
	if !currencyRegex.MatchString(code) {
		return ErrInvalidCurrency
	}
	upper := strings.ToUpper(code)
	for _, candidate := range allowed {
		if candidate == upper {
			return nil
		}
	}
	return ErrUnsupportedCurrency
}
