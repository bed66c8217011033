// Package validation holds pure field-level checks run before any transaction
// opens. Request-shape validation (required fields, JSON types) is handled by
// gin binding; the rules here are the ones binding tags cannot express.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"
)

var (
	ErrEmail     = errors.New("invalid email address")
	ErrPhone     = errors.New("phone must be 10 digits")
	ErrPassword  = errors.New("password must be at least 8 characters with a letter and a digit")
	ErrStudentID = errors.New("student id must be 4-20 letters or digits")
	ErrGradYear  = errors.New("graduation year out of range")
	ErrID        = errors.New("id must be a positive integer")
)

var (
	emailRe     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	studentIDRe = regexp.MustCompile(`^[a-zA-Z0-9]{4,20}$`)
	nonDigitRe  = regexp.MustCompile(`[\s\-().]`)
)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Email validates a normalized email address.
func Email(email string) error {
	if !emailRe.MatchString(email) {
		return ErrEmail
	}
	return nil
}

// NormalizePhone strips separators and a leading country prefix, returning the
// bare 10-digit number or an error.
func NormalizePhone(phone string) (string, error) {
	p := nonDigitRe.ReplaceAllString(strings.TrimSpace(phone), "")
	p = strings.TrimPrefix(p, "+91")
	p = strings.TrimPrefix(p, "0")
	if len(p) != 10 {
		return "", ErrPhone
	}
	for _, r := range p {
		if !unicode.IsDigit(r) {
			return "", ErrPhone
		}
	}
	return p, nil
}

// Password enforces minimum password strength: at least 8 characters with at
// least one letter and one digit.
func Password(password string) error {
	if len(password) < 8 {
		return ErrPassword
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
		return ErrPassword
	}
	return nil
}

// StudentID validates a student identifier.
func StudentID(id string) error {
	if !studentIDRe.MatchString(id) {
		return ErrStudentID
	}
	return nil
}

// GradYear validates a graduation year against a window around now.
func GradYear(year int, now time.Time) error {
	current := now.Year()
	if year < current-10 || year > current+10 {
		return ErrGradYear
	}
	return nil
}

// PositiveID validates a path/body integer identifier.
func PositiveID(id int64) error {
	if id <= 0 {
		return ErrID
	}
	return nil
}
