package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@uni.edu", NormalizeEmail("  Jane@Uni.EDU "))
}

func TestEmail(t *testing.T) {
	valid := []string{"jane@uni.edu", "a.b+tag@sub.example.co"}
	for _, e := range valid {
		assert.NoError(t, Email(e), e)
	}
	invalid := []string{"", "jane", "jane@", "@uni.edu", "jane@uni", "jane uni@x.com"}
	for _, e := range invalid {
		assert.ErrorIs(t, Email(e), ErrEmail, e)
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"9876543210", "9876543210"},
		{"+919876543210", "9876543210"},
		{"098765 43210", "9876543210"},
		{"987-654-3210", "9876543210"},
	}
	for _, tc := range cases {
		got, err := NormalizePhone(tc.in)
		assert.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	for _, in := range []string{"", "12345", "98765432109876", "98765abc10"} {
		_, err := NormalizePhone(in)
		assert.ErrorIs(t, err, ErrPhone, in)
	}
}

func TestPassword(t *testing.T) {
	assert.NoError(t, Password("hunter2hunter"))
	assert.NoError(t, Password("abc12345"))
	assert.ErrorIs(t, Password("short1"), ErrPassword)
	assert.ErrorIs(t, Password("alllettersonly"), ErrPassword)
	assert.ErrorIs(t, Password("1234567890"), ErrPassword)
}

func TestStudentID(t *testing.T) {
	assert.NoError(t, StudentID("CS2021042"))
	assert.ErrorIs(t, StudentID("ab"), ErrStudentID)
	assert.ErrorIs(t, StudentID("has space"), ErrStudentID)
	assert.ErrorIs(t, StudentID(""), ErrStudentID)
}

func TestGradYear(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, GradYear(2027, now))
	assert.NoError(t, GradYear(2020, now))
	assert.ErrorIs(t, GradYear(2000, now), ErrGradYear)
	assert.ErrorIs(t, GradYear(2050, now), ErrGradYear)
}

func TestPositiveID(t *testing.T) {
	assert.NoError(t, PositiveID(1))
	assert.ErrorIs(t, PositiveID(0), ErrID)
	assert.ErrorIs(t, PositiveID(-5), ErrID)
}
