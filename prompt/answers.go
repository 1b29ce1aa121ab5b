package prompt

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrInvalidAnswer indicates an answer rejected by a validator.
var ErrInvalidAnswer = errors.New("invalid answer")

// Answers maps question keys to their (defaulted) answers.
type Answers map[string]string

// Bool returns the answer for key parsed with [ParseBool], or false.
func (a Answers) Bool(key string) bool {
	v, err := ParseBool(a[key])
	if err != nil {
		return false
	}

	return v
}

// Int returns the answer for key as an int, or 0.
func (a Answers) Int(key string) int {
	v, err := strconv.Atoi(a[key])
	if err != nil {
		return 0
	}

	return v
}

// Float returns the answer for key as a float64, or 0.
func (a Answers) Float(key string) float64 {
	v, err := strconv.ParseFloat(a[key], 64)
	if err != nil {
		return 0
	}

	return v
}

// ParseBool accepts y, yes, true, 1 and n, no, false, 0 in any case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1":
		return true, nil
	case "n", "no", "false", "0":
		return false, nil
	}

	return false, fmt.Errorf("%w: answer y or n", ErrInvalidAnswer)
}

// YesNo validates a [ParseBool] answer.
func YesNo(s string) error {
	_, err := ParseBool(s)

	return err
}

// IntRange returns a validator for integers in [lo, hi].
func IntRange(lo, hi int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w: %q is not a whole number", ErrInvalidAnswer, s)
		}

		if v < lo || v > hi {
			return fmt.Errorf("%w: must be between %d and %d", ErrInvalidAnswer, lo, hi)
		}

		return nil
	}
}

// FloatMin returns a validator for finite numbers no less than lo.
func FloatMin(lo float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %q is not a number", ErrInvalidAnswer, s)
		}

		if v < lo {
			return fmt.Errorf("%w: must be at least %g", ErrInvalidAnswer, lo)
		}

		return nil
	}
}

// ExistingFile validates that s names a regular file.
func ExistingFile(s string) error {
	if s == "" {
		return fmt.Errorf("%w: a file path is required", ErrInvalidAnswer)
	}

	info, err := os.Stat(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAnswer, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidAnswer, s)
	}

	return nil
}
