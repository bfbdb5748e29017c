package router

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxQueryLength bounds a single user message, in runes.
const MaxQueryLength = 20000

var (
	ErrEmptyQuery   = errors.New("query is empty")
	ErrQueryTooLong = fmt.Errorf("query exceeds maximum length of %d characters", MaxQueryLength)
)

// Validate rejects input that Classify would otherwise route silently to the
// default branch.
func Validate(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	return nil
}
