// Package domain contains the core business entities and rules.
// These types have no knowledge of databases, HTTP, or any infrastructure concerns.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errors reported by storage adapters. Use cases translate them into their own variants.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrConflict          = errors.New("conflict")
	ErrInvalidCredential = errors.New("invalid credentials")
)

// Not-found errors for each entity. All of them match ErrNotFound.
var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrProfileNotFound = fmt.Errorf("profile %w", ErrNotFound)
	ErrArticleNotFound = fmt.Errorf("article %w", ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)
)

// ErrorKind identifies which rule a ValidationError violated.
type ErrorKind string

const (
	KindRequired                 ErrorKind = "Required"
	KindInvalidFormat            ErrorKind = "InvalidFormat"
	KindTooShort                 ErrorKind = "TooShort"
	KindTooLong                  ErrorKind = "TooLong"
	KindNotInteger               ErrorKind = "NotInteger"
	KindRequireMinimumOrOver     ErrorKind = "RequireMinimumOrOver"
	KindRequireMaximumOrUnder    ErrorKind = "RequireMaximumOrUnder"
	KindNothingAttributeToUpdate ErrorKind = "NothingAttributeToUpdatable"
)

// ValidationError is a single rule violation on one input field.
// Key and Message are what clients see; Kind and Value are for programmatic checks.
type ValidationError struct {
	Key     string
	Kind    ErrorKind
	Message string
	Value   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Key, e.Message)
}

// ValidationErrors is an ordered, non-empty collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Key + ": " + ve.Message
	}
	return fmt.Sprintf("%d validation errors: %s", len(e), strings.Join(msgs, "; "))
}

// Kinds returns the kind of every error, in order.
func (e ValidationErrors) Kinds() []ErrorKind {
	kinds := make([]ErrorKind, len(e))
	for i, ve := range e {
		kinds[i] = ve.Kind
	}
	return kinds
}

// Pairs returns the (key, message) pairs in order, as rendered to clients.
func (e ValidationErrors) Pairs() [][2]string {
	out := make([][2]string, len(e))
	for i, ve := range e {
		out[i] = [2]string{ve.Key, ve.Message}
	}
	return out
}

func required(key string) ValidationError {
	return ValidationError{Key: key, Kind: KindRequired, Message: "is required"}
}

func tooShort(key, value string, min int) ValidationError {
	return ValidationError{
		Key:     key,
		Kind:    KindTooShort,
		Message: fmt.Sprintf("must be at least %d characters", min),
		Value:   value,
	}
}

func tooLong(key, value string, max int) ValidationError {
	return ValidationError{
		Key:     key,
		Kind:    KindTooLong,
		Message: fmt.Sprintf("must be at most %d characters", max),
		Value:   value,
	}
}

func invalidFormat(key, value string) ValidationError {
	return ValidationError{Key: key, Kind: KindInvalidFormat, Message: "has an invalid format", Value: value}
}

func notInteger(key, value string) ValidationError {
	return ValidationError{
		Key:     key,
		Kind:    KindNotInteger,
		Message: fmt.Sprintf("must be an integer (got %q)", value),
		Value:   value,
	}
}

func requireMinimumOrOver(key string, got, min int) ValidationError {
	return ValidationError{
		Key:     key,
		Kind:    KindRequireMinimumOrOver,
		Message: fmt.Sprintf("must be %d or over (got %d)", min, got),
		Value:   fmt.Sprint(got),
	}
}

func requireMaximumOrUnder(key string, got, max int) ValidationError {
	return ValidationError{
		Key:     key,
		Kind:    KindRequireMaximumOrUnder,
		Message: fmt.Sprintf("must be %d or under (got %d)", max, got),
		Value:   fmt.Sprint(got),
	}
}

func nothingToUpdate(key string) ValidationError {
	return ValidationError{Key: key, Kind: KindNothingAttributeToUpdate, Message: "has no attribute to update"}
}
