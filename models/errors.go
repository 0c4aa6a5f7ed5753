// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrMinimumQuestionCount = errors.New("survey must keep at least one question")
	ErrMinimumOptionCount   = errors.New("choice question must keep at least two options")
	ErrMissingRequiredField = errors.New("required field is missing")
	ErrPasswordRequired     = errors.New("private survey requires a password")
	ErrIncompleteSubmission = errors.New("submission is missing answers")
	ErrOptionsLocked        = errors.New("options are fixed for this question type")
	ErrDuplicateOption      = errors.New("duplicate option label")
	ErrInvalidAnswer        = errors.New("answer does not fit question")
	ErrUnknownQuestionType  = errors.New("unknown question type")
)

// Access errors
var (
	ErrWrongPassword   = errors.New("wrong survey password")
	ErrForbidden       = errors.New("only the survey creator may do this")
	ErrUnauthenticated = errors.New("no signed-in user")
	ErrTokenReused     = errors.New("submission token already used for another survey or user")
)

// Persistence errors
var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("survey was modified by another save")
)

// FieldError ties a validation failure to the field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// IncompleteSubmissionError lists every unanswered question id in
// declared order.
type IncompleteSubmissionError struct {
	Missing []string
}

func (e *IncompleteSubmissionError) Error() string {
	return fmt.Sprintf("%v: %s", ErrIncompleteSubmission, strings.Join(e.Missing, ", "))
}

func (e *IncompleteSubmissionError) Is(target error) bool {
	return target == ErrIncompleteSubmission
}

// PersistenceError wraps a store failure. Callers may retry; nothing here does.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
