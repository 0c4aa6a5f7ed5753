// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Answer is the tagged union of answer shapes. The concrete type
// determines which question type it answers.
type Answer interface {
	QuestionType() QuestionType
	// IsEmpty reports whether the answer counts as "not answered".
	IsEmpty() bool
}

type SingleChoiceAnswer string

// MultipleChoiceAnswer is a set of chosen options. Build it with
// NewMultipleChoiceAnswer to drop duplicates.
type MultipleChoiceAnswer []string

type TrueFalseAnswer string

type RatingAnswer int

type TextAnswer string

func (SingleChoiceAnswer) QuestionType() QuestionType   { return SingleChoice }
func (MultipleChoiceAnswer) QuestionType() QuestionType { return MultipleChoice }
func (TrueFalseAnswer) QuestionType() QuestionType      { return TrueFalse }
func (RatingAnswer) QuestionType() QuestionType         { return Rating }
func (TextAnswer) QuestionType() QuestionType           { return Text }

func (a SingleChoiceAnswer) IsEmpty() bool   { return a == "" }
func (a MultipleChoiceAnswer) IsEmpty() bool { return len(a) == 0 }
func (a TrueFalseAnswer) IsEmpty() bool      { return a == "" }

// IsEmpty is always false: 0 is a legitimate rating.
func (a RatingAnswer) IsEmpty() bool { return false }

// IsEmpty treats whitespace-only text as unanswered.
func (a TextAnswer) IsEmpty() bool { return strings.TrimSpace(string(a)) == "" }

// NewMultipleChoiceAnswer builds a set answer, keeping first-seen order.
func NewMultipleChoiceAnswer(options ...string) MultipleChoiceAnswer {
	seen := make(map[string]bool, len(options))
	out := make(MultipleChoiceAnswer, 0, len(options))
	for _, o := range options {
		if seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}

// Contains reports whether option was chosen.
func (a MultipleChoiceAnswer) Contains(option string) bool {
	for _, o := range a {
		if o == option {
			return true
		}
	}
	return false
}

// EncodeAnswer serializes an answer for storage. Choice, true/false and
// text answers become JSON strings, ratings JSON numbers, and multiple
// choice a JSON array.
func EncodeAnswer(a Answer) ([]byte, error) {
	switch v := a.(type) {
	case SingleChoiceAnswer:
		return json.Marshal(string(v))
	case MultipleChoiceAnswer:
		return json.Marshal([]string(NewMultipleChoiceAnswer(v...)))
	case TrueFalseAnswer:
		return json.Marshal(string(v))
	case RatingAnswer:
		return json.Marshal(int(v))
	case TextAnswer:
		return json.Marshal(string(v))
	case nil:
		return nil, fmt.Errorf("%w: nil answer", ErrInvalidAnswer)
	default:
		return nil, fmt.Errorf("%w: unsupported answer type %T", ErrInvalidAnswer, a)
	}
}

// DecodeAnswer parses a stored answer using the owning question's type.
// A rating must be a whole number.
func DecodeAnswer(t QuestionType, raw []byte) (Answer, error) {
	switch t {
	case SingleChoice, TrueFalse, Text:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %s answer: %v", ErrInvalidAnswer, t, err)
		}
		switch t {
		case SingleChoice:
			return SingleChoiceAnswer(s), nil
		case TrueFalse:
			return TrueFalseAnswer(s), nil
		}
		return TextAnswer(s), nil
	case MultipleChoice:
		var set []string
		if err := json.Unmarshal(raw, &set); err != nil {
			return nil, fmt.Errorf("%w: %s answer: %v", ErrInvalidAnswer, t, err)
		}
		return NewMultipleChoiceAnswer(set...), nil
	case Rating:
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("%w: %s answer: %v", ErrInvalidAnswer, t, err)
		}
		return RatingAnswer(n), nil
	default:
		return nil, fmt.Errorf("%w: unknown question type %q", ErrInvalidAnswer, t)
	}
}
