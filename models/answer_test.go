// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"reflect"
	"testing"
)

func TestAnswerIsEmpty(t *testing.T) {
	tests := []struct {
		name   string
		answer Answer
		want   bool
	}{
		{"single choice set", SingleChoiceAnswer("Option A"), false},
		{"single choice blank", SingleChoiceAnswer(""), true},
		{"multiple choice set", NewMultipleChoiceAnswer("A"), false},
		{"multiple choice empty", NewMultipleChoiceAnswer(), true},
		{"true false set", TrueFalseAnswer(TrueLabel), false},
		{"true false blank", TrueFalseAnswer(""), true},
		{"rating zero", RatingAnswer(0), false},
		{"rating ten", RatingAnswer(10), false},
		{"text set", TextAnswer("fine"), false},
		{"text whitespace", TextAnswer("   \t"), true},
		{"text empty", TextAnswer(""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.answer.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewMultipleChoiceAnswerDeduplicates(t *testing.T) {
	got := NewMultipleChoiceAnswer("B", "A", "B", "C", "A")
	want := MultipleChoiceAnswer{"B", "A", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NewMultipleChoiceAnswer() = %v, want %v", got, want)
	}
	if !got.Contains("C") || got.Contains("D") {
		t.Error("Contains() gave wrong membership")
	}
}

func TestEncodeDecodeAnswer(t *testing.T) {
	tests := []struct {
		name    string
		qtype   QuestionType
		answer  Answer
		encoded string
	}{
		{"single choice", SingleChoice, SingleChoiceAnswer("Option B"), `"Option B"`},
		{"multiple choice", MultipleChoice, MultipleChoiceAnswer{"A", "B", "A"}, `["A","B"]`},
		{"true false", TrueFalse, TrueFalseAnswer(FalseLabel), `"错误"`},
		{"rating", Rating, RatingAnswer(7), `7`},
		{"text", Text, TextAnswer("hello"), `"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := EncodeAnswer(tt.answer)
			if err != nil {
				t.Fatalf("EncodeAnswer() error = %v", err)
			}
			if string(raw) != tt.encoded {
				t.Errorf("EncodeAnswer() = %s, want %s", raw, tt.encoded)
			}

			decoded, err := DecodeAnswer(tt.qtype, raw)
			if err != nil {
				t.Fatalf("DecodeAnswer() error = %v", err)
			}
			if decoded.QuestionType() != tt.qtype {
				t.Errorf("decoded type = %s, want %s", decoded.QuestionType(), tt.qtype)
			}
		})
	}
}

func TestDecodeAnswerRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name  string
		qtype QuestionType
		raw   string
	}{
		{"fractional rating", Rating, `7.5`},
		{"string rating", Rating, `"7"`},
		{"object for text", Text, `{"a":1}`},
		{"string for multiple choice", MultipleChoice, `"A"`},
		{"unknown type", QuestionType("matrix"), `"A"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAnswer(tt.qtype, []byte(tt.raw))
			if !errors.Is(err, ErrInvalidAnswer) {
				t.Errorf("DecodeAnswer() error = %v, want ErrInvalidAnswer", err)
			}
		})
	}
}

func TestEncodeAnswerNil(t *testing.T) {
	if _, err := EncodeAnswer(nil); !errors.Is(err, ErrInvalidAnswer) {
		t.Errorf("EncodeAnswer(nil) error = %v, want ErrInvalidAnswer", err)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	inc := &IncompleteSubmissionError{Missing: []string{"q1", "q3"}}
	if !errors.Is(inc, ErrIncompleteSubmission) {
		t.Error("IncompleteSubmissionError should match ErrIncompleteSubmission")
	}

	field := &FieldError{Field: "title", Err: ErrMissingRequiredField}
	joined := errors.Join(field, &FieldError{Field: "password", Err: ErrPasswordRequired})
	if !errors.Is(joined, ErrMissingRequiredField) || !errors.Is(joined, ErrPasswordRequired) {
		t.Error("joined field errors should match both sentinels")
	}

	cause := errors.New("connection reset")
	perr := &PersistenceError{Op: "append responses", Err: cause}
	if !errors.Is(perr, cause) {
		t.Error("PersistenceError should unwrap to its cause")
	}
}
