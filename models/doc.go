// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain types and error taxonomy shared by every
other package.

# Domain Types

  - Survey: title, description, creator, privacy flag, argon2id password hash
    (never serialized), save version and response version
  - Question: text, type, ordered options, display order
  - Response: one immutable answer to one question
  - Submission: one accepted batch of responses, keyed by an idempotency token
  - Profile: display name for a user id

# Question Types

	SingleChoice    options >= 2, answer SingleChoiceAnswer
	MultipleChoice  options >= 2, answer MultipleChoiceAnswer (set)
	TrueFalse       options fixed to ["正确", "错误"], answer TrueFalseAnswer
	Rating          no options, answer RatingAnswer in [0, 10]
	Text            no options, answer TextAnswer

# Answers

Answer is a closed tagged union. Use a type switch to handle each shape:

	switch a := ans.(type) {
	case models.RatingAnswer:
		...
	case models.MultipleChoiceAnswer:
		...
	}

EncodeAnswer and DecodeAnswer convert answers to and from the JSON stored
in the response table. Decoding needs the question type since a JSON string
is a valid single choice, true/false or text answer.

# Errors

Sentinel errors are grouped as validation, access and persistence errors.
FieldError, IncompleteSubmissionError and PersistenceError carry detail and
unwrap to the sentinels, so callers test with errors.Is:

	if errors.Is(err, models.ErrIncompleteSubmission) {
		var inc *models.IncompleteSubmissionError
		errors.As(err, &inc)
		highlight(inc.Missing)
	}

Multiple validation failures are combined with errors.Join.
*/
package models
