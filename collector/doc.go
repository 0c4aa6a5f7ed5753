// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package collector validates and stores a respondent's answers.

# Completeness

A question is unanswered when its id is missing from the answer map or its
answer IsEmpty: blank choice, empty set, whitespace-only text. A rating of 0
is an answer. ValidateCompleteness reports every unanswered question in
order, not just the first:

	missing := collector.ValidateCompleteness(questions, answers)

# Submission

	c := collector.New(store)
	sub, err := c.Submit(ctx, surveyID, userID, token, answers)

Submit runs completeness and shape checks before touching storage, then
writes one submission row and one response per question in a single
transaction. Errors:

  - *models.IncompleteSubmissionError with all missing question ids
  - joined *models.FieldError wrapping models.ErrInvalidAnswer
  - models.ErrNotFound when the survey has no questions or is gone
  - *models.PersistenceError for store failures, never retried here

# Idempotency

token is minted once per submission attempt by the caller
(auth.NewSubmissionToken) and reused on retry. A replayed token returns the
stored submission with Replayed set. Separate attempts by the same respondent
are kept as independent submissions.
*/
package collector
