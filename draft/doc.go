// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package draft holds the survey authoring model.

A SurveyDraft is owned by one authoring session and mutated in place. Every
operation is a pure state transition; nothing is persisted until the draft is
handed to handlers.SurveyHandler.Save.

	d := draft.New()             // one single choice question, selected
	d.AddQuestion()              // appends and selects
	d.ChangeType(1, models.Rating)
	d.SetQuestionText(1, "How was it?")
	if err := d.Validate(); err != nil {
		// errors.Join of *models.FieldError, one per violation
	}

# Type Defaults

Changing a question's type resets its options:

	single_choice, multiple_choice  ["Option A", "Option B"]
	true_false                      ["正确", "错误"] (fixed)
	rating, text                    none

AddOption is refused with models.ErrOptionsLocked for fixed-option types.
Labels continue past "Option Z" as "Option AA", "Option AB", ...

# Invariants

RemoveQuestion keeps at least one question and RemoveOption keeps at least
two options; both return the matching models error and leave the draft
unchanged. Text setters are unconditional; blank text is only rejected by
Validate.
*/
package draft
