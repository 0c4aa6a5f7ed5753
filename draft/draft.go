// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package draft

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danielhkuo/quickly-survey/models"
)

var ErrIndexOutOfRange = errors.New("index out of range")

// QuestionDraft is an unsaved question. It has no id until the survey is saved.
type QuestionDraft struct {
	Text    string              `json:"question_text"`
	Type    models.QuestionType `json:"question_type"`
	Options []string            `json:"options"`
}

// SurveyDraft is the client-side authoring state of one survey.
type SurveyDraft struct {
	// SurveyID and Version are set once the survey has been saved.
	SurveyID string `json:"survey_id,omitempty"`
	Version  int    `json:"version,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"is_private"`
	// Password is the new plaintext password; blank keeps the stored one.
	Password          string `json:"-"`
	HasStoredPassword bool   `json:"has_stored_password"`

	Questions []QuestionDraft `json:"questions"`
	Selected  int             `json:"selected"`
}

// New returns a draft holding one default question, selected.
func New() *SurveyDraft {
	return &SurveyDraft{
		Questions: []QuestionDraft{defaultQuestion()},
		Selected:  0,
	}
}

// FromSurvey builds an edit draft from a saved survey and its questions.
func FromSurvey(s models.Survey, questions []models.Question) *SurveyDraft {
	d := &SurveyDraft{
		SurveyID:          s.ID,
		Version:           s.Version,
		Title:             s.Title,
		Description:       s.Description,
		IsPrivate:         s.IsPrivate,
		HasStoredPassword: s.PasswordHash != "",
	}
	for _, q := range questions {
		d.Questions = append(d.Questions, QuestionDraft{
			Text:    q.Text,
			Type:    q.Type,
			Options: append([]string(nil), q.Options...),
		})
	}
	if len(d.Questions) == 0 {
		d.Questions = []QuestionDraft{defaultQuestion()}
	}
	return d
}

func defaultQuestion() QuestionDraft {
	return QuestionDraft{
		Type:    models.SingleChoice,
		Options: defaultOptions(models.SingleChoice),
	}
}

// defaultOptions is the option list a question gets when it takes type t.
func defaultOptions(t models.QuestionType) []string {
	switch t {
	case models.SingleChoice, models.MultipleChoice:
		return []string{OptionLabel(0), OptionLabel(1)}
	case models.TrueFalse:
		return models.TrueFalseOptions()
	default:
		return []string{}
	}
}

// OptionLabel returns the default label for the n-th option (0-based):
// "Option A" .. "Option Z", then "Option AA", "Option AB", ...
func OptionLabel(n int) string {
	var letters []byte
	for n >= 0 {
		letters = append([]byte{byte('A' + n%26)}, letters...)
		n = n/26 - 1
	}
	return "Option " + string(letters)
}

// Current returns the selected question.
func (d *SurveyDraft) Current() *QuestionDraft {
	if d.Selected < 0 || d.Selected >= len(d.Questions) {
		return nil
	}
	return &d.Questions[d.Selected]
}

// Select moves the selection to question i.
func (d *SurveyDraft) Select(i int) error {
	if err := d.checkQuestion(i); err != nil {
		return err
	}
	d.Selected = i
	return nil
}

// AddQuestion appends a default single choice question and selects it.
func (d *SurveyDraft) AddQuestion() {
	d.Questions = append(d.Questions, defaultQuestion())
	d.Selected = len(d.Questions) - 1
}

// RemoveQuestion deletes question i and selects the one before it.
func (d *SurveyDraft) RemoveQuestion(i int) error {
	if err := d.checkQuestion(i); err != nil {
		return err
	}
	if len(d.Questions) <= 1 {
		return models.ErrMinimumQuestionCount
	}
	d.Questions = append(d.Questions[:i], d.Questions[i+1:]...)
	d.Selected = max(0, i-1)
	return nil
}

// ChangeType switches question i to type t and resets its options.
func (d *SurveyDraft) ChangeType(i int, t models.QuestionType) error {
	if err := d.checkQuestion(i); err != nil {
		return err
	}
	if !t.Valid() {
		return fmt.Errorf("%w %q", models.ErrUnknownQuestionType, t)
	}
	d.Questions[i].Type = t
	d.Questions[i].Options = defaultOptions(t)
	return nil
}

// AddOption appends the next sequential option label to a choice question.
func (d *SurveyDraft) AddOption(i int) error {
	if err := d.checkQuestion(i); err != nil {
		return err
	}
	q := &d.Questions[i]
	if q.Type != models.SingleChoice && q.Type != models.MultipleChoice {
		return models.ErrOptionsLocked
	}
	q.Options = append(q.Options, OptionLabel(len(q.Options)))
	return nil
}

// RemoveOption deletes option j of question i, keeping at least two.
func (d *SurveyDraft) RemoveOption(i, j int) error {
	if err := d.checkOption(i, j); err != nil {
		return err
	}
	q := &d.Questions[i]
	if len(q.Options)-1 < 2 {
		return models.ErrMinimumOptionCount
	}
	q.Options = append(q.Options[:j], q.Options[j+1:]...)
	return nil
}

// SetQuestionText replaces the text of question i. Empty text is allowed here.
func (d *SurveyDraft) SetQuestionText(i int, text string) error {
	if err := d.checkQuestion(i); err != nil {
		return err
	}
	d.Questions[i].Text = text
	return nil
}

// SetOptionText replaces the label of option j of question i.
func (d *SurveyDraft) SetOptionText(i, j int, text string) error {
	if err := d.checkOption(i, j); err != nil {
		return err
	}
	d.Questions[i].Options[j] = text
	return nil
}

func (d *SurveyDraft) checkQuestion(i int) error {
	if i < 0 || i >= len(d.Questions) {
		return fmt.Errorf("%w: question %d of %d", ErrIndexOutOfRange, i, len(d.Questions))
	}
	return nil
}

func (d *SurveyDraft) checkOption(i, j int) error {
	if err := d.checkQuestion(i); err != nil {
		return err
	}
	if j < 0 || j >= len(d.Questions[i].Options) {
		return fmt.Errorf("%w: option %d of %d", ErrIndexOutOfRange, j, len(d.Questions[i].Options))
	}
	return nil
}

// Validate runs the save-time checks and reports every violation.
func (d *SurveyDraft) Validate() error {
	var errs []error

	if strings.TrimSpace(d.Title) == "" {
		errs = append(errs, &models.FieldError{Field: "title", Err: models.ErrMissingRequiredField})
	}
	if d.IsPrivate && d.Password == "" && !d.HasStoredPassword {
		errs = append(errs, &models.FieldError{Field: "password", Err: models.ErrPasswordRequired})
	}
	if len(d.Questions) == 0 {
		errs = append(errs, &models.FieldError{Field: "questions", Err: models.ErrMinimumQuestionCount})
	}

	for i, q := range d.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(q.Text) == "" {
			errs = append(errs, &models.FieldError{Field: field + ".text", Err: models.ErrMissingRequiredField})
		}
		if err := validateOptions(q); err != nil {
			errs = append(errs, &models.FieldError{Field: field + ".options", Err: err})
		}
	}

	return errors.Join(errs...)
}

func validateOptions(q QuestionDraft) error {
	switch q.Type {
	case models.SingleChoice, models.MultipleChoice:
		if len(q.Options) < 2 {
			return models.ErrMinimumOptionCount
		}
		seen := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if strings.TrimSpace(o) == "" {
				return models.ErrMissingRequiredField
			}
			if seen[o] {
				return fmt.Errorf("%w: %q", models.ErrDuplicateOption, o)
			}
			seen[o] = true
		}
	case models.TrueFalse:
		if len(q.Options) != 2 || q.Options[0] != models.TrueLabel || q.Options[1] != models.FalseLabel {
			return models.ErrOptionsLocked
		}
	case models.Rating, models.Text:
		if len(q.Options) != 0 {
			return models.ErrOptionsLocked
		}
	default:
		return fmt.Errorf("%w %q", models.ErrUnknownQuestionType, q.Type)
	}
	return nil
}
