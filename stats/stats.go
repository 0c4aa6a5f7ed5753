// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stats

import (
	"slices"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/danielhkuo/quickly-survey/models"
)

// UnknownRespondent is shown for text answers whose author has no profile.
const UnknownRespondent = "unknown user"

// OptionCount is the tally for one declared option.
type OptionCount struct {
	Option     string `json:"option"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// RatingBucket is the number of responses with a given rating.
type RatingBucket struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

// TextEntry is one free-text answer.
type TextEntry struct {
	RespondentDisplayName string    `json:"respondent_display_name"`
	AnswerText            string    `json:"answer_text"`
	SubmittedAt           time.Time `json:"submitted_at"`
	UserID                string    `json:"-"`
}

// Age renders the entry's submission time relative to now, e.g. "3 minutes ago".
func (e TextEntry) Age(now time.Time) string {
	return humanize.RelTime(e.SubmittedAt, now, "ago", "from now")
}

// QuestionSummary is the aggregated view of one question. Exactly one of
// Options, Histogram or Entries is populated, depending on Type.
type QuestionSummary struct {
	QuestionID     string              `json:"question_id"`
	QuestionText   string              `json:"question_text"`
	Type           models.QuestionType `json:"question_type"`
	TotalResponses int                 `json:"total_responses"`

	Options []OptionCount `json:"options,omitempty"`

	Histogram []RatingBucket `json:"histogram,omitempty"`
	Average   string         `json:"average,omitempty"`

	Entries []TextEntry `json:"entries,omitempty"`
}

// Head returns at most n text entries, for "show first N" displays.
func (s QuestionSummary) Head(n int) []TextEntry {
	if n < 0 || n >= len(s.Entries) {
		return s.Entries
	}
	return s.Entries[:n]
}

// SurveySummary holds every question summary in display order.
type SurveySummary struct {
	SurveyID            string            `json:"survey_id"`
	DistinctRespondents int               `json:"distinct_respondents"`
	Questions           []QuestionSummary `json:"questions"`
}

// Clone returns a copy that shares no slices with s.
func (s *SurveySummary) Clone() *SurveySummary {
	if s == nil {
		return nil
	}
	c := *s
	c.Questions = slices.Clone(s.Questions)
	for i := range c.Questions {
		q := &c.Questions[i]
		q.Options = slices.Clone(q.Options)
		q.Histogram = slices.Clone(q.Histogram)
		q.Entries = slices.Clone(q.Entries)
	}
	return &c
}

// Summarize aggregates a whole survey. Responses addressed to questions not
// in the list are ignored per question but still count as respondents.
func Summarize(surveyID string, questions []models.Question, responses []models.Response, names map[string]string) SurveySummary {
	byQuestion := make(map[string][]models.Response, len(questions))
	for _, r := range responses {
		byQuestion[r.QuestionID] = append(byQuestion[r.QuestionID], r)
	}

	ordered := append([]models.Question(nil), questions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DisplayOrder < ordered[j].DisplayOrder
	})

	summary := SurveySummary{
		SurveyID:            surveyID,
		DistinctRespondents: DistinctRespondents(responses),
		Questions:           make([]QuestionSummary, 0, len(ordered)),
	}
	for _, q := range ordered {
		summary.Questions = append(summary.Questions, SummarizeQuestion(q, byQuestion[q.ID], names))
	}
	return summary
}

// DistinctRespondents counts unique user ids across a survey's responses.
func DistinctRespondents(responses []models.Response) int {
	seen := make(map[string]struct{})
	for _, r := range responses {
		seen[r.UserID] = struct{}{}
	}
	return len(seen)
}

// SummarizeQuestion aggregates the responses addressed to one question.
// It is a pure function of its inputs.
func SummarizeQuestion(q models.Question, responses []models.Response, names map[string]string) QuestionSummary {
	s := QuestionSummary{
		QuestionID:     q.ID,
		QuestionText:   q.Text,
		Type:           q.Type,
		TotalResponses: len(responses),
	}

	switch q.Type {
	case models.SingleChoice, models.MultipleChoice, models.TrueFalse:
		s.Options = countOptions(q.Options, responses)
	case models.Rating:
		s.Histogram, s.Average = rateResponses(responses)
	case models.Text:
		s.Entries = collectText(responses, names)
	}
	return s
}

func countOptions(options []string, responses []models.Response) []OptionCount {
	counts := make(map[string]int, len(options))
	for _, o := range options {
		counts[o] = 0
	}

	for _, r := range responses {
		switch a := r.Answer.(type) {
		case models.SingleChoiceAnswer:
			increment(counts, string(a))
		case models.TrueFalseAnswer:
			increment(counts, string(a))
		case models.MultipleChoiceAnswer:
			for _, o := range models.NewMultipleChoiceAnswer(a...) {
				increment(counts, o)
			}
		}
	}

	total := len(responses)
	out := make([]OptionCount, 0, len(options))
	for _, o := range options {
		out = append(out, OptionCount{
			Option:     o,
			Count:      counts[o],
			Percentage: percentage(counts[o], total),
		})
	}
	return out
}

// increment counts only declared options; stale values are dropped.
func increment(counts map[string]int, option string) {
	if _, ok := counts[option]; ok {
		counts[option]++
	}
}

// percentage is round-half-up(count / total * 100), 0 when total is 0.
func percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	p := decimal.NewFromInt(int64(count) * 100).
		Div(decimal.NewFromInt(int64(total))).
		Round(0)
	return int(p.IntPart())
}

func rateResponses(responses []models.Response) ([]RatingBucket, string) {
	histogram := make([]RatingBucket, models.RatingMax-models.RatingMin+1)
	for i := range histogram {
		histogram[i].Rating = models.RatingMin + i
	}

	var sum int64
	for _, r := range responses {
		a, ok := r.Answer.(models.RatingAnswer)
		if !ok || int(a) < models.RatingMin || int(a) > models.RatingMax {
			continue
		}
		histogram[int(a)-models.RatingMin].Count++
		sum += int64(a)
	}

	avg := decimal.Zero
	if len(responses) > 0 {
		avg = decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(responses)))).Round(1)
	}
	return histogram, avg.StringFixed(1)
}

func collectText(responses []models.Response, names map[string]string) []TextEntry {
	entries := make([]TextEntry, 0, len(responses))
	for _, r := range responses {
		a, ok := r.Answer.(models.TextAnswer)
		if !ok {
			continue
		}
		name, ok := names[r.UserID]
		if !ok || name == "" {
			name = UnknownRespondent
		}
		entries = append(entries, TextEntry{
			RespondentDisplayName: name,
			AnswerText:            string(a),
			SubmittedAt:           r.CreatedAt,
			UserID:                r.UserID,
		})
	}

	// Newest first; ties broken by user then text so output is stable
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.After(b.SubmittedAt)
		}
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return a.AnswerText < b.AnswerText
	})
	return entries
}
