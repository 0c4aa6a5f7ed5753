// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-survey/auth"
	"github.com/danielhkuo/quickly-survey/db"
	"github.com/danielhkuo/quickly-survey/models"
	"github.com/danielhkuo/quickly-survey/testutil"
)

func TestCreateSchemaIsIdempotent(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	if err := db.CreateSchema(conn, db.SQLite); err != nil {
		t.Fatalf("second CreateSchema() error = %v", err)
	}
}

func TestDriverName(t *testing.T) {
	tests := []struct {
		dbType  string
		want    string
		wantErr bool
	}{
		{"postgres", "postgres", false},
		{"sqlite", "sqlite", false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		got, err := db.DriverName(tt.dbType)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("DriverName(%q) = %q, %v", tt.dbType, got, err)
		}
	}
}

func TestSurveyRoundTrip(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	s, questions := testutil.CreateTestSurvey(t, store, "alice", "pw")

	got, err := store.GetSurvey(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSurvey() error = %v", err)
	}
	if got.Title != s.Title || got.CreatorID != "alice" || !got.IsPrivate || got.PasswordHash != s.PasswordHash {
		t.Errorf("GetSurvey() = %+v", got)
	}
	if got.Version != 1 || got.ResponseVersion != 0 {
		t.Errorf("versions = %d/%d, want 1/0", got.Version, got.ResponseVersion)
	}

	stored, err := store.ListQuestions(ctx, s.ID)
	if err != nil {
		t.Fatalf("ListQuestions() error = %v", err)
	}
	if len(stored) != len(questions) {
		t.Fatalf("questions = %d, want %d", len(stored), len(questions))
	}
	for i := range questions {
		if stored[i].ID != questions[i].ID || stored[i].Type != questions[i].Type {
			t.Errorf("question %d = %+v, want %+v", i, stored[i], questions[i])
		}
		if !reflect.DeepEqual(stored[i].Options, questions[i].Options) {
			t.Errorf("question %d options = %v, want %v", i, stored[i].Options, questions[i].Options)
		}
	}

	if _, err := store.GetSurvey(ctx, "nope"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetSurvey(missing) error = %v, want ErrNotFound", err)
	}
}

func TestPrivateSurveyRequiresHash(t *testing.T) {
	store := testutil.SetupTestStore(t)
	now := time.Now().UTC()

	s := models.Survey{ID: auth.GenerateID(), Title: "T", CreatorID: "alice", IsPrivate: true, Version: 1, CreatedAt: now, UpdatedAt: now}
	if err := store.CreateSurvey(context.Background(), s, nil); err == nil {
		t.Error("CreateSurvey() accepted a private survey without a password hash")
	}
}

func TestUpdateSurveyReplacesQuestions(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	s, _ := testutil.CreateTestSurvey(t, store, "alice", "")
	s.Title = "Renamed"
	s.UpdatedAt = time.Now().UTC()
	replacement := []models.Question{
		{ID: auth.GenerateID(), SurveyID: s.ID, Text: "Only one", Type: models.Text, Options: []string{}, DisplayOrder: 0},
	}

	if err := store.UpdateSurvey(ctx, s, 1, replacement); err != nil {
		t.Fatalf("UpdateSurvey() error = %v", err)
	}

	got, _ := store.GetSurvey(ctx, s.ID)
	if got.Title != "Renamed" || got.Version != 2 {
		t.Errorf("after update = %+v", got)
	}
	questions, _ := store.ListQuestions(ctx, s.ID)
	if len(questions) != 1 || questions[0].ID != replacement[0].ID {
		t.Errorf("questions after update = %+v", questions)
	}
}

func TestUpdateSurveyVersionConflict(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	s, questions := testutil.CreateTestSurvey(t, store, "alice", "")

	// First editor saves against version 1
	if err := store.UpdateSurvey(ctx, s, 1, questions[:1]); err != nil {
		t.Fatalf("first UpdateSurvey() error = %v", err)
	}

	// Second editor still holds version 1
	err := store.UpdateSurvey(ctx, s, 1, questions[1:])
	if !errors.Is(err, models.ErrVersionConflict) {
		t.Fatalf("stale UpdateSurvey() error = %v, want ErrVersionConflict", err)
	}

	// The losing save wrote nothing
	stored, _ := store.ListQuestions(ctx, s.ID)
	if len(stored) != 1 || stored[0].ID != questions[0].ID {
		t.Errorf("questions after conflict = %+v", stored)
	}

	s.ID = "missing"
	if err := store.UpdateSurvey(ctx, s, 1, nil); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("UpdateSurvey(missing) error = %v, want ErrNotFound", err)
	}
}

func submission(surveyID, userID string) models.Submission {
	return models.Submission{
		ID:        auth.GenerateID(),
		Token:     auth.NewSubmissionToken(),
		SurveyID:  surveyID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
}

func responsesFor(sub models.Submission, questions []models.Question) []models.Response {
	answers := testutil.CompleteAnswers(questions)
	out := make([]models.Response, 0, len(questions))
	for _, q := range questions {
		out = append(out, models.Response{
			ID:         auth.GenerateID(),
			SurveyID:   sub.SurveyID,
			QuestionID: q.ID,
			UserID:     sub.UserID,
			Answer:     answers[q.ID],
			CreatedAt:  sub.CreatedAt,
		})
	}
	return out
}

func TestAppendAndListResponses(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	s, questions := testutil.CreateTestSurvey(t, store, "alice", "")
	sub := submission(s.ID, "bob")

	stored, err := store.AppendResponses(ctx, sub, responsesFor(sub, questions))
	if err != nil {
		t.Fatalf("AppendResponses() error = %v", err)
	}
	if stored.Replayed || stored.ID != sub.ID {
		t.Errorf("AppendResponses() = %+v", stored)
	}

	all, err := store.ListResponses(ctx, db.ResponseFilter{SurveyID: s.ID})
	if err != nil {
		t.Fatalf("ListResponses() error = %v", err)
	}
	if len(all) != len(questions) {
		t.Fatalf("responses = %d, want %d", len(all), len(questions))
	}

	want := testutil.CompleteAnswers(questions)
	for _, r := range all {
		if r.SubmissionID != sub.ID {
			t.Errorf("response %s submission = %s", r.ID, r.SubmissionID)
		}
		if !reflect.DeepEqual(r.Answer, want[r.QuestionID]) {
			t.Errorf("answer for %s = %#v, want %#v", r.QuestionID, r.Answer, want[r.QuestionID])
		}
	}

	byQuestion, _ := store.ListResponses(ctx, db.ResponseFilter{QuestionID: questions[3].ID})
	if len(byQuestion) != 1 || byQuestion[0].Answer != models.RatingAnswer(8) {
		t.Errorf("by question = %+v", byQuestion)
	}

	byUser, _ := store.ListResponses(ctx, db.ResponseFilter{UserID: "carol"})
	if len(byUser) != 0 {
		t.Errorf("by other user = %d rows, want 0", len(byUser))
	}

	if _, err := store.ListResponses(ctx, db.ResponseFilter{}); err == nil {
		t.Error("ListResponses() accepted an empty filter")
	}

	got, _ := store.GetSurvey(ctx, s.ID)
	if got.ResponseVersion != 1 {
		t.Errorf("ResponseVersion = %d, want 1", got.ResponseVersion)
	}
}

func TestAppendResponsesIsIdempotent(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	s, questions := testutil.CreateTestSurvey(t, store, "alice", "")
	sub := submission(s.ID, "bob")

	first, err := store.AppendResponses(ctx, sub, responsesFor(sub, questions))
	if err != nil {
		t.Fatalf("AppendResponses() error = %v", err)
	}

	// Retry with the same token but freshly generated row ids
	retry := sub
	retry.ID = auth.GenerateID()
	second, err := store.AppendResponses(ctx, retry, responsesFor(retry, questions))
	if err != nil {
		t.Fatalf("retry AppendResponses() error = %v", err)
	}
	if !second.Replayed || second.ID != first.ID {
		t.Errorf("retry = %+v, want replay of %s", second, first.ID)
	}

	all, _ := store.ListResponses(ctx, db.ResponseFilter{SurveyID: s.ID})
	if len(all) != len(questions) {
		t.Errorf("responses after retry = %d, want %d", len(all), len(questions))
	}

	got, _ := store.GetSurvey(ctx, s.ID)
	if got.ResponseVersion != 1 {
		t.Errorf("ResponseVersion after retry = %d, want 1", got.ResponseVersion)
	}

	// Same token from a different user is refused
	stolen := retry
	stolen.UserID = "mallory"
	if _, err := store.AppendResponses(ctx, stolen, nil); !errors.Is(err, db.ErrTokenReused) {
		t.Errorf("reused token error = %v, want ErrTokenReused", err)
	}
}

func TestConcurrentRetriesStoreOnce(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	s, questions := testutil.CreateTestSurvey(t, store, "alice", "")
	sub := submission(s.ID, "bob")

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			attempt := sub
			attempt.ID = auth.GenerateID()
			if _, err := store.AppendResponses(ctx, attempt, responsesFor(attempt, questions)); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent AppendResponses() error = %v", err)
	}

	all, _ := store.ListResponses(ctx, db.ResponseFilter{SurveyID: s.ID})
	if len(all) != len(questions) {
		t.Errorf("responses = %d, want %d", len(all), len(questions))
	}
}

func TestAppendResponsesRollsBack(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	s, questions := testutil.CreateTestSurvey(t, store, "alice", "")
	sub := submission(s.ID, "bob")
	rows := responsesFor(sub, questions)
	rows[len(rows)-1].Answer = nil // fails to encode after earlier rows were inserted

	if _, err := store.AppendResponses(ctx, sub, rows); err == nil {
		t.Fatal("AppendResponses() accepted a nil answer")
	}

	all, _ := store.ListResponses(ctx, db.ResponseFilter{SurveyID: s.ID})
	if len(all) != 0 {
		t.Errorf("partial batch visible: %d rows", len(all))
	}
	got, _ := store.GetSurvey(ctx, s.ID)
	if got.ResponseVersion != 0 {
		t.Errorf("ResponseVersion = %d, want 0", got.ResponseVersion)
	}
}

func TestOrphanedResponsesSurviveEdit(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	s, questions := testutil.CreateTestSurvey(t, store, "alice", "")
	sub := submission(s.ID, "bob")
	store.AppendResponses(ctx, sub, responsesFor(sub, questions))

	if err := store.UpdateSurvey(ctx, s, 1, []models.Question{
		{ID: auth.GenerateID(), SurveyID: s.ID, Text: "New", Type: models.Text, DisplayOrder: 0},
	}); err != nil {
		t.Fatalf("UpdateSurvey() error = %v", err)
	}

	all, err := store.ListResponses(ctx, db.ResponseFilter{SurveyID: s.ID})
	if err != nil {
		t.Fatalf("ListResponses() error = %v", err)
	}
	if len(all) != len(questions) {
		t.Fatalf("responses = %d, want %d", len(all), len(questions))
	}
	for _, r := range all {
		if r.Answer != nil {
			t.Errorf("orphaned response %s decoded to %#v", r.ID, r.Answer)
		}
	}
}

func TestDeleteSurvey(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	s, questions := testutil.CreateTestSurvey(t, store, "alice", "")
	sub := submission(s.ID, "bob")
	store.AppendResponses(ctx, sub, responsesFor(sub, questions))

	if err := store.DeleteSurvey(ctx, s.ID); err != nil {
		t.Fatalf("DeleteSurvey() error = %v", err)
	}
	if _, err := store.GetSurvey(ctx, s.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetSurvey() after delete error = %v", err)
	}
	rows, _ := store.ListResponses(ctx, db.ResponseFilter{SurveyID: s.ID})
	if len(rows) != 0 {
		t.Errorf("responses after delete = %d", len(rows))
	}
	if err := store.DeleteSurvey(ctx, s.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second DeleteSurvey() error = %v, want ErrNotFound", err)
	}

	// Submitting to a deleted survey
	late := submission(s.ID, "carol")
	if _, err := store.AppendResponses(ctx, late, nil); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("AppendResponses() to deleted survey error = %v", err)
	}
}

func TestListSurveysByCreator(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	s1, questions := testutil.CreateTestSurvey(t, store, "alice", "")
	testutil.CreateTestSurvey(t, store, "alice", "pw")
	testutil.CreateTestSurvey(t, store, "bob", "")

	// bob answers twice, carol once
	for _, user := range []string{"bob", "bob", "carol"} {
		sub := submission(s1.ID, user)
		if _, err := store.AppendResponses(ctx, sub, responsesFor(sub, questions)); err != nil {
			t.Fatalf("AppendResponses() error = %v", err)
		}
	}

	listings, err := store.ListSurveysByCreator(ctx, "alice")
	if err != nil {
		t.Fatalf("ListSurveysByCreator() error = %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("listings = %d, want 2", len(listings))
	}
	for _, l := range listings {
		if l.QuestionCount != len(questions) {
			t.Errorf("%s question count = %d", l.Survey.ID, l.QuestionCount)
		}
		want := 0
		if l.Survey.ID == s1.ID {
			want = 2
		}
		if l.RespondentCount != want {
			t.Errorf("%s respondents = %d, want %d", l.Survey.ID, l.RespondentCount, want)
		}
	}
}

func TestListCompletedSurveys(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	testutil.CreateTestProfile(t, store, "alice", "Alice")
	s1, q1 := testutil.CreateTestSurvey(t, store, "alice", "")
	s2, q2 := testutil.CreateTestSurvey(t, store, "dave", "")

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	add := func(s models.Survey, qs []models.Question, at time.Time) {
		sub := submission(s.ID, "bob")
		sub.CreatedAt = at
		if _, err := store.AppendResponses(ctx, sub, responsesFor(sub, qs)); err != nil {
			t.Fatalf("AppendResponses() error = %v", err)
		}
	}
	add(s1, q1, base)
	add(s2, q2, base.Add(time.Hour))
	add(s1, q1, base.Add(2*time.Hour))

	completed, err := store.ListCompletedSurveys(ctx, "bob")
	if err != nil {
		t.Fatalf("ListCompletedSurveys() error = %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("completed = %d, want 2", len(completed))
	}
	if completed[0].SurveyID != s1.ID || !completed[0].CompletedAt.Equal(base.Add(2*time.Hour)) {
		t.Errorf("completed[0] = %+v", completed[0])
	}
	if completed[0].CreatorDisplayName != "Alice" {
		t.Errorf("creator name = %q, want Alice", completed[0].CreatorDisplayName)
	}
	if completed[1].SurveyID != s2.ID || completed[1].CreatorDisplayName != "" {
		t.Errorf("completed[1] = %+v", completed[1])
	}
}

func TestProfiles(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	if _, err := store.GetProfile(ctx, "alice"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetProfile(missing) error = %v", err)
	}

	testutil.CreateTestProfile(t, store, "alice", "Alice")
	testutil.CreateTestProfile(t, store, "alice", "Alice B.")
	testutil.CreateTestProfile(t, store, "bob", "Bob")

	p, err := store.GetProfile(ctx, "alice")
	if err != nil || p.DisplayName != "Alice B." {
		t.Errorf("GetProfile() = %+v, %v", p, err)
	}

	names, err := store.DisplayNames(ctx, []string{"alice", "bob", "carol"})
	if err != nil {
		t.Fatalf("DisplayNames() error = %v", err)
	}
	want := map[string]string{"alice": "Alice B.", "bob": "Bob"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("DisplayNames() = %v, want %v", names, want)
	}

	empty, err := store.DisplayNames(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("DisplayNames(nil) = %v, %v", empty, err)
	}
}

func TestFindSubmission(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	if _, err := store.FindSubmission(ctx, "unknown"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("FindSubmission(unknown) error = %v, want ErrNotFound", err)
	}

	s, questions := testutil.CreateTestSurvey(t, store, "alice", "")
	sub := submission(s.ID, "bob")
	if _, err := store.AppendResponses(ctx, sub, responsesFor(sub, questions)); err != nil {
		t.Fatalf("AppendResponses() error = %v", err)
	}

	got, err := store.FindSubmission(ctx, sub.Token)
	if err != nil {
		t.Fatalf("FindSubmission() error = %v", err)
	}
	if got.ID != sub.ID || got.SurveyID != s.ID || got.UserID != "bob" {
		t.Errorf("FindSubmission() = %+v", got)
	}
}

func TestRespondentProfilesUpdatedAt(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	s, questions := testutil.CreateTestSurvey(t, store, "alice", "")

	latest, err := store.RespondentProfilesUpdatedAt(ctx, s.ID)
	if err != nil || !latest.IsZero() {
		t.Fatalf("RespondentProfilesUpdatedAt() with no responses = %v, %v", latest, err)
	}

	sub := submission(s.ID, "bob")
	if _, err := store.AppendResponses(ctx, sub, responsesFor(sub, questions)); err != nil {
		t.Fatalf("AppendResponses() error = %v", err)
	}
	latest, _ = store.RespondentProfilesUpdatedAt(ctx, s.ID)
	if !latest.IsZero() {
		t.Errorf("respondent without profile = %v, want zero", latest)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	profiles := []models.Profile{
		{UserID: "bob", DisplayName: "Bob", UpdatedAt: base},
		// Not a respondent
		{UserID: "carol", DisplayName: "Carol", UpdatedAt: base.Add(time.Hour)},
	}
	for _, p := range profiles {
		if err := store.UpsertProfile(ctx, p); err != nil {
			t.Fatalf("UpsertProfile() error = %v", err)
		}
	}

	latest, err = store.RespondentProfilesUpdatedAt(ctx, s.ID)
	if err != nil {
		t.Fatalf("RespondentProfilesUpdatedAt() error = %v", err)
	}
	if !latest.Equal(base) {
		t.Errorf("latest = %v, want %v", latest, base)
	}

	renamed := base.Add(time.Minute)
	if err := store.UpsertProfile(ctx, models.Profile{UserID: "bob", DisplayName: "Robert", UpdatedAt: renamed}); err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}
	latest, _ = store.RespondentProfilesUpdatedAt(ctx, s.ID)
	if !latest.Equal(renamed) {
		t.Errorf("latest after rename = %v, want %v", latest, renamed)
	}
}
