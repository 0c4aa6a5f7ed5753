// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/quickly-survey/models"
)

// ErrTokenReused is models.ErrTokenReused, kept here for store callers.
var ErrTokenReused = models.ErrTokenReused

// Store is the persistence layer for surveys, questions, responses and
// profiles. Every multi-row write runs in a single transaction.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const surveyColumns = `s.id, s.title, s.description, s.creator_id, s.is_private, s.password_hash,
	s.version, s.response_version, s.created_at, s.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSurvey(row rowScanner, extra ...any) (models.Survey, error) {
	var s models.Survey
	var hash sql.NullString
	dest := append([]any{&s.ID, &s.Title, &s.Description, &s.CreatorID, &s.IsPrivate, &hash,
		&s.Version, &s.ResponseVersion, &s.CreatedAt, &s.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.Survey{}, err
	}
	s.PasswordHash = hash.String
	return s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isUniqueViolation reports a UNIQUE constraint failure from either driver
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// Connection without extended result codes
			return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
		}
	}
	return false
}

// placeholders returns "$start, $start+1, ..." for n arguments
func placeholders(start, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = "$" + strconv.Itoa(start+i)
	}
	return strings.Join(ph, ", ")
}

// Surveys

// CreateSurvey inserts a new survey and its questions.
func (st *Store) CreateSurvey(ctx context.Context, s models.Survey, questions []models.Question) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO survey (id, title, description, creator_id, is_private, password_hash,
			version, response_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, s.ID, s.Title, s.Description, s.CreatorID, s.IsPrivate, nullString(s.PasswordHash),
		s.Version, s.ResponseVersion, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert survey: %w", err)
	}

	if err := insertQuestions(ctx, tx, questions); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit survey: %w", err)
	}
	return nil
}

// UpdateSurvey saves survey fields and replaces the whole question list,
// provided the stored version still equals expectedVersion. The stored
// version is incremented.
func (st *Store) UpdateSurvey(ctx context.Context, s models.Survey, expectedVersion int, questions []models.Question) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE survey
		SET title = $1, description = $2, is_private = $3, password_hash = $4,
			version = version + 1, updated_at = $5
		WHERE id = $6 AND version = $7
	`, s.Title, s.Description, s.IsPrivate, nullString(s.PasswordHash), s.UpdatedAt, s.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update survey: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM survey WHERE id = $1`, s.ID).Scan(&exists)
		if err == sql.ErrNoRows {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check survey: %w", err)
		}
		return models.ErrVersionConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM question WHERE survey_id = $1`, s.ID); err != nil {
		return fmt.Errorf("failed to delete questions: %w", err)
	}
	if err := insertQuestions(ctx, tx, questions); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit survey: %w", err)
	}
	return nil
}

func insertQuestions(ctx context.Context, tx *sql.Tx, questions []models.Question) error {
	for _, q := range questions {
		options := q.Options
		if options == nil {
			options = []string{}
		}
		encoded, err := json.Marshal(options)
		if err != nil {
			return fmt.Errorf("failed to encode options: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO question (id, survey_id, question_text, question_type, options, display_order)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, q.ID, q.SurveyID, q.Text, string(q.Type), string(encoded), q.DisplayOrder)
		if err != nil {
			return fmt.Errorf("failed to insert question: %w", err)
		}
	}
	return nil
}

// GetSurvey returns models.ErrNotFound when the survey does not exist.
func (st *Store) GetSurvey(ctx context.Context, id string) (models.Survey, error) {
	row := st.db.QueryRowContext(ctx, `SELECT `+surveyColumns+` FROM survey s WHERE s.id = $1`, id)
	s, err := scanSurvey(row)
	if err == sql.ErrNoRows {
		return models.Survey{}, models.ErrNotFound
	}
	if err != nil {
		return models.Survey{}, fmt.Errorf("failed to query survey: %w", err)
	}
	return s, nil
}

// DeleteSurvey removes a survey with its questions, submissions and responses.
func (st *Store) DeleteSurvey(ctx context.Context, id string) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Children first; SQLite connections may not enforce cascades
	for _, stmt := range []string{
		`DELETE FROM response WHERE survey_id = $1`,
		`DELETE FROM submission WHERE survey_id = $1`,
		`DELETE FROM question WHERE survey_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to delete survey children: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM survey WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete survey: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// ListSurveysByCreator returns a creator's surveys, newest first, with
// question and distinct respondent counts.
func (st *Store) ListSurveysByCreator(ctx context.Context, creatorID string) ([]models.SurveyListing, error) {
	rows, err := st.db.QueryContext(ctx, `
		SELECT `+surveyColumns+`,
			(SELECT COUNT(*) FROM question q WHERE q.survey_id = s.id),
			(SELECT COUNT(DISTINCT r.user_id) FROM response r WHERE r.survey_id = s.id)
		FROM survey s
		WHERE s.creator_id = $1
		ORDER BY s.created_at DESC, s.id
	`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query surveys: %w", err)
	}
	defer rows.Close()

	listings := []models.SurveyListing{}
	for rows.Next() {
		var l models.SurveyListing
		s, err := scanSurvey(rows, &l.QuestionCount, &l.RespondentCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan survey: %w", err)
		}
		l.Survey = s
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate surveys: %w", err)
	}
	return listings, nil
}

// Questions

// ListQuestions returns a survey's questions in display order.
func (st *Store) ListQuestions(ctx context.Context, surveyID string) ([]models.Question, error) {
	rows, err := st.db.QueryContext(ctx, `
		SELECT id, survey_id, question_text, question_type, options, display_order
		FROM question
		WHERE survey_id = $1
		ORDER BY display_order, id
	`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		var qtype, options string
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.Text, &qtype, &options, &q.DisplayOrder); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q.Type = models.QuestionType(qtype)
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options of question %s: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}
	return questions, nil
}

// Responses

// AppendResponses stores one submission and its responses atomically and
// bumps the survey's response version. A token seen before returns the
// original submission with Replayed set and writes nothing.
func (st *Store) AppendResponses(ctx context.Context, sub models.Submission, responses []models.Response) (models.Submission, error) {
	if existing, err := st.FindSubmission(ctx, sub.Token); err == nil {
		return checkReplay(existing, sub)
	} else if !errors.Is(err, models.ErrNotFound) {
		return models.Submission{}, err
	}

	err := st.appendResponses(ctx, sub, responses)
	if isUniqueViolation(err) {
		// Lost a race with a concurrent retry of the same attempt
		existing, findErr := st.FindSubmission(ctx, sub.Token)
		if findErr != nil {
			return models.Submission{}, findErr
		}
		return checkReplay(existing, sub)
	}
	if err != nil {
		return models.Submission{}, err
	}
	return sub, nil
}

func checkReplay(existing, sub models.Submission) (models.Submission, error) {
	if existing.SurveyID != sub.SurveyID || existing.UserID != sub.UserID {
		return models.Submission{}, ErrTokenReused
	}
	existing.Replayed = true
	return existing, nil
}

func (st *Store) appendResponses(ctx context.Context, sub models.Submission, responses []models.Response) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE survey SET response_version = response_version + 1 WHERE id = $1
	`, sub.SurveyID)
	if err != nil {
		return fmt.Errorf("failed to bump response version: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read response version update: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO submission (id, token, survey_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, sub.ID, sub.Token, sub.SurveyID, sub.UserID, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	for _, r := range responses {
		encoded, err := models.EncodeAnswer(r.Answer)
		if err != nil {
			return fmt.Errorf("failed to encode answer for question %s: %w", r.QuestionID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO response (id, submission_id, survey_id, question_id, user_id, answer, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, r.ID, sub.ID, r.SurveyID, r.QuestionID, r.UserID, string(encoded), r.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert response: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit submission: %w", err)
	}
	return nil
}

// FindSubmission returns the submission stored under token, or
// models.ErrNotFound.
func (st *Store) FindSubmission(ctx context.Context, token string) (models.Submission, error) {
	var sub models.Submission
	err := st.db.QueryRowContext(ctx, `
		SELECT id, token, survey_id, user_id, created_at FROM submission WHERE token = $1
	`, token).Scan(&sub.ID, &sub.Token, &sub.SurveyID, &sub.UserID, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Submission{}, models.ErrNotFound
	}
	if err != nil {
		return models.Submission{}, fmt.Errorf("failed to query submission: %w", err)
	}
	return sub, nil
}

// ResponseFilter selects responses. Empty fields are not filtered on;
// at least one must be set.
type ResponseFilter struct {
	SurveyID   string
	QuestionID string
	UserID     string
}

// ListResponses returns matching responses, oldest first. Answers are
// decoded with the type of the question they belong to; responses whose
// question no longer exists, or whose answer cannot be decoded, come back
// with a nil Answer.
func (st *Store) ListResponses(ctx context.Context, f ResponseFilter) ([]models.Response, error) {
	var conds []string
	var args []any
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, column+" = $"+strconv.Itoa(len(args)))
	}
	add("r.survey_id", f.SurveyID)
	add("r.question_id", f.QuestionID)
	add("r.user_id", f.UserID)
	if len(conds) == 0 {
		return nil, errors.New("response filter needs a survey, question or user")
	}

	rows, err := st.db.QueryContext(ctx, `
		SELECT r.id, r.submission_id, r.survey_id, r.question_id, r.user_id, r.answer, r.created_at, q.question_type
		FROM response r
		LEFT JOIN question q ON q.id = r.question_id
		WHERE `+strings.Join(conds, " AND ")+`
		ORDER BY r.created_at, r.id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	responses := []models.Response{}
	for rows.Next() {
		var r models.Response
		var raw string
		var qtype sql.NullString
		if err := rows.Scan(&r.ID, &r.SubmissionID, &r.SurveyID, &r.QuestionID, &r.UserID, &raw, &r.CreatedAt, &qtype); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		if qtype.Valid {
			answer, err := models.DecodeAnswer(models.QuestionType(qtype.String), []byte(raw))
			if err != nil {
				slog.Warn("undecodable stored answer", "response_id", r.ID, "question_id", r.QuestionID, "error", err)
			} else {
				r.Answer = answer
			}
		}
		responses = append(responses, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate responses: %w", err)
	}
	return responses, nil
}

// ListCompletedSurveys returns the surveys userID has submitted to, with
// the latest completion time, most recent first. CreatorDisplayName is
// empty when the creator has no profile.
func (st *Store) ListCompletedSurveys(ctx context.Context, userID string) ([]models.CompletedSurvey, error) {
	rows, err := st.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.description, s.creator_id, COALESCE(p.display_name, ''), sub.created_at
		FROM submission sub
		JOIN survey s ON s.id = sub.survey_id
		LEFT JOIN profile p ON p.user_id = s.creator_id
		WHERE sub.user_id = $1
		ORDER BY sub.created_at DESC, sub.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed surveys: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	completed := []models.CompletedSurvey{}
	for rows.Next() {
		var c models.CompletedSurvey
		if err := rows.Scan(&c.SurveyID, &c.Title, &c.Description, &c.CreatorID, &c.CreatorDisplayName, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completed survey: %w", err)
		}
		// Rows arrive newest first, so the first per survey is the latest
		if seen[c.SurveyID] {
			continue
		}
		seen[c.SurveyID] = true
		completed = append(completed, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completed surveys: %w", err)
	}
	return completed, nil
}

// Profiles

// GetProfile returns models.ErrNotFound when the user has no profile.
func (st *Store) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	var p models.Profile
	err := st.db.QueryRowContext(ctx, `
		SELECT user_id, display_name, updated_at FROM profile WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.DisplayName, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Profile{}, models.ErrNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to query profile: %w", err)
	}
	return p, nil
}

// UpsertProfile creates or replaces a user's profile.
func (st *Store) UpsertProfile(ctx context.Context, p models.Profile) error {
	_, err := st.db.ExecContext(ctx, `
		INSERT INTO profile (user_id, display_name, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET display_name = excluded.display_name, updated_at = excluded.updated_at
	`, p.UserID, p.DisplayName, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// RespondentProfilesUpdatedAt returns the latest profile update among the
// users who responded to a survey, or the zero time when none has a profile.
func (st *Store) RespondentProfilesUpdatedAt(ctx context.Context, surveyID string) (time.Time, error) {
	rows, err := st.db.QueryContext(ctx, `
		SELECT updated_at FROM profile
		WHERE user_id IN (SELECT DISTINCT user_id FROM response WHERE survey_id = $1)
	`, surveyID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query respondent profiles: %w", err)
	}
	defer rows.Close()

	var latest time.Time
	for rows.Next() {
		var updatedAt time.Time
		if err := rows.Scan(&updatedAt); err != nil {
			return time.Time{}, fmt.Errorf("failed to scan profile: %w", err)
		}
		if updatedAt.After(latest) {
			latest = updatedAt
		}
	}
	if err := rows.Err(); err != nil {
		return time.Time{}, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return latest, nil
}

// DisplayNames resolves user ids to display names. Users without a profile
// are absent from the map.
func (st *Store) DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}

	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := st.db.QueryContext(ctx, `
		SELECT user_id, display_name FROM profile WHERE user_id IN (`+placeholders(1, len(userIDs))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return names, nil
}
