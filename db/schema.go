// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// Supported database types
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// DriverName maps a configured database type to its database/sql driver.
func DriverName(dbType string) (string, error) {
	switch dbType {
	case Postgres:
		return "postgres", nil
	case SQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database type %q", dbType)
	}
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dbType string) error {
	stmts := schema
	if dbType == SQLite {
		stmts = "PRAGMA foreign_keys = ON;\n" + schema
	}

	_, err := db.Exec(stmts)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The schema sticks to types and syntax shared by PostgreSQL and SQLite.
// Options and answers are JSON text.
const schema = `
-- Display names
CREATE TABLE IF NOT EXISTS profile (
    user_id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

-- Surveys
CREATE TABLE IF NOT EXISTS survey (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    creator_id TEXT NOT NULL,
    is_private BOOLEAN NOT NULL DEFAULT FALSE,
    password_hash TEXT,
    version INTEGER NOT NULL DEFAULT 1,
    response_version INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    CHECK ((is_private AND password_hash IS NOT NULL) OR (NOT is_private AND password_hash IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_survey_creator_id ON survey(creator_id);

-- Questions, replaced as a whole on every save
CREATE TABLE IF NOT EXISTS question (
    id TEXT PRIMARY KEY,
    survey_id TEXT NOT NULL REFERENCES survey(id) ON DELETE CASCADE,
    question_text TEXT NOT NULL,
    question_type TEXT NOT NULL CHECK (question_type IN ('single_choice', 'multiple_choice', 'true_false', 'rating', 'text')),
    options TEXT NOT NULL DEFAULT '[]',
    display_order INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_question_survey_order ON question(survey_id, display_order);

-- One row per accepted submission batch
CREATE TABLE IF NOT EXISTS submission (
    id TEXT PRIMARY KEY,
    token TEXT NOT NULL UNIQUE,
    survey_id TEXT NOT NULL REFERENCES survey(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submission_survey_id ON submission(survey_id);
CREATE INDEX IF NOT EXISTS idx_submission_user_id ON submission(user_id);

-- Answers. question_id has no foreign key: responses outlive replaced questions.
CREATE TABLE IF NOT EXISTS response (
    id TEXT PRIMARY KEY,
    submission_id TEXT NOT NULL REFERENCES submission(id) ON DELETE CASCADE,
    survey_id TEXT NOT NULL REFERENCES survey(id) ON DELETE CASCADE,
    question_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    answer TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_response_survey_id ON response(survey_id);
CREATE INDEX IF NOT EXISTS idx_response_question_id ON response(question_id);
CREATE INDEX IF NOT EXISTS idx_response_user_id ON response(user_id);
`
