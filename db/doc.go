// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles schema creation and persistence.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite);
DriverName maps the configured type to the database/sql driver. Both drivers
are registered by importing this package.

# Tables

  - profile: Display name per user id
  - survey: Survey metadata, argon2id password hash, save and response versions
  - question: Questions with JSON-encoded options and display order
  - submission: One row per accepted answer batch, unique idempotency token
  - response: One answer per question per submission, JSON-encoded

# Relationships

	survey 1──* question
	survey 1──* submission
	submission 1──* response
	response *──1 question (by id only, no foreign key)

Saving a survey deletes and reinserts its questions with new ids, so older
responses keep pointing at question ids that no longer exist. They are kept,
load with a nil Answer and are ignored by the statistics.

A CHECK constraint ties is_private to the presence of password_hash.

# Store

Store wraps *sql.DB:

	store := db.NewStore(conn)
	err := store.CreateSurvey(ctx, survey, questions)
	err = store.UpdateSurvey(ctx, survey, expectedVersion, questions)
	sub, err := store.AppendResponses(ctx, submission, responses)

Writes that touch several rows run in one transaction. UpdateSurvey returns
models.ErrVersionConflict when another save got there first. AppendResponses
returns the original submission, marked Replayed, when its token was already
stored.
*/
package db
