// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main bootstraps the Quickly Survey backend.

Quickly Survey lets signed-in users author surveys of single choice,
multiple choice, true/false, 0-10 rating and free-text questions, optionally
protect them with a password, collect responses and read per-question
statistics.

# Starting

The binary connects to the database, creates the schema and wires the
handlers:

	DATABASE_URL=survey.db PASSWORD_PEPPER=... TOKEN_SECRET=... go run .

Or with flags:

	go run . -t postgres -d "postgres://..." -pepper ... -token-secret ...

# Configuration

Required settings:

  - DATABASE_URL (-d): Connection string or SQLite file
  - PASSWORD_PEPPER (-pepper): Secret mixed into survey password hashes
  - TOKEN_SECRET (-token-secret): HMAC key for identity tokens

Optional settings:

  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - TOKEN_TTL (-token-ttl): Identity token lifetime (default: 24h)
  - REDIS_ADDR (-redis): Redis address for the statistics cache
  - STATS_CACHE_TTL (-stats-ttl): Statistics cache lifetime (default: 10m)
  - -c: YAML config file, lowest precedence after environment and flags

A .env file in the working directory is loaded first.

# Architecture

  - handlers: Use cases (surveys, responses, statistics, profiles)
  - draft: Survey authoring state and validation
  - collector: Submission validation and storage
  - stats: Per-question aggregation
  - auth: IDs, password hashing, access policy
  - identity: Signed-in user and token verification
  - cache: Statistics cache (Redis or in process)
  - models: Domain types, answers and errors
  - db: Schema and store
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
