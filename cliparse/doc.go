// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - DatabaseURL: PostgreSQL connection string or SQLite DSN (required)
  - DatabaseType: "sqlite" or "postgres" (default: sqlite)
  - PasswordPepper: Secret appended to survey passwords before hashing (required)
  - TokenSecret: HS256 key for session tokens (required)
  - TokenTTL: Session token lifetime (default: 24h)
  - RedisAddr: Redis address for the stats cache; empty uses the in-memory cache
  - StatsCacheTTL: Stats cache entry lifetime (default: 10m)

# Sources

Each value comes from the first source that sets it:

 1. CLI flag
 2. Environment variable (a .env file in the working directory is loaded first)
 3. YAML file passed with -c
 4. Default

# CLI Flags

	-c             YAML config file
	-d             Database URL
	-t             Database type
	-pepper        Password pepper
	-token-secret  Token secret
	-token-ttl     Token lifetime
	-redis         Redis address
	-stats-ttl     Stats cache lifetime

# Environment Variables

	DATABASE_URL     → -d
	DATABASE_TYPE    → -t
	PASSWORD_PEPPER  → -pepper
	TOKEN_SECRET     → -token-secret
	TOKEN_TTL        → -token-ttl
	REDIS_ADDR       → -redis
	STATS_CACHE_TTL  → -stats-ttl

# YAML File

	database:
	  url: "file:survey.db"
	  type: sqlite
	secrets:
	  password_pepper: "..."
	  token_secret: "..."
	session:
	  token_ttl: 24h
	redis:
	  addr: "localhost:6379"
	stats:
	  cache_ttl: 10m

# Validation

ParseFlags returns an error if DATABASE_URL, PASSWORD_PEPPER or TOKEN_SECRET
is missing, if the database type is unknown, or if a duration does not parse.
*/
package cliparse
