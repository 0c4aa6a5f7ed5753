// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package stats aggregates survey responses into per-question summaries.

Everything here is pure: no I/O, no caching, no clock. The same questions
and responses always produce the same summary, down to the JSON bytes.
Memoization is the caller's job (see handlers.StatsHandler).

# Choice Questions

Single choice, multiple choice and true/false questions report one
OptionCount per declared option, in authored order:

	total responses = number of response rows
	percentage      = round(count / total * 100), 0 when total is 0

Answers that match no declared option are dropped. A multiple choice
response increments every option it selected, so counts need not sum to the
total.

# Rating Questions

An 11-bucket histogram over 0..10 and an average with one decimal digit
("5.0"). Out-of-range or non-rating answers are left out of both the
histogram and the sum but still count toward the total.

# Text Questions

One TextEntry per answer, newest first, with the author's display name or
"unknown user". Long lists can be cut with Head(n).

# Respondents

DistinctRespondents counts unique user ids across the whole survey,
independent of per-question totals.
*/
package stats
