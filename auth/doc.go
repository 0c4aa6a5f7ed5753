// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides the survey access policy and credential utilities.

# Access Policy

VerifyAccess decides whether a respondent may read a survey's questions:

	err := auth.VerifyAccess(survey, suppliedPassword, cfg.PasswordPepper)
	if errors.Is(err, models.ErrWrongPassword) {
		// re-prompt
	}

Public surveys are granted for any supplied password, including the empty
string. Private surveys are granted only when the supplied password matches
the stored hash. A private survey without a stored hash is always denied.
There is no rate limiting or lockout.

RequireCreator restricts editing, deletion and statistics to the creator:

	if err := auth.RequireCreator(survey, user.ID); err != nil {
		return err // models.ErrForbidden
	}

# Password Hashing

Survey passwords are never stored in clear text. HashPassword produces a
salted argon2id hash in the standard encoded form:

	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>

A server-side pepper from configuration is appended before hashing.
VerifyPassword recomputes with the encoded parameters and compares in
constant time.

# IDs and Tokens

	id := auth.GenerateID()              // UUID for records
	token := auth.NewSubmissionToken()   // idempotency key for one attempt
*/
package auth
