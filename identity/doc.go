// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package identity supplies the current user to the survey core.

The core only needs a user id to stamp creator and respondent ids and to
compare ids for authorization. Provider is that contract:

	type Provider interface {
		CurrentUser(ctx context.Context) (User, error)
	}

Two providers are included.

Session holds the signed-in user of a single client. Tokens are HS256 JWTs
issued and checked by a Verifier; the token subject is the user id.

	v := identity.NewVerifier(cfg.TokenSecret, 24*time.Hour)
	session := identity.NewSession(v)
	stop := session.OnChange(func(u *identity.User) {
		// discard per-user state, e.g. an open draft
	})
	defer stop()
	session.SignIn(token)

ContextProvider reads a user put on the context with WithUser, for callers
that authenticate per call.

Both return models.ErrUnauthenticated when nobody is signed in.
*/
package identity
