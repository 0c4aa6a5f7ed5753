// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the survey use cases invoked by the client.

# Handler Types

Each handler is a struct with store, config and identity dependencies:

  - SurveyHandler: Authoring (save, load for edit, delete, list own) and opening for respondents
  - ResponseHandler: Submission, own answers, completed surveys
  - StatsHandler: Per-question statistics for the survey creator
  - ProfileHandler: Display name of the signed-in user

Handlers are created via constructor functions, or all at once:

	services := handlers.NewServices(store, cfg, session, redisClient)
	defer services.Close()

Every call takes a context.Context and resolves the caller through
identity.Provider; without a signed-in user it fails with
models.ErrUnauthenticated.

# Authoring

	d := draft.New()
	// ... edit d ...
	survey, err := services.Surveys.Save(ctx, d)

Save validates the draft before touching the store. A saved draft carries
the survey id and version; saving it again replaces the survey's questions
as long as nobody saved in between, otherwise models.ErrVersionConflict.
Leaving the password blank on a private survey keeps the stored hash.

# Responding

	survey, err := services.Surveys.Open(ctx, id, password)
	sub, err := services.Responses.Submit(ctx, handlers.SubmitRequest{...})

Access is checked again on submit. Retrying with the same Token returns the
original submission instead of storing a duplicate.

# Statistics

Summaries are memoized under the survey's save and response versions, so a
new save or submission is visible on the next request. Concurrent requests
for the same key share one computation. Cache failures are logged and
otherwise ignored.
*/
package handlers
