/*
Package survey holds the respondent-side state machine: the answer store,
the question sequencer, completeness checks and the submission controller.

A Session is created with Load, which fetches the survey once and restores
any saved progress:

	sess, err := survey.Load(ctx, client, "team-feedback",
		survey.WithPersister(store.Bind(backend, key)))

Presentation layers only talk to the Flow interface. A typical loop:

	q := sess.CurrentQuestion()
	_ = sess.SetChoice(ctx, q.ID, q.Options[0].ID)
	outcome, err := sess.Advance(ctx)

Advance on the last question submits. Before anything is sent every
question is checked again; when one is incomplete the cursor moves there and
an *IncompleteError is returned. A backend reply saying the response was
already submitted is treated like a successful submission.
*/
package survey
