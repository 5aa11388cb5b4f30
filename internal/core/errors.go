package core

import "errors"

var (
	// ErrAuth means the registry rejected our credentials after the retry
	// budget was spent.
	ErrAuth = errors.New("registry auth failed")

	// ErrDeletedComment is the platform's signal that the thing we tried
	// to reply to vanished under us. Log and drop, never retry.
	ErrDeletedComment = errors.New("comment was deleted")

	// ErrMissingFlairTemplate means the snapshot carries no template id
	// for the requested flair; the flair write becomes a no-op.
	ErrMissingFlairTemplate = errors.New("no flair template id configured")

	// ErrNoTranscript means the verification protocol found no comment by
	// the claimant. Not an operational error.
	ErrNoTranscript = errors.New("no matching transcript comment found")
)
