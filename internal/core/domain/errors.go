// Package domain holds the core types shared by every page-conversion
// component: asset models, the feedback vocabulary judges and the
// generator exchange, and the error taxonomy the Loop decides on.
package domain

import "errors"

// Domain errors represent the taxonomy of failures the core can produce.
// Of these, only ErrInput, ErrPageRange and ErrCredential escape to the
// caller; the rest are recorded into iteration history and decided on by
// the Loop.
var (
	// ErrInput indicates a malformed PDF or an invalid input path. Fatal.
	ErrInput = errors.New("input error")

	// ErrPageRange indicates a requested page index is out of bounds. Fatal.
	ErrPageRange = errors.New("page range error")

	// ErrCredential indicates a missing or invalid model provider
	// credential. Fatal.
	ErrCredential = errors.New("credential error")

	// ErrGenerator indicates the generator's reply had no parseable HTML.
	// Non-fatal: the iteration failed but the retry budget still applies.
	ErrGenerator = errors.New("generator error")

	// ErrRender indicates the headless renderer exceeded a navigation or
	// wait timeout. Non-fatal.
	ErrRender = errors.New("render error")

	// ErrJudge indicates a judge replied with unparseable JSON. Non-fatal:
	// recorded as a zero-score feedback, never raised to the Loop.
	ErrJudge = errors.New("judge error")

	// ErrTransientProvider indicates a network or 5xx failure calling a
	// model provider. Retried with bounded backoff before it counts
	// against the iteration budget.
	ErrTransientProvider = errors.New("transient provider error")

	// ErrNotConfigured indicates an optional dependency (a second judge
	// provider, the equation specialist) was not configured.
	ErrNotConfigured = errors.New("not configured")
)
