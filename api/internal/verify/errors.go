package verify

import "errors"

var (
	// ErrEmptyInput: the payload has no analyzable text after trimming,
	// whatever the modality.
	ErrEmptyInput = errors.New("no analyzable text in input")

	// ErrURLUnreachable: the input was a URL and its content could not be
	// resolved. Distinct from a page that merely says nothing interesting.
	ErrURLUnreachable = errors.New("unable to fetch content from the URL")

	// ErrUpstreamUnavailable: the reasoning engine itself failed. The
	// request is fatal and retryable by the caller; no verdict is fabricated.
	ErrUpstreamUnavailable = errors.New("reasoning engine unavailable")

	// ErrUnknownEngine: the caller named a reasoning engine that is not
	// configured.
	ErrUnknownEngine = errors.New("unknown reasoning engine")
)

// SchemaViolationError: the engine's output did not match the verdict
// schema even after the corrective retry.
type SchemaViolationError struct {
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return "engine output violates verdict schema: " + e.Reason
}
