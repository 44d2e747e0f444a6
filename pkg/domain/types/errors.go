package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures across the pipeline. Each external-call
// failure is tagged so that the retry policy and the aggregator can act
// on the kind without string matching.
var (
	// ErrTagValidation marks malformed or incomplete input documents.
	// Never retried; fatal to that document only.
	ErrTagValidation = goerr.NewTag("validation")

	// ErrTagService marks unreachable or misbehaving external services.
	// Retried with bounded exponential backoff.
	ErrTagService = goerr.NewTag("service")

	// ErrTagParse marks well-delivered responses whose content does not
	// match the expected shape. Not retried.
	ErrTagParse = goerr.NewTag("parse")

	// ErrTagTimeout marks operation or document-level deadline expiry.
	ErrTagTimeout = goerr.NewTag("timeout")

	// ErrTagNotFound marks lookups of absent entities, including
	// similarity queries against documents with no stored embedding.
	ErrTagNotFound = goerr.NewTag("not_found")
)

// StatusForError maps a tagged error to the result status recorded on
// the corresponding field. Untagged errors count as service errors.
func StatusForError(err error) ResultStatus {
	switch {
	case err == nil:
		return ResultStatusOK
	case goerr.HasTag(err, ErrTagParse):
		return ResultStatusParseError
	case goerr.HasTag(err, ErrTagTimeout):
		return ResultStatusTimeout
	case goerr.HasTag(err, ErrTagNotFound):
		return ResultStatusNotFound
	default:
		return ResultStatusServiceError
	}
}
