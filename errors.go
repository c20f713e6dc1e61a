package wire

import "errors"

var (
	// ErrTrailingData is returned when non-zero bytes are found after the
	// expected end of a fixed-size binary payload, indicating a potential
	// parsing error or malformed data.
	ErrTrailingData = errors.New("wire: non-zero trailing data found after decoding")

	// ErrTruncatedData indicates that a read operation could not complete because the
	// underlying data source (e.g., buffer, stream) ended before all expected bytes were read.
	ErrTruncatedData = errors.New("wire: truncated data")
)

// The error kinds of spec §7. Each is a sentinel matched with errors.Is;
// callers that need the offending detail should unwrap with %w.
var (
	// ErrInvalidMarshallable indicates a required field failed validation
	// during read or write of a Marshallable. On write, the document is
	// rolled back before this error is returned.
	ErrInvalidMarshallable = errors.New("wire: invalid marshallable")

	// ErrUnrecoverableTimeout indicates document acquisition could not
	// complete within the caller's deadline. Fatal for the Wire; the
	// caller must discard it.
	ErrUnrecoverableTimeout = errors.New("wire: timed out acquiring writing document")

	// ErrClassNotFound indicates alias resolution failed and no fallback
	// factory was supplied.
	ErrClassNotFound = errors.New("wire: type alias not found")

	// ErrMethodWriterValidation is a build-time error: duplicate method
	// id, a non-interface type, or an unsupported method signature.
	ErrMethodWriterValidation = errors.New("wire: method writer validation failed")

	// ErrProtocolViolation indicates the reader failed to progress,
	// encountered an unknown required tag, or a malformed header.
	ErrProtocolViolation = errors.New("wire: protocol violation")

	// ErrTransientIO wraps a backing buffer or transport failure.
	ErrTransientIO = errors.New("wire: transient I/O failure")
)
