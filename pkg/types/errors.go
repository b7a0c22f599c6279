package types

import "errors"

// Sentinel error kinds, per spec §7. Callers match with errors.Is;
// call sites wrap these with fmt.Errorf("...: %w", ErrX) to attach
// context.
var (
	// ErrCorruption marks a malformed frame, a missing atom at a
	// pointer, or an unparseable payload. Fatal for the read that hit
	// it; never retried inside the core.
	ErrCorruption = errors.New("protobase: corruption")

	// ErrIO marks a backend I/O failure. Potentially retriable by the
	// caller; the core never retries it internally.
	ErrIO = errors.New("protobase: i/o error")

	// ErrConflict marks a commit that lost its CAS race and could not
	// be rebased cleanly.
	ErrConflict = errors.New("protobase: commit conflict")

	// ErrValidation marks an invalid argument to a public operation.
	ErrValidation = errors.New("protobase: validation error")

	// ErrTimeout marks a blocking operation that exceeded a caller
	// deadline.
	ErrTimeout = errors.New("protobase: timeout")

	// ErrExpression marks a query compile/evaluation failure.
	ErrExpression = errors.New("protobase: expression error")

	// ErrClosed marks an operation attempted on a closed store,
	// transaction, or provider.
	ErrClosed = errors.New("protobase: closed")
)
