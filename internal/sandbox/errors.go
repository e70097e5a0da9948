package sandbox

import "errors"

var (
	// ErrSameIPFaultedTwice is returned when Phase A sees the same
	// instruction pointer fault on two consecutive attempts, per spec.md
	// §4.3 ("if the same instruction pointer faults twice in a row, fail").
	ErrSameIPFaultedTwice = errors.New("sandbox: same instruction faulted twice")

	// ErrNullAccess is returned when a Phase A fault address is null.
	ErrNullAccess = errors.New("sandbox: null access")

	// ErrUnknownExitReason is returned when the traced child exits with a
	// status that is neither a clean exit nor a recognized fault signal.
	ErrUnknownExitReason = errors.New("sandbox: unknown exit reason")

	// ErrMaxFaultsExceeded is returned when Phase A's fault-and-restart
	// loop exceeds its configured bound without reaching a clean exit.
	ErrMaxFaultsExceeded = errors.New("sandbox: exceeded max faults during page discovery")

	// ErrTooManyTrials is returned when the configured trial count would
	// overflow the shared output page.
	ErrTooManyTrials = errors.New("sandbox: trial count exceeds output page capacity")
)
