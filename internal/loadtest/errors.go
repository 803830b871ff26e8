package loadtest

import "errors"

var (
	// ErrInvalidUsers is returned when the number of virtual users is not positive.
	ErrInvalidUsers = errors.New("num_users must be greater than 0")

	// ErrInvalidDuration is returned when the test duration is not positive.
	ErrInvalidDuration = errors.New("duration must be greater than 0")

	// ErrInvalidTarget is returned when the target URL cannot be used.
	ErrInvalidTarget = errors.New("invalid target url")

	// ErrInvalidPayload is returned when the payload cannot be encoded as JSON.
	ErrInvalidPayload = errors.New("payload is not JSON encodable")

	// ErrNilRequest is returned when no request configuration is given.
	ErrNilRequest = errors.New("load test request is nil")

	// ErrNilClient is returned when the orchestrator has no HTTP client.
	ErrNilClient = errors.New("http client is nil")
)

// IsConfigError reports whether err is a configuration violation detected before the run started.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidUsers) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrNilRequest)
}
