package loadtest

import (
	"errors"
	"fmt"
	"net/url"

	"yqhp/loadaudit/pkg/types"
)

// Validate checks the fatal configuration conditions that must be rejected
// before any virtual user is spawned. All violations are reported together.
func Validate(req *types.LoadTestRequest) error {
	if req == nil {
		return ErrNilRequest
	}

	var errs []error
	if req.NumUsers <= 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidUsers, req.NumUsers))
	}
	if req.Duration <= 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidDuration, req.Duration))
	}
	if err := validateTarget(req.TargetURL); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func validateTarget(target string) error {
	if target == "" {
		return fmt.Errorf("%w: target_url is required", ErrInvalidTarget)
	}

	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidTarget, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host in %q", ErrInvalidTarget, target)
	}
	return nil
}
