package domain

import "errors"

// Domain errors
var (
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrJobNotFound         = errors.New("sync job not found")
	ErrReportNotFound      = errors.New("sync report not found")
	ErrJobAlreadyRunning   = errors.New("sync job already pending or in progress")
	ErrNoNewData           = errors.New("upstream versions unchanged")
	ErrUnknownCategory     = errors.New("unknown loan category")
	ErrUpstreamUnavailable = errors.New("upstream bank API unavailable")
	ErrInvalidFormat       = errors.New("invalid date format")
	ErrInvalidAmount       = errors.New("invalid money amount")
	ErrInvalidRate         = errors.New("invalid rate")
)

// ValidationFailure aborts a sync when critical data quality checks fail.
// Errors holds the human-readable critical findings for the report.
type ValidationFailure struct {
	Errors []string
}

func (e *ValidationFailure) Error() string {
	return "Data Validation Failed"
}

// AsValidationFailure unwraps err into a ValidationFailure if it is one
func AsValidationFailure(err error) (*ValidationFailure, bool) {
	var vf *ValidationFailure
	if errors.As(err, &vf) {
		return vf, true
	}
	return nil, false
}
