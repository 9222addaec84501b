package simulation

import (
	"fmt"
	"time"
)

// NumericInstabilityError reports a NaN or infinity produced mid-run. The run
// aborts rather than silently corrupting aggregate statistics; the offending
// risk and iteration index are carried for diagnosis without a re-run.
type NumericInstabilityError struct {
	RiskID    string  `json:"risk_id"`
	Iteration int     `json:"iteration"`
	Value     float64 `json:"value"`
}

func (e *NumericInstabilityError) Error() string {
	return fmt.Sprintf("numeric instability: risk %q produced %v at iteration %d",
		e.RiskID, e.Value, e.Iteration)
}

// TimeoutError reports that a run exceeded the caller's deadline or was
// cancelled. Completed counts the iterations finished before the abort.
type TimeoutError struct {
	Cancelled bool          `json:"cancelled"` // true for explicit cancellation, false for deadline
	Completed int           `json:"iterations_completed"`
	Requested int           `json:"iterations_requested"`
	Elapsed   time.Duration `json:"elapsed"`
}

func (e *TimeoutError) Error() string {
	cause := "deadline exceeded"
	if e.Cancelled {
		cause = "cancelled"
	}
	return fmt.Sprintf("simulation %s after %s (%d/%d iterations completed)",
		cause, e.Elapsed.Round(time.Millisecond), e.Completed, e.Requested)
}

// ConfigurationError reports an unsupported distribution type, statistical
// test or comparable engine-level misconfiguration.
type ConfigurationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}
