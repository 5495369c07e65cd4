package domain

// OutcomeStatus summarises a lifecycle call for the caller.
type OutcomeStatus string

const (
	// OutcomeOK means the primary write and every side effect succeeded.
	OutcomeOK OutcomeStatus = "ok"
	// OutcomePartialFailure means the primary write succeeded but at least one
	// best-effort side effect (audit, blob, counter) failed.
	OutcomePartialFailure OutcomeStatus = "partial_failure"
	// OutcomeFailed means the primary write failed.
	OutcomeFailed OutcomeStatus = "failed"
)

// SideEffectFailure names one best-effort step that failed.
type SideEffectFailure struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// Outcome collects side-effect failures for one lifecycle call.
// The zero value is an OK outcome.
type Outcome struct {
	Failures []SideEffectFailure
}

// Record appends a failure for step. A nil err is ignored.
func (o *Outcome) Record(step string, err error) {
	if err == nil {
		return
	}
	o.Failures = append(o.Failures, SideEffectFailure{Step: step, Message: err.Error()})
}

// Status reports OK or PartialFailure depending on recorded failures.
func (o Outcome) Status() OutcomeStatus {
	if len(o.Failures) > 0 {
		return OutcomePartialFailure
	}
	return OutcomeOK
}

// StatusOf combines the primary error with the outcome.
func StatusOf(o Outcome, err error) OutcomeStatus {
	if err != nil {
		return OutcomeFailed
	}
	return o.Status()
}
