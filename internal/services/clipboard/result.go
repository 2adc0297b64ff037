package clipboard

const (
	// ReasonNotSupported is reported when no copy mechanism could run.
	ReasonNotSupported = "Copy not supported"
	// ReasonFailed is reported when the legacy command ran but did not copy.
	ReasonFailed = "Copy failed"

	// MechanismNone is recorded on results produced without any mechanism succeeding.
	MechanismNone = "none"
)

// Request describes a single copy action. TargetID names the status region; ButtonID names the
// triggering button, whose ButtonLabel is restored after a success message.
type Request struct {
	Text        string `json:"text"`
	TargetID    string `json:"target,omitempty"`
	ButtonID    string `json:"button,omitempty"`
	ButtonLabel string `json:"button_label,omitempty"`
}

// Outcome enumerates copy outcomes.
type Outcome int

const (
	// OutcomeSuccess indicates the text reached the clipboard.
	OutcomeSuccess Outcome = iota
	// OutcomeFailure indicates every mechanism failed.
	OutcomeFailure
)

func (outcome Outcome) String() string {
	switch outcome {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Result is the outcome of a copy request.
type Result struct {
	Outcome   Outcome
	Reason    string
	Mechanism string
	Err       error
}

// Succeeded reports whether the copy reached the clipboard.
func (result Result) Succeeded() bool {
	return result.Outcome == OutcomeSuccess
}

func successResult(mechanism string) Result {
	return Result{Outcome: OutcomeSuccess, Mechanism: mechanism}
}

func failureResult(mechanism string, reason string, err error) Result {
	return Result{Outcome: OutcomeFailure, Mechanism: mechanism, Reason: reason, Err: err}
}
