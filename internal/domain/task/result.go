package task

import "fmt"

// Status classifies a Result for the transport edge.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"    // handled operational failure
	StatusRejected  Status = "rejected"  // validation or policy refusal
	StatusUnhandled Status = "unhandled" // no route matched
	StatusError     Status = "error"     // unexpected failure
)

// Fixed messages shared by the engine, the handlers and the transports.
const (
	MessageUnknownTask     = "Unknown task"
	MessageParseFailure    = "Error: Unable to parse task description."
	MessageDeleteForbidden = "Error: Data deletion is not allowed."
	MessageInternalError   = "Internal Server Error"
)

// Result is the outcome of one task.
type Result struct {
	Message string `json:"message"`
	Status  Status `json:"status"`
	Route   string `json:"route,omitempty"`
}

// Succeeded returns a success result.
func Succeeded(msg string) Result {
	return Result{Message: msg, Status: StatusSucceeded}
}

// Failed returns a handled failure. The message is prefixed with "Error: ".
func Failed(format string, args ...any) Result {
	return Result{Message: "Error: " + fmt.Sprintf(format, args...), Status: StatusFailed}
}

// Failure returns a handled failure carrying msg verbatim.
func Failure(msg string) Result {
	return Result{Message: msg, Status: StatusFailed}
}

// Rejected returns a validation failure carrying msg verbatim.
func Rejected(msg string) Result {
	return Result{Message: msg, Status: StatusRejected}
}

// Unhandled returns the unknown-task sentinel.
func Unhandled() Result {
	return Result{Message: MessageUnknownTask, Status: StatusUnhandled}
}

// Errored returns an unexpected-failure result. The detail is kept for logs;
// transports show only MessageInternalError.
func Errored(detail string) Result {
	return Result{Message: detail, Status: StatusError}
}

// IsValidation reports whether the result is a validation failure.
func (r Result) IsValidation() bool {
	return r.Status == StatusRejected
}

// IsUnexpected reports whether the result is an unexpected failure.
func (r Result) IsUnexpected() bool {
	return r.Status == StatusError
}
