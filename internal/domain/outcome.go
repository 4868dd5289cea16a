package domain

import "net/http"

// Status codes that do not come from the remote endpoint.
const (
	// StatusNoContentSent marks a flush that produced nothing to send,
	// e.g. when the only candidate record was dropped for its size.
	StatusNoContentSent = 0

	// StatusNetworkError marks a send that never received a response.
	StatusNetworkError = -1
)

// Outcome is the terminal result of one send attempt.
type Outcome struct {
	StatusCode int
	Err        error
}

// NoContent returns the outcome of a flush that sent nothing.
func NoContent() Outcome {
	return Outcome{StatusCode: StatusNoContentSent}
}

// Failure returns a failed outcome with no HTTP status.
func Failure(err error) Outcome {
	return Outcome{StatusCode: StatusNetworkError, Err: err}
}

// Success reports whether the attempt counts as delivered.
func (o Outcome) Success() bool {
	if o.Err != nil {
		return false
	}
	return o.StatusCode == StatusNoContentSent ||
		(o.StatusCode >= http.StatusOK && o.StatusCode < http.StatusMultipleChoices)
}
