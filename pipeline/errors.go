package pipeline

import "fmt"

// OperationTimeoutError indicates a requested state change was not observed
// within the configured deadline.  It carries the last polled state and
// message for diagnostics; the remote transition may still complete later.
type OperationTimeoutError struct {
	Pipeline    string
	Target      string
	LastState   string
	LastMessage string
}

func (e *OperationTimeoutError) Error() string {
	msg := fmt.Sprintf("pipeline %s did not reach state %s before the deadline (last state %s",
		e.Pipeline, e.Target, e.LastState)
	if e.LastMessage != "" {
		msg += ", message: " + e.LastMessage
	}
	return msg + ")"
}

// RemoteOperationError indicates the platform reported that a requested state
// change failed.  Message is the platform's text, verbatim.
type RemoteOperationError struct {
	Pipeline string
	Target   string
	Message  string
}

func (e *RemoteOperationError) Error() string {
	return fmt.Sprintf("pipeline %s failed to reach state %s: %s", e.Pipeline, e.Target, e.Message)
}

// SubmissionError indicates a single document submission failed during a
// batch analysis call.
type SubmissionError struct {
	Source string
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("failed to analyse %s: %v", e.Source, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
