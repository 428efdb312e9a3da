package wizard

import (
	"fmt"
	"strings"
)

type ErrorReason string

const (
	REASON_NOT_ON_LAST_STEP   ErrorReason = "NOT_ON_LAST_STEP"
	REASON_STEP_INCOMPLETE    ErrorReason = "STEP_INCOMPLETE"
	REASON_ALREADY_SUBMITTED  ErrorReason = "ALREADY_SUBMITTED"
	REASON_UPLOAD_FAILED      ErrorReason = "UPLOAD_FAILED"
	REASON_SUBMISSION_FAILED  ErrorReason = "SUBMISSION_FAILED"
	REASON_SUBMISSION_INVALID ErrorReason = "SUBMISSION_INVALID"
)

type Error struct {
	Reason  ErrorReason
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s. Cause: %s", e.Reason, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newWizardError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewNotOnLastStepError(current, last Step) *Error {
	return newWizardError(REASON_NOT_ON_LAST_STEP, fmt.Sprintf("Can only submit from step %d, currently on step %d", last, current), nil)
}

func NewStepIncompleteError(step Step) *Error {
	return newWizardError(REASON_STEP_INCOMPLETE, fmt.Sprintf("Step %d is not complete", step), nil)
}

func NewAlreadySubmittedError() *Error {
	return newWizardError(REASON_ALREADY_SUBMITTED, "Registration was already submitted", nil)
}

func NewUploadFailedError(fileName string, cause error) *Error {
	return newWizardError(REASON_UPLOAD_FAILED, fmt.Sprintf("Failed to upload %q", fileName), cause)
}

func NewSubmissionFailedError(cause error) *Error {
	return newWizardError(REASON_SUBMISSION_FAILED, "Failed to hand off registration", cause)
}

func NewSubmissionInvalidError(cause *SubmissionError) *Error {
	return newWizardError(REASON_SUBMISSION_INVALID, "Registration was rejected", cause)
}

// SubmissionError is returned by a Submitter that rejected the payload. It
// carries one message per violated rule.
type SubmissionError struct {
	Messages []string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission rejected: %s", strings.Join(e.Messages, "; "))
}
