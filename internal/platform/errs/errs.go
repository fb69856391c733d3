package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes analysis failures by where they happened.
type Kind int

const (
	// Validation indicates the input was rejected locally, before any request (status 400).
	Validation Kind = iota
	// Server indicates the scoring service answered with a non-2xx status.
	Server
	// Transport indicates no usable response was received.
	Transport
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Server:
		return "server"
	case Transport:
		return "transport"
	}
	return "unknown"
}

// ConnectMessage is shown for every transport failure; the cause is only logged.
const ConnectMessage = "Failed to connect to the server. Please check that the analysis service is running and try again."

// AnalysisError carries a category, user message, status code, and original cause.
type AnalysisError struct {
	Kind       Kind
	StatusCode int // HTTP status, 400 for validation, 0 for transport failures
	Message    string
	Cause      error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// Invalid returns a validation error with status 400.
func Invalid(message string) *AnalysisError {
	return &AnalysisError{Kind: Validation, StatusCode: http.StatusBadRequest, Message: message}
}

// FromServer returns the error for a non-2xx response. An empty detail falls
// back to "Server error: <status>".
func FromServer(status int, detail string) *AnalysisError {
	if detail == "" {
		detail = fmt.Sprintf("Server error: %d", status)
	}
	return &AnalysisError{Kind: Server, StatusCode: status, Message: detail}
}

// Wrap turns err into a transport AnalysisError. An error that already is an
// AnalysisError is returned unchanged.
func Wrap(err error) *AnalysisError {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae
	}
	return &AnalysisError{Kind: Transport, Message: ConnectMessage, Cause: err}
}

// UserMessage returns the text to show for err. Non-analysis errors get the
// generic connectivity message.
func UserMessage(err error) string {
	var ae *AnalysisError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return ConnectMessage
}
