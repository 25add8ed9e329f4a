package webrag

import (
	"errors"
	"fmt"
)

// Application error codes.
//
// The generic codes map application failures into broad categories that
// interface layers can translate (e.g., to HTTP status codes or exit codes).
// The pipeline codes identify which stage of ingestion or retrieval failed.
const (
	ECONFLICT = "conflict"
	EINTERNAL = "internal"
	EINVALID  = "invalid"
	ENOTFOUND = "not_found"

	EFETCH     = "fetch_error"
	EEXTRACT   = "extraction_error"
	EEMBED     = "embedding_error"
	ESTORE     = "vector_store_error"
	ERETRIEVAL = "retrieval_error"
	EANSWER    = "answer_error"
)

// Error represents an application-specific error. Application errors carry a
// machine-readable code and a human-readable message safe to show to users.
//
// Any non-application error (such as a driver or network error) should be
// reported with an EINTERNAL code so internal details are never surfaced
// directly.
type Error struct {
	// Machine-readable error code.
	Code string

	// Human-readable error message.
	Message string
}

// Error implements the error interface. Not used by the application
// otherwise.
func (e *Error) Error() string {
	return fmt.Sprintf("webrag error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
