// Package errors classifies summarization failures.
//
// Every failure of a summarization job falls into one of three categories:
//
//   - input: nothing usable was given (no files, unreadable transcripts, no content)
//   - transport: the gateway could not be reached or answered with a non-success status
//   - service: the gateway answered but reported an error or produced no text
//
// Usage:
//
//	import narrerr "github.com/nguyentantai21042004/session-narrator/pkg/errors"
//
//	if narrerr.IsTransport(err) {
//	    // gateway is down
//	}
package errors

import (
	"errors"
	"fmt"
)

// Category is the coarse class of a job failure.
type Category string

const (
	CategoryInput     Category = "input"
	CategoryTransport Category = "transport"
	CategoryService   Category = "service"
)

// Category sentinels. A *JobError matches the sentinel of its category with errors.Is.
var (
	// ErrInput indicates missing or unusable transcript input.
	ErrInput = errors.New("input error")

	// ErrTransport indicates the gateway was unreachable or returned a non-success status.
	ErrTransport = errors.New("network error")

	// ErrService indicates the gateway responded but failed to generate text.
	ErrService = errors.New("service error")
)

// Input-error messages surfaced to callers.
const (
	MsgNoFiles         = "no files provided"
	MsgUnreadableFiles = "cannot read transcript files"
	MsgNoContent       = "no content found"
	MsgEmptyResponse   = "empty response from gateway"
)

// JobError is a categorized, human-readable job failure.
type JobError struct {
	Category Category
	Stage    string
	Message  string
	Cause    error
}

func (e *JobError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		if msg == "" {
			msg = e.Cause.Error()
		} else {
			msg = fmt.Sprintf("%s: %v", msg, e.Cause)
		}
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s", e.Stage, msg)
	}
	return msg
}

func (e *JobError) Unwrap() error {
	return e.Cause
}

// Is matches the category sentinel.
func (e *JobError) Is(target error) bool {
	switch target {
	case ErrInput:
		return e.Category == CategoryInput
	case ErrTransport:
		return e.Category == CategoryTransport
	case ErrService:
		return e.Category == CategoryService
	}
	return false
}

// Input returns an input error for stage.
func Input(stage, message string) *JobError {
	return &JobError{Category: CategoryInput, Stage: stage, Message: message}
}

// Transport returns a transport error wrapping cause.
func Transport(stage string, cause error) *JobError {
	return &JobError{Category: CategoryTransport, Stage: stage, Message: ErrTransport.Error(), Cause: cause}
}

// Service returns a service error. cause may be nil.
func Service(stage, message string, cause error) *JobError {
	return &JobError{Category: CategoryService, Stage: stage, Message: message, Cause: cause}
}

// IsInput reports whether any error in err's chain is an input error.
func IsInput(err error) bool {
	return errors.Is(err, ErrInput)
}

// IsTransport reports whether any error in err's chain is a transport error.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsService reports whether any error in err's chain is a service error.
func IsService(err error) bool {
	return errors.Is(err, ErrService)
}

// CategoryOf returns the category of the first *JobError in err's chain, or "".
func CategoryOf(err error) Category {
	var je *JobError
	if errors.As(err, &je) {
		return je.Category
	}
	return ""
}
