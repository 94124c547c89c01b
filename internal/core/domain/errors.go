package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates the configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedType indicates no normaliser handles a document.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrNoJobs indicates a run was requested with no harvest jobs.
	ErrNoJobs = errors.New("no harvest jobs configured")

	// ErrDisallowed indicates a URL outside the allow-list.
	ErrDisallowed = errors.New("disallowed domain")

	// ErrJobTimeout indicates a job exceeded its wall-clock budget.
	ErrJobTimeout = errors.New("job timeout")

	// ErrContentTooLarge indicates a body exceeded the byte ceiling.
	ErrContentTooLarge = errors.New("content too large")

	// ErrConnectorClosed indicates the connector has been closed.
	ErrConnectorClosed = errors.New("connector closed")
)

// FetchErrorKind classifies a fetch failure.
type FetchErrorKind string

const (
	// FetchNetwork covers transport failures, non-2xx statuses and oversize bodies.
	FetchNetwork FetchErrorKind = "network"

	// FetchDisallowed means the URL is outside the allow-list.
	FetchDisallowed FetchErrorKind = "disallowed-domain"

	// FetchNotFound means the origin reported the document missing.
	FetchNotFound FetchErrorKind = "not-found"
)

// FetchError is a per-document acquisition failure. It never fails a job.
type FetchError struct {
	Kind FetchErrorKind
	URL  string
	Err  error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s (%s): %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s (%s)", e.URL, e.Kind)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) and errors.Is(err, ErrDisallowed)
// match the corresponding fetch kinds.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == FetchNotFound
	case ErrDisallowed:
		return e.Kind == FetchDisallowed
	}
	return false
}

// ParseError is a malformed-document failure. The document is skipped.
type ParseError struct {
	URL string
	// Page is the failing page, 0 when the whole document failed.
	Page int
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("parse %s page %d: %v", e.URL, e.Page, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// JobTimeoutError reports a job that ran past its budget.
type JobTimeoutError struct {
	Job    string
	Budget time.Duration
}

// Error implements the error interface.
func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("job %s exceeded %s", e.Job, e.Budget)
}

// Is matches ErrJobTimeout.
func (e *JobTimeoutError) Is(target error) bool {
	return target == ErrJobTimeout
}

// MergeError is the only fatal pipeline failure: the combined corpus
// could not be written.
type MergeError struct {
	// Succeeded lists jobs whose outputs were ready to merge.
	Succeeded []string
	Err       error
}

// Error implements the error interface.
func (e *MergeError) Error() string {
	jobs := append([]string(nil), e.Succeeded...)
	sort.Strings(jobs)
	return fmt.Sprintf("merge failed (succeeded jobs: %s): %v", strings.Join(jobs, ", "), e.Err)
}

// Unwrap returns the underlying cause.
func (e *MergeError) Unwrap() error {
	return e.Err
}

// FetchKindOf extracts the fetch error kind from err, if any.
func FetchKindOf(err error) (FetchErrorKind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}
