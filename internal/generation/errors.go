package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorClass groups provider failures by what they say about the candidate.
// The gateway falls through on every class; the class is kept for logs.
type ErrorClass string

const (
	ClassModelNotFound ErrorClass = "model_not_found"
	ClassQuotaOrAuth   ErrorClass = "quota_or_auth"
	ClassTransient     ErrorClass = "transient"
	ClassBadResponse   ErrorClass = "bad_response"
)

var (
	ErrNotConfigured   = errors.New("api key not configured")
	ErrEmptyCompletion = errors.New("empty completion")
	ErrBadResponse     = errors.New("malformed provider response")
)

// StatusError is a non-2xx answer from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Attempt records one failed candidate call.
type Attempt struct {
	Candidate string
	Class     ErrorClass
	Err       error
}

// GenerationError is returned when every candidate failed.
type GenerationError struct {
	Attempts []Attempt
}

func (e *GenerationError) Error() string {
	if len(e.Attempts) == 0 {
		return "generation: no candidates configured"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s (%s): %v", a.Candidate, a.Class, a.Err)
	}
	return "generation: all candidates failed: " + strings.Join(parts, "; ")
}

func (e *GenerationError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}

// Classify maps a candidate failure onto an ErrorClass.
func Classify(err error) ErrorClass {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return ClassQuotaOrAuth
	case errors.Is(err, ErrEmptyCompletion), errors.Is(err, ErrBadResponse):
		return ClassBadResponse
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ClassTransient
	}

	var se *StatusError
	if errors.As(err, &se) {
		return classifyStatus(se.StatusCode, se.Body)
	}
	// Network failures and anything unrecognised.
	return ClassTransient
}

func classifyStatus(code int, body string) ErrorClass {
	switch {
	case code == 404:
		return ClassModelNotFound
	case code == 400 && mentionsUnknownModel(body):
		return ClassModelNotFound
	case code == 401, code == 402, code == 403, code == 429:
		return ClassQuotaOrAuth
	case code == 408, code >= 500:
		return ClassTransient
	}
	return ClassBadResponse
}

func mentionsUnknownModel(body string) bool {
	b := strings.ToLower(body)
	if !strings.Contains(b, "model") {
		return false
	}
	for _, s := range []string{"not found", "not supported", "does not exist", "unsupported", "invalid model"} {
		if strings.Contains(b, s) {
			return true
		}
	}
	return false
}
