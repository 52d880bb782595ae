// Package invocation defines the typed result every component handler
// returns instead of propagating errors to its caller.
package invocation

import (
	"errors"
	"net/http"
)

// ErrChannelNotConfigured is reported when no alert topic is configured.
// It is a configuration gap, not a processing failure.
var ErrChannelNotConfigured = errors.New("alert channel not configured")

// Status classifies an invocation outcome.
type Status string

const (
	StatusOK            Status = "ok"
	StatusNotConfigured Status = "not_configured"
	StatusFailed        Status = "failed"
)

// Result is the outcome of one handler invocation.
type Result struct {
	Status Status
	Body   any
	Err    error
}

// OK returns a successful result carrying body.
func OK(body any) Result {
	return Result{Status: StatusOK, Body: body}
}

// NotConfigured returns a result for an invocation that completed but skipped
// delivery because a required setting is missing.
func NotConfigured(body any, err error) Result {
	return Result{Status: StatusNotConfigured, Body: body, Err: err}
}

// Failed returns a processing error result.
func Failed(err error) Result {
	return Result{Status: StatusFailed, Err: err}
}

// Succeeded reports whether the invocation did not fail. Not-configured
// results count as success.
func (r Result) Succeeded() bool {
	return r.Status != StatusFailed
}

// StatusCode maps the result to an HTTP-style status code.
func (r Result) StatusCode() int {
	if r.Status == StatusFailed {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

// Payload returns the response body: the success body, or {"error": ...}
// for failures.
func (r Result) Payload() any {
	if r.Status == StatusFailed {
		msg := "unknown error"
		if r.Err != nil {
			msg = r.Err.Error()
		}
		return map[string]string{"error": msg}
	}
	return r.Body
}
