// Package pipelineerrors declares the sentinel error taxonomy absorbed
// at stage boundaries throughout the generation pipeline. Callers match
// against these with errors.Is; wrapped context is added with
// fmt.Errorf's %w verb.
package pipelineerrors

import "errors"

var (
	// ErrUpstreamTimeout means an external model or vector store exceeded
	// its configured per-call timeout.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrUpstreamUnavailable means a network or auth failure occurred
	// talking to an external call.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrParse means an external JSON response did not parse into the
	// expected shape.
	ErrParse = errors.New("parse error")

	// ErrValidation means caller-supplied input failed structural
	// validation. Surfaced at the transport boundary, never absorbed.
	ErrValidation = errors.New("validation error")

	// ErrIndexBuild means retrieval indexing failed at startup. Fatal:
	// the service must not accept requests until the index is rebuilt.
	ErrIndexBuild = errors.New("index build error")

	// ErrInternal marks a logic bug. Always fatal for the request.
	ErrInternal = errors.New("internal error")
)

// Code returns the stable taxonomy code for an error recorded in
// workflow_info.errors, defaulting to "internal_error" for unrecognized
// causes so every absorbed failure still gets a code.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUpstreamTimeout):
		return "upstream_timeout"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, ErrParse):
		return "parse_error"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrIndexBuild):
		return "index_build_error"
	default:
		return "internal_error"
	}
}
