// Package netclass maps low-level network failures into a closed set of
// error kinds by substring inspection of the error text.
package netclass

import "strings"

// Kind is one of the closed set of network error categories.
type Kind string

const (
	Timeout         Kind = "Timeout"
	DNSFailure      Kind = "DNSFailure"
	ConnectionError Kind = "ConnectionError"
	UnknownError    Kind = "UnknownError"
)

// Kinds lists all categories in classification priority order.
var Kinds = []Kind{Timeout, DNSFailure, ConnectionError, UnknownError}

// Classify returns exactly one Kind for err. Checks run in priority order:
// timeout before DNS before generic connection, falling back to UnknownError.
// Total over all inputs, including nil.
func Classify(err error) Kind {
	if err == nil {
		return UnknownError
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return Timeout
	case strings.Contains(msg, "dns") || strings.Contains(msg, "name resolution") || strings.Contains(msg, "no such host"):
		return DNSFailure
	case strings.Contains(msg, "connection"):
		return ConnectionError
	default:
		return UnknownError
	}
}
