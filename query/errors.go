package query

import "errors"

var (
	// ErrSyntax is returned for malformed query text
	ErrSyntax = errors.New("syntax error")

	// ErrColumnNotFound is returned when a query references a column its
	// source does not have
	ErrColumnNotFound = errors.New("column not found")

	// ErrConversion is returned when a value cannot be cast to the target type
	ErrConversion = errors.New("conversion error")

	// ErrUnknownFunction is returned for calls to unregistered functions
	ErrUnknownFunction = errors.New("unknown function")

	// ErrGrouping is returned when a column in an aggregate query is neither
	// grouped nor aggregated
	ErrGrouping = errors.New("column must appear in the GROUP BY clause or be used in an aggregate function")
)
