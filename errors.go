package nutriroutine

import "errors"

var (
	// ErrParse marks user input that could not be read as a date, quantity or unit.
	ErrParse = errors.New("unparseable input")

	// ErrValidation marks well-formed input outside the accepted set.
	ErrValidation = errors.New("invalid input")

	// ErrCatalogUnavailable marks a failed catalog read.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrGenerationUnavailable marks a generative backend that failed, timed out or
	// produced a routine that could not be used.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrPersistence marks a failed catalog write.
	ErrPersistence = errors.New("persistence failed")

	ErrNotFound = errors.New("not found")
)
