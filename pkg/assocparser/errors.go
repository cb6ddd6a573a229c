package assocparser

import "errors"

// Structural errors. Either one aborts the parse of the current file; every
// other problem is recorded in the report and parsing continues.
var (
	// ErrMissingVersionDeclaration is returned when a data line is reached
	// before any supported "!<format>-version:" header.
	ErrMissingVersionDeclaration = errors.New("missing version declaration")

	// ErrSchemaMismatch is returned when a field vector cannot belong to the
	// declared format version.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// Content errors returned by leaf decoders. They are reported, never fatal.
var (
	ErrMalformedExtension = errors.New("malformed extension unit")
	ErrMalformedProperty  = errors.New("malformed property")
	ErrEmptyElement       = errors.New("empty element")
)
