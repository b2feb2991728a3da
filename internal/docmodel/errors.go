package docmodel

import "errors"

var (
	// ErrPageNotFound is returned when a page path does not exist in a
	// loaded package. It is distinct from the package itself being unknown.
	ErrPageNotFound = errors.New("page not found")

	// ErrMalformedModel is returned when the item tree breaks the
	// canonical reference invariants.
	ErrMalformedModel = errors.New("malformed doc model")
)
