package docs

import (
	"errors"
	"fmt"
)

var (
	// ErrPackageNotFound means the identifier names no package with a doc model.
	ErrPackageNotFound = errors.New("package not found")

	// ErrNoDocModel means package.json exists but declares no docModel.
	ErrNoDocModel = fmt.Errorf("%w: no docModel found in package.json", ErrPackageNotFound)
)
