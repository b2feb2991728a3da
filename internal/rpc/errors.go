package rpc

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodePackageNotFound = "package_not_found"
	CodePageNotFound    = "page_not_found"
	CodeBadRequest      = "bad_request"
	CodeInternal        = "internal"
)

var (
	ErrPackageNotFound = errors.New("package not found")
	ErrPageNotFound    = errors.New("page not found")
	ErrBadRequest      = errors.New("bad request")
)

// Error is a daemon error decoded by the client. It unwraps to the sentinel
// matching its code.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("daemon returned %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	switch e.Code {
	case CodePackageNotFound:
		return ErrPackageNotFound
	case CodePageNotFound:
		return ErrPageNotFound
	case CodeBadRequest:
		return ErrBadRequest
	}
	return nil
}

// ParsePackagePath splits "<package>/<page path>" where the package may be
// scoped: a first segment starting with "@" takes the next segment with it.
// The page path is empty for the root page.
func ParsePackagePath(p string) (id, pagePath string, err error) {
	p = strings.TrimPrefix(p, "/")
	segments := strings.Split(p, "/")
	if segments[0] == "" {
		return "", "", fmt.Errorf("%w: missing package", ErrBadRequest)
	}
	n := 1
	if strings.HasPrefix(segments[0], "@") {
		if len(segments) < 2 || segments[1] == "" {
			return "", "", fmt.Errorf("%w: scoped package %q needs a name", ErrBadRequest, segments[0])
		}
		n = 2
	}
	return strings.Join(segments[:n], "/"), strings.Join(segments[n:], "/"), nil
}
