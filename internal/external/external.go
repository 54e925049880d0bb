// Package external binds optional native address libraries.
package external

import "errors"

// ErrUnavailable is returned when the binary was built without libpostal.
var ErrUnavailable = errors.New("libpostal not compiled in (build with CGO_ENABLED=1)")
