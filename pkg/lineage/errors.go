package lineage

import "errors"

// ErrInvalidRoot is returned when a build is started without a statement.
var ErrInvalidRoot = errors.New("lineage: root is not a statement")
