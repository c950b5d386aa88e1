package store

import "errors"

// ErrNotFound is returned when a row does not exist or is owned by another
// user. Routing layers map it to a 404.
var ErrNotFound = errors.New("not found")
