package domain

import "errors"

// ErrStoreUnavailable marks store failures that affect every write, such as a lost
// connection. A write rejected for one article does not wrap it.
var ErrStoreUnavailable = errors.New("store unavailable")
