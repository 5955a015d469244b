package apikey

import "errors"

// ErrUnauthenticated indicates a missing, malformed, or unknown API key.
// Checked before any authorization logic runs.
var ErrUnauthenticated = errors.New("unauthenticated")
