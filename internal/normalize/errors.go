package normalize

import "errors"

// ErrMalformedInput marks one intermediate record that cannot be
// canonicalized. Callers skip and count these; they never abort a batch.
var ErrMalformedInput = errors.New("malformed input")
