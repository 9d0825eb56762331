package knowledge

import "errors"

// ErrInvalidArgument is returned for malformed input: an empty required
// string, an unknown retrieval mode, a weight outside [0, 1], or a
// self-merge with a single source.
var ErrInvalidArgument = errors.New("invalid argument")
