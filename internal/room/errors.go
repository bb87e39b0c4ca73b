package room

import "errors"

// ErrValidation marks client mistakes (bad room id, missing or oversized
// fields). Handlers map it to HTTP 400; everything else is a 500.
var ErrValidation = errors.New("invalid request")
