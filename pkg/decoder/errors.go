package decoder

import "errors"

// ErrSessionFailed is returned by Feed after a previous call reported a
// decode failure or protocol violation; the session accepts no more input.
var ErrSessionFailed = errors.New("session already failed")
