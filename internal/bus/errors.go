package bus

import "errors"

// ErrClosed is returned after Close.
var ErrClosed = errors.New("bus closed")
