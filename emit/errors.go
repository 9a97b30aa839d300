// Package emit implements the Frame Packer (C6) and the Emitter (C7):
// the per-flush pipeline that turns queued fragment references into
// wire frames under a byte budget and a frame window.
package emit

import "errors"

// ErrSizeLimited is returned internally when the current flush's byte
// budget cannot accommodate another datagram or frame. The in-progress
// frame, if any, has already been flushed by the time this is returned.
var ErrSizeLimited = errors.New("emit: byte budget exhausted for this flush")

// ErrWindowLimited is returned internally when the Frame Queue cannot
// accept another outstanding frame.
var ErrWindowLimited = errors.New("emit: frame window full")
