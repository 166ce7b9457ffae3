package domain

import "errors"

// ErrNoData is returned when the cursor has caught up with the buffered frames.
// It is not a failure: callers should hold the last frame and wait for more data.
var ErrNoData = errors.New("no data buffered at cursor")

// ErrSessionClosed is returned by control operations issued after a session was torn down.
var ErrSessionClosed = errors.New("session closed")

// ErrSessionNotFound is returned when a session ID cannot be found in a manager.
var ErrSessionNotFound = errors.New("session not found")

// ErrMalformedChunk is returned when a producer response is not a sequence of frames.
var ErrMalformedChunk = errors.New("malformed chunk")

// ErrFrameRejected is returned when a frame does not match the session's entity set.
var ErrFrameRejected = errors.New("frame rejected")

// ErrInvalidConfig is returned when a session or player configuration cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrFetchInFlight is returned when a fetch is requested while another one is outstanding.
var ErrFetchInFlight = errors.New("fetch already in flight")
