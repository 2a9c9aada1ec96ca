// Package stream manages chunked streaming sessions: one backend call
// whose output is relayed chunk by chunk to the owning client through an
// EventSink.
//
// Cancellation is cooperative. Stop flips the session's active flag; the
// relay goroutine checks the flag before every chunk pull, so an
// in-flight pull is allowed to finish but nothing is emitted after the
// terminal event. Sessions are removed on any terminal transition and a
// second Stop is a no-op.
package stream
