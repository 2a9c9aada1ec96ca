// Package registry implements the in-memory agent registry: registration
// in insertion order, atomic status and performance updates, and busy
// reference counting so overlapping dispatches against the same agent
// keep it busy until the last one finishes.
//
// The registry is the single writer of agent state. Reads hand out deep
// copies, so callers can never mutate registry state through a snapshot.
package registry
