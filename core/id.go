package core

import "github.com/google/uuid"

// NewID generates a unique identifier for sessions, connections and
// invocations.
func NewID() string {
	return uuid.New().String()
}
