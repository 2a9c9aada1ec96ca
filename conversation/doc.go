// Package conversation keeps short in-flight conversation transcripts so
// backends receive a little recent context with each dispatch. The store
// is volatile and pruned; it is coordination state, not persistence.
package conversation
