// Package dispatch implements the coordinator that turns one inbound
// message into per-agent backend invocations.
//
// Target resolution runs in three stages: explicit target ids (unknown
// ids silently dropped), then @-mentions, then the scoring selector.
// Resolved targets are invoked concurrently; the returned outcomes are
// ordered like the resolved target list and one agent's failure never
// suppresses its siblings' results.
package dispatch
