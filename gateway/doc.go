// Package gateway is the real-time edge of swarmgate: a websocket hub
// tracking connections and rooms, typed event payloads, and the routing
// between inbound client events and the dispatch/streaming components.
//
// Delivery is scoped: dispatch responses, stream events and errors go
// only to the originating client; room broadcasts reach every member;
// agent status changes are broadcast to all clients. A disconnect stops
// every stream the client owns.
package gateway
