// Package core contains the shared domain types of swarmgate: agents and
// their capabilities, performance statistics, dispatch requests and
// outcomes, and the error taxonomy used across the dispatch and streaming
// paths.
//
// The package has no dependencies on other swarmgate packages so that
// every component (registry, selector, dispatch, stream, gateway) can
// exchange values through it without import cycles.
package core
