// Package testing provides a reusable conformance test suite for
// RoutingStore implementations. Each backend package runs the same
// suite against its own factory, so both backends are held to
// identical routing semantics.
package testing
