// Package memory implements the RoutingStore interface in process.
//
// State is volatile: membership and queues live exactly as
// long as the process. Tables are concurrent maps keyed by user or
// group name; each queue and each member set carries its own mutex, so
// routing for unrelated users never contends. No lock is ever held
// across network I/O.
//
// Known race, inherited from the protocol: a Leave arriving
// concurrently with a Chat fan-out to the same group may or may not
// exclude the leaving member, depending on which table access wins.
// The store serializes table accesses, nothing more.
package memory
