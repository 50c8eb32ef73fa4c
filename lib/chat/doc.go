// Package chat defines the domain model of the conver protocol: the
// identity types (User, Group), the People addressing union, the
// Chat/Join/Leave commands and the Message envelope that is framed on
// the wire.
//
// All types are immutable value types. Users and Groups compare by
// name, so they can be used directly as map keys; the authoritative
// mutable state (group membership, pending queues) lives exclusively
// in the store package's RoutingStore implementations.
package chat
