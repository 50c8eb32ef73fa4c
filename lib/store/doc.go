// Package store defines the RoutingStore abstraction that owns all
// mutable chat-routing state: the group membership table and the
// per-user pending-chat queues.
//
// Two interchangeable backends implement the interface: memory (in
// process, volatile) and redis (external key/queue service). Every
// connection handler of a server shares the single store instance
// chosen at startup; nothing outside the store packages touches the
// tables directly.
package store
