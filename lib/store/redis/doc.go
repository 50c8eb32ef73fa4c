// Package redis implements the RoutingStore interface against an
// external Redis instance, so pending queues and group membership
// survive server restarts and can be shared by several server
// processes.
//
// Layout: one list per user holding the pending chats
// (chats:<username>), one set per group holding the members
// (members:<groupname>), and one pub/sub channel per user
// (notify:<username>) published on every enqueue to wake that user's
// write loops. List and set values are encoded with the same
// serializer as the wire protocol, without the frame padding.
package redis
