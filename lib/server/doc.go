// Package server implements the conver chat server: the TCP accept
// loop, the identity handshake and the per-connection message routing.
//
// Each accepted connection runs two loops that share only the declared
// identity and the server's single RoutingStore. The read loop decodes
// inbound Message frames and routes them into the store; the write
// loop drains the identity's pending queue back out, one frame per
// chat, removing a queue entry only after its frame has been written
// in full. Either loop ending closes the socket and stops its peer; no
// per-connection failure touches another connection or the shared
// store's consistency.
package server
