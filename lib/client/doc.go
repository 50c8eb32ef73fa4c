// Package client implements the thin client side of the conver
// protocol: dial, declare an identity, send Message envelopes and
// receive the Chat stream. It also provides the line parser used by
// the interactive console command.
package client
