package store

import (
	"context"
	"fmt"

	"github.com/devinalvaro/conver/lib/chat"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// RoutingStore is the generic interface for chat routing state. All
// methods are safe for concurrent invocation from many connection
// handlers.
//
// Write operations return only an error (nil on success), read
// operations return the requested data along with an error. Backend
// transport failures surface as a *Error with RetCInternalError; the
// in-memory backend never fails.
type RoutingStore interface {
	// FirstPendingChat returns the head of the user's pending queue
	// without removing it. A nil chat with a nil error means the queue
	// is empty.
	FirstPendingChat(ctx context.Context, user chat.User) (*chat.Chat, error)
	// DequeueFirstPendingChat removes the head of the user's pending
	// queue. Removing from an empty queue is a no-op.
	DequeueFirstPendingChat(ctx context.Context, user chat.User) error
	// QueueChatForUser appends the chat to the user's pending queue and
	// raises the user's Watch signal.
	QueueChatForUser(ctx context.Context, user chat.User, c chat.Chat) error
	// FanOutGroupChat appends the chat to the pending queue of every
	// group member except the chat's own sender. An unknown or empty
	// group is a no-op, not an error.
	FanOutGroupChat(ctx context.Context, group chat.Group, c chat.Chat) error
	// AddGroupMember adds the user to the group, creating the group
	// entry if absent. Idempotent.
	AddGroupMember(ctx context.Context, user chat.User, group chat.Group) error
	// RemoveGroupMember removes the user from the group. Removing a
	// non-member is a no-op. Idempotent.
	RemoveGroupMember(ctx context.Context, user chat.User, group chat.Group) error

	// Watch returns a channel that receives a signal whenever a chat is
	// queued for the user. The signal is a wakeup hint, not a delivery
	// guarantee: it may be coalesced, and writers must still drain the
	// queue via FirstPendingChat. The channel is valid until ctx is
	// canceled.
	Watch(ctx context.Context, user chat.User) <-chan struct{}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type
// RetCode) and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := "Unknown"
	switch e.Code {
	case RetCInternalError:
		errorCode = "InternalError"
	case RetCInvalidOperation:
		errorCode = "InvalidOperation"
	}

	return fmt.Sprintf("RoutingStoreError (code %s): %s", errorCode, e.Msg)
}

// NewError creates a new store Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess          RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                   // 1: Operation failed due to a backend error.
	RetCInvalidOperation                // 2: Invalid operation.
)
