package serializer

import (
	"errors"

	"github.com/devinalvaro/conver/lib/chat"
)

// errUnknownMessageType is returned when an envelope carries no valid
// message type. Self-describing codecs (json, gob) would otherwise
// happily round-trip the zero value.
var errUnknownMessageType = errors.New("unknown message type")

// Serializer is the interface for all protocol codecs. A Serializer
// must round-trip every value exactly: Deserialize(Serialize(v)) == v.
//
// Message is the client-to-server envelope, Chat is the only value the
// server pushes to clients, and User is the bare handshake identity.
// Chat and User are also the value formats of the Redis backend.
type Serializer interface {
	// SerializeMessage serializes a Message envelope.
	SerializeMessage(msg chat.Message) ([]byte, error)
	// DeserializeMessage deserializes into a Message envelope. Trailing
	// zero padding after the encoded value is ignored.
	DeserializeMessage(b []byte, msg *chat.Message) error

	// SerializeChat serializes a bare Chat.
	SerializeChat(c chat.Chat) ([]byte, error)
	// DeserializeChat deserializes into a bare Chat.
	DeserializeChat(b []byte, c *chat.Chat) error

	// SerializeUser serializes a bare User identity.
	SerializeUser(u chat.User) ([]byte, error)
	// DeserializeUser deserializes into a bare User identity.
	DeserializeUser(b []byte, u *chat.User) error
}
