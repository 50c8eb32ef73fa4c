package serializer

import (
	"bytes"
	"encoding/gob"

	"github.com/devinalvaro/conver/lib/chat"
)

// NewGOBSerializer creates a new serializer using Go's binary gob format.
func NewGOBSerializer() Serializer {
	return &gobSerializerImpl{}
}

// gobSerializerImpl implements the Serializer interface using gob
// encoding. The gob decoder consumes exactly one value from its input,
// so trailing frame padding needs no special handling.
type gobSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.Serializer)
// --------------------------------------------------------------------------

func (g gobSerializerImpl) SerializeMessage(msg chat.Message) ([]byte, error) {
	if msg.MsgType == chat.MsgTUnknown {
		return nil, errUnknownMessageType
	}
	return gobEncode(msg)
}

func (g gobSerializerImpl) DeserializeMessage(b []byte, msg *chat.Message) error {
	if err := gobDecode(b, msg); err != nil {
		return err
	}
	if msg.MsgType == chat.MsgTUnknown {
		return errUnknownMessageType
	}
	return nil
}

func (g gobSerializerImpl) SerializeChat(c chat.Chat) ([]byte, error) {
	return gobEncode(c)
}

func (g gobSerializerImpl) DeserializeChat(b []byte, c *chat.Chat) error {
	return gobDecode(b, c)
}

func (g gobSerializerImpl) SerializeUser(u chat.User) ([]byte, error) {
	return gobEncode(u)
}

func (g gobSerializerImpl) DeserializeUser(b []byte, u *chat.User) error {
	return gobDecode(b, u)
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(b []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(v)
}
