package serializer

import (
	"bytes"
	"encoding/json"

	"github.com/devinalvaro/conver/lib/chat"
)

// NewJSONSerializer creates a new serializer using json encoding.
func NewJSONSerializer() Serializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the Serializer interface using json
// encoding. Frames are zero-padded on the wire and JSON never contains
// raw NUL bytes, so the padding is trimmed before unmarshalling.
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.Serializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) SerializeMessage(msg chat.Message) ([]byte, error) {
	if msg.MsgType == chat.MsgTUnknown {
		return nil, errUnknownMessageType
	}
	return json.Marshal(msg)
}

func (j jsonSerializerImpl) DeserializeMessage(b []byte, msg *chat.Message) error {
	if err := json.Unmarshal(trimPadding(b), msg); err != nil {
		return err
	}
	if msg.MsgType == chat.MsgTUnknown {
		return errUnknownMessageType
	}
	return nil
}

func (j jsonSerializerImpl) SerializeChat(c chat.Chat) ([]byte, error) {
	return json.Marshal(c)
}

func (j jsonSerializerImpl) DeserializeChat(b []byte, c *chat.Chat) error {
	return json.Unmarshal(trimPadding(b), c)
}

func (j jsonSerializerImpl) SerializeUser(u chat.User) ([]byte, error) {
	return json.Marshal(u)
}

func (j jsonSerializerImpl) DeserializeUser(b []byte, u *chat.User) error {
	return json.Unmarshal(trimPadding(b), u)
}

// trimPadding strips the trailing frame padding.
func trimPadding(b []byte) []byte {
	return bytes.TrimRight(b, "\x00")
}
