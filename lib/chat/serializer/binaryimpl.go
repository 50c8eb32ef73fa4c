package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/devinalvaro/conver/lib/chat"
)

// NewBinarySerializer creates a new serializer using a custom binary
// format optimized for speed and compactness. This is the default
// codec of the conver protocol.
func NewBinarySerializer() Serializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements Serializer using a custom
// length-prefixed binary format. Strings are encoded as a big-endian
// uint32 length followed by the raw bytes; unions carry a single
// discriminant byte in front of their payload.
type binarySerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.Serializer)
// --------------------------------------------------------------------------

func (s binarySerializerImpl) SerializeMessage(msg chat.Message) ([]byte, error) {
	buf := make([]byte, 0, 64)
	buf = append(buf, byte(msg.MsgType))

	switch msg.MsgType {
	case chat.MsgTChat:
		return appendChat(buf, msg.Chat)
	case chat.MsgTJoin:
		buf = appendString(buf, msg.Join.Sender.Name)
		buf = appendString(buf, msg.Join.Group.Name)
		return buf, nil
	case chat.MsgTLeave:
		buf = appendString(buf, msg.Leave.Sender.Name)
		buf = appendString(buf, msg.Leave.Group.Name)
		return buf, nil
	default:
		return nil, fmt.Errorf("cannot serialize message type %d", msg.MsgType)
	}
}

func (s binarySerializerImpl) DeserializeMessage(b []byte, msg *chat.Message) error {
	if len(b) < 1 {
		return fmt.Errorf("data too short for message type")
	}
	*msg = chat.Message{MsgType: chat.MessageType(b[0])}
	pos := 1

	switch msg.MsgType {
	case chat.MsgTChat:
		_, err := readChat(b, pos, &msg.Chat)
		return err
	case chat.MsgTJoin:
		sender, pos, err := readString(b, pos, "sender")
		if err != nil {
			return err
		}
		group, _, err := readString(b, pos, "group")
		if err != nil {
			return err
		}
		msg.Join = chat.NewJoin(chat.NewUser(sender), chat.NewGroup(group))
		return nil
	case chat.MsgTLeave:
		sender, pos, err := readString(b, pos, "sender")
		if err != nil {
			return err
		}
		group, _, err := readString(b, pos, "group")
		if err != nil {
			return err
		}
		msg.Leave = chat.NewLeave(chat.NewUser(sender), chat.NewGroup(group))
		return nil
	default:
		return fmt.Errorf("unknown message type %d", b[0])
	}
}

func (s binarySerializerImpl) SerializeChat(c chat.Chat) ([]byte, error) {
	return appendChat(make([]byte, 0, 64), c)
}

func (s binarySerializerImpl) DeserializeChat(b []byte, c *chat.Chat) error {
	_, err := readChat(b, 0, c)
	return err
}

func (s binarySerializerImpl) SerializeUser(u chat.User) ([]byte, error) {
	return appendString(make([]byte, 0, 4+len(u.Name)), u.Name), nil
}

func (s binarySerializerImpl) DeserializeUser(b []byte, u *chat.User) error {
	name, _, err := readString(b, 0, "username")
	if err != nil {
		return err
	}
	*u = chat.NewUser(name)
	return nil
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// appendString appends a big-endian uint32 length prefix and the raw
// string bytes.
func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func appendChat(buf []byte, c chat.Chat) ([]byte, error) {
	buf = appendString(buf, c.Sender.Name)

	buf = append(buf, byte(c.Receiver.Kind))
	switch c.Receiver.Kind {
	case chat.PeopleUser:
		buf = appendString(buf, c.Receiver.User.Name)
	case chat.PeopleGroup:
		buf = appendString(buf, c.Receiver.Group.Name)
	default:
		return nil, fmt.Errorf("cannot serialize receiver kind %d", c.Receiver.Kind)
	}

	return appendString(buf, c.Body), nil
}

// readString reads a length-prefixed string starting at pos, returning
// the string and the position after it.
func readString(b []byte, pos int, field string) (string, int, error) {
	if pos+4 > len(b) {
		return "", 0, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(b[pos : pos+4]))
	pos += 4

	if n > len(b)-pos {
		return "", 0, fmt.Errorf("data too short for %s data", field)
	}
	return string(b[pos : pos+n]), pos + n, nil
}

func readChat(b []byte, pos int, c *chat.Chat) (int, error) {
	sender, pos, err := readString(b, pos, "sender")
	if err != nil {
		return 0, err
	}

	if pos+1 > len(b) {
		return 0, fmt.Errorf("data too short for receiver kind")
	}
	kind := chat.PeopleKind(b[pos])
	pos++

	var receiver chat.People
	switch kind {
	case chat.PeopleUser:
		var name string
		name, pos, err = readString(b, pos, "receiver username")
		if err != nil {
			return 0, err
		}
		receiver = chat.UserReceiver(chat.NewUser(name))
	case chat.PeopleGroup:
		var name string
		name, pos, err = readString(b, pos, "receiver groupname")
		if err != nil {
			return 0, err
		}
		receiver = chat.GroupReceiver(chat.NewGroup(name))
	default:
		return 0, fmt.Errorf("unknown receiver kind %d", kind)
	}

	body, pos, err := readString(b, pos, "body")
	if err != nil {
		return 0, err
	}

	*c = chat.NewChat(chat.NewUser(sender), receiver, body)
	return pos, nil
}
