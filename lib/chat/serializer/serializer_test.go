package serializer

import (
	"reflect"
	"testing"

	"github.com/devinalvaro/conver/lib/chat"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() Serializer{
	"Binary": NewBinarySerializer,
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
}

// testMessages creates one envelope of every message type
func testMessages() []chat.Message {
	alice := chat.NewUser("alice")
	bob := chat.NewUser("bob")
	g1 := chat.NewGroup("g1")

	return []chat.Message{
		chat.NewChatMessage(chat.NewChat(alice, chat.UserReceiver(bob), "hi")),
		chat.NewChatMessage(chat.NewChat(alice, chat.GroupReceiver(g1), "hello group")),
		chat.NewChatMessage(chat.NewChat(alice, chat.UserReceiver(bob), "")),
		chat.NewJoinMessage(chat.NewJoin(bob, g1)),
		chat.NewLeaveMessage(chat.NewLeave(bob, g1)),
	}
}

// TestMessageRoundTrip tests that envelopes survive a serialize/deserialize
// cycle unchanged with every codec
func TestMessageRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()

			for i, msg := range messages {
				data, err := s.SerializeMessage(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				var result chat.Message
				if err := s.DeserializeMessage(data, &result); err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestFramePaddingIgnored tests that trailing zero padding, as added by
// the wire framing layer, does not change the decoded value
func TestFramePaddingIgnored(t *testing.T) {
	msg := chat.NewChatMessage(chat.NewChat(
		chat.NewUser("alice"), chat.UserReceiver(chat.NewUser("bob")), "hi"))

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()

			data, err := s.SerializeMessage(msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}
			padded := make([]byte, len(data)+512)
			copy(padded, data)

			var result chat.Message
			if err := s.DeserializeMessage(padded, &result); err != nil {
				t.Fatalf("Failed to deserialize padded frame: %v", err)
			}
			if !reflect.DeepEqual(msg, result) {
				t.Errorf("Padded frame decoded differently:\nOriginal: %+v\nResult: %+v", msg, result)
			}
		})
	}
}

// TestUserRoundTrip tests the bare handshake identity codec
func TestUserRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()

			user := chat.NewUser("carol")
			data, err := s.SerializeUser(user)
			if err != nil {
				t.Fatalf("Failed to serialize user: %v", err)
			}

			var result chat.User
			if err := s.DeserializeUser(data, &result); err != nil {
				t.Fatalf("Failed to deserialize user: %v", err)
			}
			if result != user {
				t.Errorf("User doesn't match after round trip: Expected %+v, got %+v", user, result)
			}
		})
	}
}

// TestChatRoundTrip tests the bare Chat codec used for server pushes and
// Redis values
func TestChatRoundTrip(t *testing.T) {
	chats := []chat.Chat{
		chat.NewChat(chat.NewUser("alice"), chat.UserReceiver(chat.NewUser("bob")), "hi"),
		chat.NewChat(chat.NewUser("bob"), chat.GroupReceiver(chat.NewGroup("g1")), "hello group"),
	}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()

			for i, c := range chats {
				data, err := s.SerializeChat(c)
				if err != nil {
					t.Errorf("Failed to serialize chat %d: %v", i, err)
					continue
				}

				var result chat.Chat
				if err := s.DeserializeChat(data, &result); err != nil {
					t.Errorf("Failed to deserialize chat %d: %v", i, err)
					continue
				}
				if !reflect.DeepEqual(c, result) {
					t.Errorf("Chat %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, c, result)
				}
			}
		})
	}
}

// TestDeserializeMalformed tests that corrupted input fails instead of
// producing a bogus value
func TestDeserializeMalformed(t *testing.T) {
	inputs := map[string][]byte{
		"empty":          {},
		"unknown type":   {0xff, 0, 0, 0, 1, 'a'},
		"truncated":      {byte(chat.MsgTChat), 0, 0, 0, 200, 'a'},
		"zero type":      {0},
		"padding only":   make([]byte, 64),
		"short length":   {byte(chat.MsgTJoin), 0, 0},
		"bad receiver":   {byte(chat.MsgTChat), 0, 0, 0, 1, 'a', 0x09},
		"garbage prefix": {0x7b, 0x22},
	}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()

			for inputName, b := range inputs {
				var msg chat.Message
				if err := s.DeserializeMessage(b, &msg); err == nil {
					t.Errorf("Expected error deserializing %s input, got message %+v", inputName, msg)
				}
			}
		})
	}
}

// TestSerializeUnknownType tests that an empty envelope cannot be encoded
func TestSerializeUnknownType(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			if _, err := factory().SerializeMessage(chat.Message{}); err == nil {
				t.Error("Expected error serializing an envelope without a message type")
			}
		})
	}
}
