package client

import (
	"testing"

	"github.com/devinalvaro/conver/lib/chat"
)

func TestParseChatToUser(t *testing.T) {
	alice := chat.NewUser("alice")
	p := NewParser(alice)

	msg, err := p.ParseMessage("CHAT USER bob", "hi\n")
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}

	if msg.MsgType != chat.MsgTChat {
		t.Fatalf("Expected chat message, got %s", msg.MsgType)
	}
	expected := chat.NewChat(alice, chat.UserReceiver(chat.NewUser("bob")), "hi")
	if msg.Chat != expected {
		t.Errorf("Parsed chat doesn't match: expected %+v, got %+v", expected, msg.Chat)
	}
}

func TestParseChatToGroup(t *testing.T) {
	alice := chat.NewUser("alice")
	p := NewParser(alice)

	msg, err := p.ParseMessage("CHAT GROUP g1", "hello group")
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}

	expected := chat.NewChat(alice, chat.GroupReceiver(chat.NewGroup("g1")), "hello group")
	if msg.Chat != expected {
		t.Errorf("Parsed chat doesn't match: expected %+v, got %+v", expected, msg.Chat)
	}
}

func TestParseJoinAndLeave(t *testing.T) {
	bob := chat.NewUser("bob")
	p := NewParser(bob)

	msg, err := p.ParseMessage("JOIN g1", "")
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if msg.MsgType != chat.MsgTJoin || msg.Join != chat.NewJoin(bob, chat.NewGroup("g1")) {
		t.Errorf("Unexpected join message: %+v", msg)
	}

	msg, err = p.ParseMessage("LEAVE g1", "")
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if msg.MsgType != chat.MsgTLeave || msg.Leave != chat.NewLeave(bob, chat.NewGroup("g1")) {
		t.Errorf("Unexpected leave message: %+v", msg)
	}
}

func TestParseErrors(t *testing.T) {
	p := NewParser(chat.NewUser("alice"))

	headers := []string{
		"",
		"   ",
		"WHISPER bob",
		"CHAT",
		"CHAT USER",
		"CHAT GROUP",
		"CHAT CHANNEL g1",
		"JOIN",
		"LEAVE",
	}
	for _, header := range headers {
		if _, err := p.ParseMessage(header, "body"); err == nil {
			t.Errorf("Expected parse error for header %q", header)
		}
	}
}

func TestNeedsBody(t *testing.T) {
	if !NeedsBody("CHAT USER bob") {
		t.Error("CHAT commands carry a body line")
	}
	if NeedsBody("JOIN g1") || NeedsBody("LEAVE g1") || NeedsBody("") {
		t.Error("Only CHAT commands carry a body line")
	}
}
