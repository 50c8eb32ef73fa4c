package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/devinalvaro/conver/lib/chat"
	"github.com/devinalvaro/conver/lib/chat/serializer"
	"github.com/devinalvaro/conver/lib/client"
	"github.com/devinalvaro/conver/lib/config"
	"github.com/devinalvaro/conver/lib/store/memory"
	"github.com/devinalvaro/conver/lib/wire"
)

// settleTime is how long tests wait for commands sent on one
// connection to take effect on the shared store before acting on a
// different connection.
const settleTime = 300 * time.Millisecond

// startServer runs a server with a fresh memory store on an ephemeral
// port and returns its address.
func startServer(t *testing.T) *net.TCPAddr {
	t.Helper()

	cfg := config.ServerConfig{
		Host:             "127.0.0.1",
		Port:             0,
		StoreBackend:     config.StoreMemory,
		HandshakeTimeout: 2 * time.Second,
		PollInterval:     50 * time.Millisecond,
		TCPNoDelay:       true,
	}

	srv, err := New(cfg, memory.NewRoutingStore(), serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	return srv.Addr().(*net.TCPAddr)
}

// dial connects a client with the given username.
func dial(t *testing.T, addr *net.TCPAddr, username string) *client.Client {
	t.Helper()

	c, err := client.Dial(config.ClientConfig{
		Host:     "127.0.0.1",
		Port:     addr.Port,
		Username: username,
	}, serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("Failed to dial as %s: %v", username, err)
	}

	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sendChat(t *testing.T, c *client.Client, receiver chat.People, body string) chat.Chat {
	t.Helper()

	sent := chat.NewChat(c.User(), receiver, body)
	if err := c.SendMessage(chat.NewChatMessage(sent)); err != nil {
		t.Fatalf("Failed to send chat: %v", err)
	}
	return sent
}

func join(t *testing.T, c *client.Client, group chat.Group) {
	t.Helper()
	if err := c.SendMessage(chat.NewJoinMessage(chat.NewJoin(c.User(), group))); err != nil {
		t.Fatalf("Failed to send join: %v", err)
	}
}

func leave(t *testing.T, c *client.Client, group chat.Group) {
	t.Helper()
	if err := c.SendMessage(chat.NewLeaveMessage(chat.NewLeave(c.User(), group))); err != nil {
		t.Fatalf("Failed to send leave: %v", err)
	}
}

// expectChat asserts the next received chat is exactly the sent one.
func expectChat(t *testing.T, c *client.Client, expected chat.Chat) {
	t.Helper()

	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	defer c.SetReadDeadline(time.Time{})

	got, err := c.ReadChat()
	if err != nil {
		t.Fatalf("%s failed to read chat: %v", c.User().Name, err)
	}
	if *got != expected {
		t.Errorf("Chat received by %s doesn't match:\nExpected: %+v\nGot: %+v", c.User().Name, expected, *got)
	}
}

// expectNoChat asserts nothing is delivered within a short window.
func expectNoChat(t *testing.T, c *client.Client) {
	t.Helper()

	_ = c.SetReadDeadline(time.Now().Add(settleTime))
	defer c.SetReadDeadline(time.Time{})

	got, err := c.ReadChat()
	if err == nil {
		t.Fatalf("%s expected no chat, received %+v", c.User().Name, *got)
	}
	if netErr, ok := err.(net.Error); !ok || !netErr.Timeout() {
		t.Fatalf("%s expected a read timeout, got: %v", c.User().Name, err)
	}
}

// TestDirectDelivery covers delivery between two connected users, in
// both directions on the same pair of connections.
func TestDirectDelivery(t *testing.T) {
	addr := startServer(t)

	alice := dial(t, addr, "alice")
	bob := dial(t, addr, "bob")

	sent := sendChat(t, alice, chat.UserReceiver(bob.User()), "hi")
	expectChat(t, bob, sent)

	reply := sendChat(t, bob, chat.UserReceiver(alice.User()), "hi yourself")
	expectChat(t, alice, reply)
}

// TestOfflineQueueing covers queueing for a user that connects only
// after the chat was sent.
func TestOfflineQueueing(t *testing.T) {
	addr := startServer(t)

	alice := dial(t, addr, "alice")
	sent := sendChat(t, alice, chat.UserReceiver(chat.NewUser("bob")), "you there?")
	time.Sleep(settleTime)

	bob := dial(t, addr, "bob")
	expectChat(t, bob, sent)
}

// TestGroupFanOut covers the concrete group scenario: every member
// except the sender receives exactly one copy.
func TestGroupFanOut(t *testing.T) {
	addr := startServer(t)
	g1 := chat.NewGroup("g1")

	alice := dial(t, addr, "alice")
	bob := dial(t, addr, "bob")
	carol := dial(t, addr, "carol")

	join(t, alice, g1)
	join(t, bob, g1)
	join(t, carol, g1)
	time.Sleep(settleTime)

	sent := sendChat(t, alice, chat.GroupReceiver(g1), "hello group")

	expectChat(t, bob, sent)
	expectChat(t, carol, sent)
	expectNoChat(t, alice)
}

// TestMembershipPersistsAcrossReconnect covers a member that joins,
// disconnects, misses a group chat while offline, and receives it on
// reconnect.
func TestMembershipPersistsAcrossReconnect(t *testing.T) {
	addr := startServer(t)
	g1 := chat.NewGroup("g1")

	alice := dial(t, addr, "alice")
	join(t, alice, g1)

	bob := dial(t, addr, "bob")
	join(t, bob, g1)
	time.Sleep(settleTime)
	if err := bob.Close(); err != nil {
		t.Fatalf("Failed to close bob's connection: %v", err)
	}

	sent := sendChat(t, alice, chat.GroupReceiver(g1), "missed anything?")
	time.Sleep(settleTime)

	bobAgain := dial(t, addr, "bob")
	expectChat(t, bobAgain, sent)
}

// TestLeaveStopsDelivery covers that a member stops receiving group
// chats after leaving, even while connected.
func TestLeaveStopsDelivery(t *testing.T) {
	addr := startServer(t)
	g1 := chat.NewGroup("g1")

	alice := dial(t, addr, "alice")
	bob := dial(t, addr, "bob")
	carol := dial(t, addr, "carol")

	join(t, alice, g1)
	join(t, bob, g1)
	join(t, carol, g1)
	time.Sleep(settleTime)

	leave(t, bob, g1)
	time.Sleep(settleTime)

	sent := sendChat(t, alice, chat.GroupReceiver(g1), "without bob")
	expectChat(t, carol, sent)
	expectNoChat(t, bob)
}

// TestFIFOPerRecipient covers in-order delivery of chats from one
// sender to one recipient.
func TestFIFOPerRecipient(t *testing.T) {
	addr := startServer(t)

	alice := dial(t, addr, "alice")
	bob := dial(t, addr, "bob")

	first := sendChat(t, alice, chat.UserReceiver(bob.User()), "first")
	second := sendChat(t, alice, chat.UserReceiver(bob.User()), "second")

	expectChat(t, bob, first)
	expectChat(t, bob, second)
}

// TestHandshakeRejectsGarbage covers that a connection sending an
// undecodable identity frame is closed before any loop starts.
func TestHandshakeRejectsGarbage(t *testing.T) {
	addr := startServer(t)

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	garbage := make([]byte, wire.FrameSize)
	for i := range garbage {
		garbage[i] = 0xff
	}
	if _, err := conn.Write(garbage); err != nil {
		t.Fatalf("Failed to write garbage frame: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := conn.Read(make([]byte, 1)); err == nil {
		t.Error("Expected the server to close the connection after a bad handshake")
	}
}
