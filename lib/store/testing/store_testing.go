package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/devinalvaro/conver/lib/chat"
	"github.com/devinalvaro/conver/lib/store"
)

// StoreFactory is a function that creates a fresh, empty RoutingStore
// instance for one test.
type StoreFactory func() store.RoutingStore

// RunRoutingStoreTests runs a comprehensive test suite for a
// RoutingStore implementation.
func RunRoutingStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("QueueAndPeek", func(t *testing.T) {
			testQueueAndPeek(t, factory())
		})

		t.Run("PeekDoesNotRemove", func(t *testing.T) {
			testPeekDoesNotRemove(t, factory())
		})

		t.Run("DequeueEmptyIsNoOp", func(t *testing.T) {
			testDequeueEmptyIsNoOp(t, factory())
		})

		t.Run("FIFOOrder", func(t *testing.T) {
			testFIFOOrder(t, factory())
		})

		t.Run("FanOutExcludesSender", func(t *testing.T) {
			testFanOutExcludesSender(t, factory())
		})

		t.Run("FanOutUnknownGroupIsNoOp", func(t *testing.T) {
			testFanOutUnknownGroupIsNoOp(t, factory())
		})

		t.Run("JoinIsIdempotent", func(t *testing.T) {
			testJoinIsIdempotent(t, factory())
		})

		t.Run("LeaveStopsFanOut", func(t *testing.T) {
			testLeaveStopsFanOut(t, factory())
		})

		t.Run("LeaveNonMemberIsNoOp", func(t *testing.T) {
			testLeaveNonMemberIsNoOp(t, factory())
		})

		t.Run("WatchSignalsEnqueue", func(t *testing.T) {
			testWatchSignalsEnqueue(t, factory())
		})

		t.Run("ConcurrentQueueing", func(t *testing.T) {
			testConcurrentQueueing(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// drain pops every pending chat of user, in order.
func drain(t *testing.T, s store.RoutingStore, user chat.User) []chat.Chat {
	t.Helper()
	ctx := context.Background()

	var chats []chat.Chat
	for {
		c, err := s.FirstPendingChat(ctx, user)
		if err != nil {
			t.Fatalf("FirstPendingChat failed: %v", err)
		}
		if c == nil {
			return chats
		}
		chats = append(chats, *c)
		if err := s.DequeueFirstPendingChat(ctx, user); err != nil {
			t.Fatalf("DequeueFirstPendingChat failed: %v", err)
		}
	}
}

func mustQueue(t *testing.T, s store.RoutingStore, user chat.User, c chat.Chat) {
	t.Helper()
	if err := s.QueueChatForUser(context.Background(), user, c); err != nil {
		t.Fatalf("QueueChatForUser failed: %v", err)
	}
}

func mustJoin(t *testing.T, s store.RoutingStore, user chat.User, group chat.Group) {
	t.Helper()
	if err := s.AddGroupMember(context.Background(), user, group); err != nil {
		t.Fatalf("AddGroupMember failed: %v", err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testQueueAndPeek(t *testing.T, s store.RoutingStore) {
	alice := chat.NewUser("alice")
	bob := chat.NewUser("bob")
	sent := chat.NewChat(alice, chat.UserReceiver(bob), "hi")

	mustQueue(t, s, bob, sent)

	got, err := s.FirstPendingChat(context.Background(), bob)
	if err != nil {
		t.Fatalf("FirstPendingChat failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a pending chat, got none")
	}
	if *got != sent {
		t.Errorf("Pending chat doesn't match: expected %+v, got %+v", sent, *got)
	}
}

func testPeekDoesNotRemove(t *testing.T, s store.RoutingStore) {
	bob := chat.NewUser("bob")
	sent := chat.NewChat(chat.NewUser("alice"), chat.UserReceiver(bob), "hi")

	mustQueue(t, s, bob, sent)

	for i := 0; i < 3; i++ {
		got, err := s.FirstPendingChat(context.Background(), bob)
		if err != nil {
			t.Fatalf("FirstPendingChat failed: %v", err)
		}
		if got == nil || *got != sent {
			t.Fatalf("Peek %d changed the queue head: got %+v", i, got)
		}
	}

	if chats := drain(t, s, bob); len(chats) != 1 {
		t.Errorf("Expected exactly 1 chat after repeated peeks, got %d", len(chats))
	}
}

func testDequeueEmptyIsNoOp(t *testing.T, s store.RoutingStore) {
	bob := chat.NewUser("bob")

	if err := s.DequeueFirstPendingChat(context.Background(), bob); err != nil {
		t.Fatalf("Dequeue on empty queue failed: %v", err)
	}

	got, err := s.FirstPendingChat(context.Background(), bob)
	if err != nil {
		t.Fatalf("FirstPendingChat failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected empty queue, got %+v", *got)
	}
}

func testFIFOOrder(t *testing.T, s store.RoutingStore) {
	alice := chat.NewUser("alice")
	bob := chat.NewUser("bob")

	const n = 10
	for i := 0; i < n; i++ {
		mustQueue(t, s, bob, chat.NewChat(alice, chat.UserReceiver(bob), fmt.Sprintf("message %d", i)))
	}

	chats := drain(t, s, bob)
	if len(chats) != n {
		t.Fatalf("Expected %d chats, got %d", n, len(chats))
	}
	for i, c := range chats {
		if expected := fmt.Sprintf("message %d", i); c.Body != expected {
			t.Errorf("Chat %d out of order: expected body %q, got %q", i, expected, c.Body)
		}
	}
}

func testFanOutExcludesSender(t *testing.T, s store.RoutingStore) {
	alice := chat.NewUser("alice")
	bob := chat.NewUser("bob")
	carol := chat.NewUser("carol")
	g1 := chat.NewGroup("g1")

	mustJoin(t, s, alice, g1)
	mustJoin(t, s, bob, g1)
	mustJoin(t, s, carol, g1)

	sent := chat.NewChat(alice, chat.GroupReceiver(g1), "hello group")
	if err := s.FanOutGroupChat(context.Background(), g1, sent); err != nil {
		t.Fatalf("FanOutGroupChat failed: %v", err)
	}

	for _, member := range []chat.User{bob, carol} {
		chats := drain(t, s, member)
		if len(chats) != 1 {
			t.Fatalf("Expected %s to receive exactly 1 chat, got %d", member.Name, len(chats))
		}
		if chats[0] != sent {
			t.Errorf("Chat for %s doesn't match: expected %+v, got %+v", member.Name, sent, chats[0])
		}
	}

	if chats := drain(t, s, alice); len(chats) != 0 {
		t.Errorf("Expected the sender to receive 0 copies, got %d", len(chats))
	}
}

func testFanOutUnknownGroupIsNoOp(t *testing.T, s store.RoutingStore) {
	sent := chat.NewChat(chat.NewUser("alice"), chat.GroupReceiver(chat.NewGroup("nobody-here")), "hello?")
	if err := s.FanOutGroupChat(context.Background(), chat.NewGroup("nobody-here"), sent); err != nil {
		t.Errorf("Fan-out to an unknown group must be a no-op, got error: %v", err)
	}
}

func testJoinIsIdempotent(t *testing.T, s store.RoutingStore) {
	alice := chat.NewUser("alice")
	bob := chat.NewUser("bob")
	g1 := chat.NewGroup("g1")

	mustJoin(t, s, alice, g1)
	mustJoin(t, s, bob, g1)
	mustJoin(t, s, bob, g1)
	mustJoin(t, s, bob, g1)

	sent := chat.NewChat(alice, chat.GroupReceiver(g1), "hello group")
	if err := s.FanOutGroupChat(context.Background(), g1, sent); err != nil {
		t.Fatalf("FanOutGroupChat failed: %v", err)
	}

	if chats := drain(t, s, bob); len(chats) != 1 {
		t.Errorf("Expected exactly 1 copy after repeated joins, got %d", len(chats))
	}
}

func testLeaveStopsFanOut(t *testing.T, s store.RoutingStore) {
	ctx := context.Background()
	alice := chat.NewUser("alice")
	bob := chat.NewUser("bob")
	g1 := chat.NewGroup("g1")

	mustJoin(t, s, alice, g1)
	mustJoin(t, s, bob, g1)

	if err := s.RemoveGroupMember(ctx, bob, g1); err != nil {
		t.Fatalf("RemoveGroupMember failed: %v", err)
	}

	sent := chat.NewChat(alice, chat.GroupReceiver(g1), "hello group")
	if err := s.FanOutGroupChat(ctx, g1, sent); err != nil {
		t.Fatalf("FanOutGroupChat failed: %v", err)
	}

	if chats := drain(t, s, bob); len(chats) != 0 {
		t.Errorf("Expected no delivery after leave, got %d chats", len(chats))
	}
}

func testLeaveNonMemberIsNoOp(t *testing.T, s store.RoutingStore) {
	if err := s.RemoveGroupMember(context.Background(), chat.NewUser("bob"), chat.NewGroup("g1")); err != nil {
		t.Errorf("Removing a non-member must be a no-op, got error: %v", err)
	}
}

func testWatchSignalsEnqueue(t *testing.T, s store.RoutingStore) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bob := chat.NewUser("bob")
	signal := s.Watch(ctx, bob)

	// Subscription backends set up asynchronously.
	time.Sleep(100 * time.Millisecond)

	mustQueue(t, s, bob, chat.NewChat(chat.NewUser("alice"), chat.UserReceiver(bob), "hi"))

	select {
	case <-signal:
	case <-time.After(2 * time.Second):
		t.Error("Expected a Watch signal after enqueue, got none")
	}
}

func testConcurrentQueueing(t *testing.T, s store.RoutingStore) {
	bob := chat.NewUser("bob")

	const senders = 8
	const perSender = 25

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(sender int) {
			defer wg.Done()
			from := chat.NewUser(fmt.Sprintf("sender-%d", sender))
			for j := 0; j < perSender; j++ {
				c := chat.NewChat(from, chat.UserReceiver(bob), fmt.Sprintf("%d/%d", sender, j))
				if err := s.QueueChatForUser(context.Background(), bob, c); err != nil {
					t.Errorf("QueueChatForUser failed: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	if chats := drain(t, s, bob); len(chats) != senders*perSender {
		t.Errorf("Expected %d chats after concurrent queueing, got %d", senders*perSender, len(chats))
	}
}
