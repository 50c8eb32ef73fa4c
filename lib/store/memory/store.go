package memory

import (
	"context"
	"sync"

	"github.com/devinalvaro/conver/lib/chat"
	"github.com/devinalvaro/conver/lib/store"
	"github.com/puzpuzpuz/xsync/v3"
)

// userQueue is one user's FIFO of pending chats plus the wakeup signal
// raised on every enqueue.
type userQueue struct {
	mu    sync.Mutex
	chats []chat.Chat

	// signal has capacity 1; sends are non-blocking so a slow writer
	// only coalesces wakeups, it never blocks routing.
	signal chan struct{}
}

// notify raises the wakeup signal without blocking.
func (q *userQueue) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// memberSet is one group's member set.
type memberSet struct {
	mu      sync.RWMutex
	members map[chat.User]struct{}
}

// routingStore implements store.RoutingStore with in-process tables.
type routingStore struct {
	queues *xsync.MapOf[string, *userQueue]
	groups *xsync.MapOf[string, *memberSet]
}

// NewRoutingStore creates a new in-memory routing store. This store
// only works within a single process; queued chats and memberships are
// lost when the process exits.
func NewRoutingStore() store.RoutingStore {
	return &routingStore{
		queues: xsync.NewMapOf[string, *userQueue](),
		groups: xsync.NewMapOf[string, *memberSet](),
	}
}

// queue returns the user's queue, creating it on first use.
func (s *routingStore) queue(user chat.User) *userQueue {
	q, _ := s.queues.LoadOrCompute(user.Name, func() *userQueue {
		return &userQueue{signal: make(chan struct{}, 1)}
	})
	return q
}

// group returns the group's member set, creating it on first use.
func (s *routingStore) group(g chat.Group) *memberSet {
	m, _ := s.groups.LoadOrCompute(g.Name, func() *memberSet {
		return &memberSet{members: make(map[chat.User]struct{})}
	})
	return m
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *routingStore) FirstPendingChat(_ context.Context, user chat.User) (*chat.Chat, error) {
	q := s.queue(user)

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.chats) == 0 {
		return nil, nil
	}
	head := q.chats[0]
	return &head, nil
}

func (s *routingStore) DequeueFirstPendingChat(_ context.Context, user chat.User) error {
	q := s.queue(user)

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.chats) > 0 {
		q.chats = q.chats[1:]
	}
	return nil
}

func (s *routingStore) QueueChatForUser(_ context.Context, user chat.User, c chat.Chat) error {
	q := s.queue(user)

	q.mu.Lock()
	q.chats = append(q.chats, c)
	q.mu.Unlock()

	q.notify()
	return nil
}

func (s *routingStore) FanOutGroupChat(ctx context.Context, group chat.Group, c chat.Chat) error {
	m, ok := s.groups.Load(group.Name)
	if !ok {
		return nil
	}

	// Snapshot the members so queue locks are not nested inside the
	// set lock. Iteration order is map order and deliberately
	// unspecified.
	m.mu.RLock()
	members := make([]chat.User, 0, len(m.members))
	for member := range m.members {
		if member == c.Sender {
			continue
		}
		members = append(members, member)
	}
	m.mu.RUnlock()

	for _, member := range members {
		if err := s.QueueChatForUser(ctx, member, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *routingStore) AddGroupMember(_ context.Context, user chat.User, group chat.Group) error {
	m := s.group(group)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.members[user] = struct{}{}
	return nil
}

func (s *routingStore) RemoveGroupMember(_ context.Context, user chat.User, group chat.Group) error {
	m := s.group(group)

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.members, user)
	return nil
}

func (s *routingStore) Watch(_ context.Context, user chat.User) <-chan struct{} {
	// The signal channel is shared by every watcher of the same user;
	// a wakeup reaches one of them, the rest catch up on their fallback
	// poll.
	return s.queue(user).signal
}
