package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devinalvaro/conver/lib/chat"
	"github.com/devinalvaro/conver/lib/chat/serializer"
	"github.com/devinalvaro/conver/lib/store"
	"github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

// routingStore implements store.RoutingStore on a Redis backend.
type routingStore struct {
	rdb *redis.Client
	ser serializer.Serializer
}

// NewRoutingStore creates a routing store backed by the Redis instance
// at url (redis://[user:pass@]host:port[/db]). The connection is
// verified with a ping before the store is returned.
func NewRoutingStore(url string, ser serializer.Serializer) (store.RoutingStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return &routingStore{rdb: rdb, ser: ser}, nil
}

// Key layout. Values under chatsKey/membersKey are codec-encoded Chat
// and User respectively, schema-compatible with the wire protocol.
func chatsKey(user chat.User) string { return "chats:" + user.Name }

func membersKey(group chat.Group) string { return "members:" + group.Name }

func notifyKey(user chat.User) string { return "notify:" + user.Name }

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *routingStore) FirstPendingChat(ctx context.Context, user chat.User) (*chat.Chat, error) {
	values, err := s.rdb.LRange(ctx, chatsKey(user), 0, 0).Result()
	if err != nil {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("failed to peek pending chats of %s: %v", user.Name, err))
	}
	if len(values) == 0 {
		return nil, nil
	}

	var c chat.Chat
	if err := s.ser.DeserializeChat([]byte(values[0]), &c); err != nil {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("failed to decode pending chat of %s: %v", user.Name, err))
	}
	return &c, nil
}

func (s *routingStore) DequeueFirstPendingChat(ctx context.Context, user chat.User) error {
	if err := s.rdb.LPop(ctx, chatsKey(user)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("failed to dequeue pending chat of %s: %v", user.Name, err))
	}
	return nil
}

func (s *routingStore) QueueChatForUser(ctx context.Context, user chat.User, c chat.Chat) error {
	value, err := s.ser.SerializeChat(c)
	if err != nil {
		return store.NewError(store.RetCInvalidOperation, fmt.Sprintf("failed to encode chat for %s: %v", user.Name, err))
	}

	if err := s.rdb.RPush(ctx, chatsKey(user), value).Err(); err != nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("failed to queue chat for %s: %v", user.Name, err))
	}

	// Wakeup only; write loops drain the list, so a lost publish is
	// covered by their fallback poll.
	if err := s.rdb.Publish(ctx, notifyKey(user), "").Err(); err != nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("failed to notify %s: %v", user.Name, err))
	}
	return nil
}

func (s *routingStore) FanOutGroupChat(ctx context.Context, group chat.Group, c chat.Chat) error {
	values, err := s.rdb.SMembers(ctx, membersKey(group)).Result()
	if err != nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("failed to list members of %s: %v", group.Name, err))
	}

	for _, value := range values {
		var member chat.User
		if err := s.ser.DeserializeUser([]byte(value), &member); err != nil {
			return store.NewError(store.RetCInternalError, fmt.Sprintf("failed to decode member of %s: %v", group.Name, err))
		}
		if member == c.Sender {
			continue
		}
		if err := s.QueueChatForUser(ctx, member, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *routingStore) AddGroupMember(ctx context.Context, user chat.User, group chat.Group) error {
	value, err := s.ser.SerializeUser(user)
	if err != nil {
		return store.NewError(store.RetCInvalidOperation, fmt.Sprintf("failed to encode user %s: %v", user.Name, err))
	}

	if err := s.rdb.SAdd(ctx, membersKey(group), value).Err(); err != nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("failed to add %s to %s: %v", user.Name, group.Name, err))
	}
	return nil
}

func (s *routingStore) RemoveGroupMember(ctx context.Context, user chat.User, group chat.Group) error {
	value, err := s.ser.SerializeUser(user)
	if err != nil {
		return store.NewError(store.RetCInvalidOperation, fmt.Sprintf("failed to encode user %s: %v", user.Name, err))
	}

	if err := s.rdb.SRem(ctx, membersKey(group), value).Err(); err != nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("failed to remove %s from %s: %v", user.Name, group.Name, err))
	}
	return nil
}

func (s *routingStore) Watch(ctx context.Context, user chat.User) <-chan struct{} {
	signal := make(chan struct{}, 1)

	pubsub := s.rdb.Subscribe(ctx, notifyKey(user))
	go func() {
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				select {
				case signal <- struct{}{}:
				default:
				}
			}
		}
	}()

	return signal
}
