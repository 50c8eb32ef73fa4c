package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/devinalvaro/conver/lib/chat"
	"github.com/devinalvaro/conver/lib/chat/serializer"
	"github.com/devinalvaro/conver/lib/store"
	"github.com/devinalvaro/conver/lib/wire"
	"golang.org/x/sync/errgroup"
)

// connHandler owns one accepted connection after a successful
// handshake. Its read and write loops share only the declared identity
// and the server's RoutingStore.
type connHandler struct {
	conn   net.Conn
	user   chat.User
	store  store.RoutingStore
	ser    serializer.Serializer
	logger *slog.Logger

	writeTimeout time.Duration
	pollInterval time.Duration
}

// run starts the read and write loops and blocks until both have
// finished. Either loop ending cancels the other; the socket is closed
// on the way out, which is what unblocks a loop stuck in network I/O.
func (h *connHandler) run(ctx context.Context) {
	h.logger.Info("connection established")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(ctx, func() {
		_ = h.conn.Close()
	})
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer cancel()
		return h.readLoop(ctx)
	})

	group.Go(func() error {
		defer cancel()
		return h.writeLoop(ctx)
	})

	err := group.Wait()
	_ = h.conn.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Info("connection closed with error", "error", err)
	} else {
		h.logger.Info("connection closed")
	}
}

// readLoop decodes inbound frames and routes them into the store until
// the peer disconnects. A decode failure is a fatal protocol error for
// this connection; there is no mid-stream resynchronization.
func (h *connHandler) readLoop(ctx context.Context) error {
	buf := make([]byte, wire.FrameSize)

	for {
		frame, err := wire.ReadFrame(h.conn, buf)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				// Orderly peer shutdown, or the write loop tore the
				// connection down first.
				return nil
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}

		var msg chat.Message
		if err := h.ser.DeserializeMessage(frame, &msg); err != nil {
			decodeErrors.Inc()
			return fmt.Errorf("fatal protocol error: %w", err)
		}

		h.dispatch(ctx, msg)
	}
}

// dispatch routes one decoded envelope into the store. Store backend
// errors are logged and counted but keep the connection open; the
// peer has no error surface in the protocol.
func (h *connHandler) dispatch(ctx context.Context, msg chat.Message) {
	var err error

	switch msg.MsgType {
	case chat.MsgTChat:
		switch msg.Chat.Receiver.Kind {
		case chat.PeopleUser:
			chatsRoutedDirect.Inc()
			err = h.store.QueueChatForUser(ctx, msg.Chat.Receiver.User, msg.Chat)
		case chat.PeopleGroup:
			chatsRoutedGroup.Inc()
			err = h.store.FanOutGroupChat(ctx, msg.Chat.Receiver.Group, msg.Chat)
		default:
			h.logger.Warn("chat with unknown receiver kind dropped", "kind", msg.Chat.Receiver.Kind)
		}
	case chat.MsgTJoin:
		groupJoins.Inc()
		h.logger.Debug("join group", "group", msg.Join.Group.Name)
		err = h.store.AddGroupMember(ctx, msg.Join.Sender, msg.Join.Group)
	case chat.MsgTLeave:
		groupLeaves.Inc()
		h.logger.Debug("leave group", "group", msg.Leave.Group.Name)
		err = h.store.RemoveGroupMember(ctx, msg.Leave.Sender, msg.Leave.Group)
	}

	if err != nil {
		storeErrors.Inc()
		h.logger.Error("store operation failed", "msg_type", msg.MsgType.String(), "error", err)
	}
}

// writeLoop streams the user's pending chats out. It blocks on the
// store's Watch signal between drains, with a fallback poll ticker for
// wakeups the signal cannot carry (several connections sharing one
// identity, cross-process gaps on the external backend).
func (h *connHandler) writeLoop(ctx context.Context) error {
	signal := h.store.Watch(ctx, h.user)

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		if err := h.flushPending(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-signal:
		case <-ticker.C:
		}
	}
}

// flushPending delivers queued chats until the queue is empty. The
// peek, the frame write and the dequeue are three separate steps: a
// chat leaves the queue only after its frame was fully transmitted, so
// a failed write leaves it queued for redelivery.
func (h *connHandler) flushPending(ctx context.Context) error {
	for {
		c, err := h.store.FirstPendingChat(ctx, h.user)
		if err != nil {
			storeErrors.Inc()
			h.logger.Error("failed to peek pending chat", "error", err)
			return nil
		}
		if c == nil {
			return nil
		}

		payload, err := h.ser.SerializeChat(*c)
		if err != nil {
			// Unencodable chats can never be delivered; drop instead of
			// spinning on the queue head.
			h.logger.Error("failed to encode pending chat, dropping it", "error", err)
			if err := h.store.DequeueFirstPendingChat(ctx, h.user); err != nil {
				storeErrors.Inc()
				h.logger.Error("failed to dequeue pending chat", "error", err)
				return nil
			}
			continue
		}

		if h.writeTimeout > 0 {
			_ = h.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		}
		if err := wire.WriteFrame(h.conn, payload); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to write chat frame: %w", err)
		}
		chatsDelivered.Inc()

		if err := h.store.DequeueFirstPendingChat(ctx, h.user); err != nil {
			storeErrors.Inc()
			h.logger.Error("failed to dequeue delivered chat", "error", err)
			return nil
		}
	}
}
