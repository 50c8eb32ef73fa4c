package chat

// --------------------------------------------------------------------------
// Identity Types
// --------------------------------------------------------------------------

// User identifies a chat participant. Equality is by name.
type User struct {
	Name string `json:"name"`
}

// NewUser creates a User with the given username.
func NewUser(name string) User {
	return User{Name: name}
}

// Group identifies a chat group. Equality is by name.
type Group struct {
	Name string `json:"name"`
}

// NewGroup creates a Group with the given group name.
func NewGroup(name string) Group {
	return Group{Name: name}
}

// --------------------------------------------------------------------------
// Addressing
// --------------------------------------------------------------------------

// PeopleKind discriminates the People union.
type PeopleKind byte

const (
	PeopleUnknown PeopleKind = iota // 0: zero value, never valid on the wire
	PeopleUser                      // 1: a single user
	PeopleGroup                     // 2: all members of a group
)

// String returns a human-readable name for the kind.
func (k PeopleKind) String() string {
	switch k {
	case PeopleUser:
		return "user"
	case PeopleGroup:
		return "group"
	default:
		return "unknown"
	}
}

// People is the tagged union of possible chat receivers: either a
// single User or a Group. Exactly one of User/Group is meaningful,
// selected by Kind.
type People struct {
	Kind  PeopleKind `json:"kind"`
	User  User       `json:"user,omitempty"`
	Group Group      `json:"group,omitempty"`
}

// UserReceiver addresses a single user.
func UserReceiver(u User) People {
	return People{Kind: PeopleUser, User: u}
}

// GroupReceiver addresses every member of a group.
func GroupReceiver(g Group) People {
	return People{Kind: PeopleGroup, Group: g}
}

// --------------------------------------------------------------------------
// Commands
// --------------------------------------------------------------------------

// Chat is a single chat message from Sender to Receiver. Chats carry
// no identifier beyond their content; duplicates are possible and are
// not deduplicated anywhere in the system.
type Chat struct {
	Sender   User   `json:"sender"`
	Receiver People `json:"receiver"`
	Body     string `json:"body"`
}

// NewChat creates a Chat value.
func NewChat(sender User, receiver People, body string) Chat {
	return Chat{Sender: sender, Receiver: receiver, Body: body}
}

// Join adds Sender to Group. It mutates membership and is never
// persisted as a message.
type Join struct {
	Sender User  `json:"sender"`
	Group  Group `json:"group"`
}

// NewJoin creates a Join command.
func NewJoin(sender User, group Group) Join {
	return Join{Sender: sender, Group: group}
}

// Leave removes Sender from Group.
type Leave struct {
	Sender User  `json:"sender"`
	Group  Group `json:"group"`
}

// NewLeave creates a Leave command.
func NewLeave(sender User, group Group) Leave {
	return Leave{Sender: sender, Group: group}
}

// --------------------------------------------------------------------------
// Protocol Envelope
// --------------------------------------------------------------------------

// MessageType discriminates the Message envelope.
type MessageType byte

const (
	MsgTUnknown MessageType = iota // 0: zero value, rejected by codecs
	MsgTChat                       // 1: chat message
	MsgTJoin                       // 2: join group
	MsgTLeave                      // 3: leave group
)

// String returns a human-readable name for the message type.
func (t MessageType) String() string {
	switch t {
	case MsgTChat:
		return "chat"
	case MsgTJoin:
		return "join"
	case MsgTLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// Message is the protocol envelope framed on the wire by clients.
// Exactly one of Chat/Join/Leave is meaningful, selected by MsgType.
// The server only ever pushes bare Chat values back, never envelopes.
type Message struct {
	MsgType MessageType `json:"msg_type"`
	Chat    Chat        `json:"chat,omitempty"`
	Join    Join        `json:"join,omitempty"`
	Leave   Leave       `json:"leave,omitempty"`
}

// NewChatMessage wraps a Chat in an envelope.
func NewChatMessage(c Chat) Message {
	return Message{MsgType: MsgTChat, Chat: c}
}

// NewJoinMessage wraps a Join in an envelope.
func NewJoinMessage(j Join) Message {
	return Message{MsgType: MsgTJoin, Join: j}
}

// NewLeaveMessage wraps a Leave in an envelope.
func NewLeaveMessage(l Leave) Message {
	return Message{MsgType: MsgTLeave, Leave: l}
}

// Sender returns the user that issued the enveloped command.
func (m Message) Sender() User {
	switch m.MsgType {
	case MsgTChat:
		return m.Chat.Sender
	case MsgTJoin:
		return m.Join.Sender
	case MsgTLeave:
		return m.Leave.Sender
	default:
		return User{}
	}
}
