package client

import (
	"fmt"
	"strings"

	"github.com/devinalvaro/conver/lib/chat"
)

// Console line grammar:
//
//	CHAT USER <username>   (body on the following line)
//	CHAT GROUP <groupname> (body on the following line)
//	JOIN <groupname>
//	LEAVE <groupname>
type Parser struct {
	sender chat.User
}

// NewParser creates a parser that stamps every parsed command with the
// given sender identity.
func NewParser(sender chat.User) *Parser {
	return &Parser{sender: sender}
}

// NeedsBody reports whether the header line opens a command that is
// followed by a body line.
func NeedsBody(header string) bool {
	fields := strings.Fields(header)
	return len(fields) > 0 && fields[0] == "CHAT"
}

// ParseMessage parses one console command into a protocol envelope.
// body is only consulted for CHAT commands.
func (p *Parser) ParseMessage(header string, body string) (chat.Message, error) {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return chat.Message{}, fmt.Errorf("method type (CHAT/JOIN/LEAVE) not found")
	}

	switch fields[0] {
	case "CHAT":
		c, err := p.parseChat(fields[1:], body)
		if err != nil {
			return chat.Message{}, err
		}
		return chat.NewChatMessage(c), nil
	case "JOIN":
		group, err := parseGroup(fields[1:])
		if err != nil {
			return chat.Message{}, err
		}
		return chat.NewJoinMessage(chat.NewJoin(p.sender, group)), nil
	case "LEAVE":
		group, err := parseGroup(fields[1:])
		if err != nil {
			return chat.Message{}, err
		}
		return chat.NewLeaveMessage(chat.NewLeave(p.sender, group)), nil
	default:
		return chat.Message{}, fmt.Errorf("unknown method type")
	}
}

func (p *Parser) parseChat(fields []string, body string) (chat.Chat, error) {
	if len(fields) == 0 {
		return chat.Chat{}, fmt.Errorf("receiver type (USER/GROUP) not found")
	}

	var receiver chat.People
	switch fields[0] {
	case "USER":
		if len(fields) < 2 {
			return chat.Chat{}, fmt.Errorf("username not found")
		}
		receiver = chat.UserReceiver(chat.NewUser(fields[1]))
	case "GROUP":
		if len(fields) < 2 {
			return chat.Chat{}, fmt.Errorf("groupname not found")
		}
		receiver = chat.GroupReceiver(chat.NewGroup(fields[1]))
	default:
		return chat.Chat{}, fmt.Errorf("unknown receiver type")
	}

	return chat.NewChat(p.sender, receiver, strings.TrimRight(body, "\r\n")), nil
}

func parseGroup(fields []string) (chat.Group, error) {
	if len(fields) == 0 {
		return chat.Group{}, fmt.Errorf("groupname not found")
	}
	return chat.NewGroup(fields[0]), nil
}
