package chat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/devinalvaro/conver/cmd/util"
	chatlib "github.com/devinalvaro/conver/lib/chat"
	"github.com/devinalvaro/conver/lib/client"
	"github.com/spf13/cobra"
)

var (
	chatClient *client.Client

	// ChatCmd represents the interactive chat console
	ChatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Connect to a conver server and chat interactively",
		Long: `Connect to a conver server and chat interactively.

Commands are read line by line from stdin:

  CHAT USER <name>    send a chat to a user (the body is read from the next line)
  CHAT GROUP <name>   send a chat to a group (the body is read from the next line)
  JOIN <name>         join a group
  LEAVE <name>        leave a group

Incoming chats are printed as they arrive.`,
		PersistentPreRunE: setupChatClient,
		RunE:              run,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common client flags to the chat command
	util.SetupClientFlags(ChatCmd)
}

// setupChatClient connects and identifies to the server
func setupChatClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config := util.GetClientConfig()

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	chatClient, err = client.Dial(*config, s)
	return err
}

func run(_ *cobra.Command, _ []string) error {
	defer chatClient.Close()

	// print incoming chats as they arrive
	go printIncoming(chatClient)

	parser := client.NewParser(chatClient.User())
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		header := scanner.Text()
		if header == "" {
			continue
		}

		var body string
		if client.NeedsBody(header) {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			body = scanner.Text()
		}

		msg, err := parser.ParseMessage(header, body)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		if err := chatClient.SendMessage(msg); err != nil {
			return fmt.Errorf("failed to send message: %v", err)
		}
	}

	return scanner.Err()
}

// printIncoming reads chats from the server until the connection closes
func printIncoming(c *client.Client) {
	for {
		incoming, err := c.ReadChat()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(os.Stderr, "connection closed by server")
			} else {
				fmt.Fprintf(os.Stderr, "error: failed to read chat: %v\n", err)
			}
			os.Exit(1)
		}

		printChat(incoming)
	}
}

func printChat(incoming *chatlib.Chat) {
	switch incoming.Receiver.Kind {
	case chatlib.PeopleGroup:
		fmt.Printf("[%s] %s: %s\n", incoming.Receiver.Group.Name, incoming.Sender.Name, incoming.Body)
	default:
		fmt.Printf("%s: %s\n", incoming.Sender.Name, incoming.Body)
	}
}
