package cmd

import (
	"fmt"
	"os"

	"github.com/devinalvaro/conver/cmd/chat"
	"github.com/devinalvaro/conver/cmd/serve"
	"github.com/devinalvaro/conver/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "conver",
		Short: "real-time chat server",
		Long: fmt.Sprintf(`conver (v%s)

A real-time chat service over raw TCP. Clients identify with a
username, send chats to users or groups, and receive pending chats
whenever they are connected.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of conver",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("conver v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(chat.ChatCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use for the wire format (binary, json, gob). Server and clients must agree"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
