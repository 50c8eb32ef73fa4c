// Package cmd implements the command-line interface for the conver chat
// service. It provides a hierarchical command structure with operations
// for running the server and chatting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Commands for starting and configuring the conver server
//   - chat: The interactive chat console
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See conver -help for a list of all commands.
package cmd
