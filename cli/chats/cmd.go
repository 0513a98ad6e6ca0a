// Package chats provides the non-interactive chat management commands.
package chats

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tejastrax/tejax/internal/api"
	"github.com/tejastrax/tejax/internal/cli"
	"github.com/tejastrax/tejax/internal/client"
	"github.com/tejastrax/tejax/internal/toast"
)

// cliSink routes engine notifications to colored terminal output.
type cliSink struct{}

func (cliSink) Success(message string) { cli.Successf("%s\n", message) }
func (cliSink) Error(message string)   { cli.Errorf("%s\n", message) }

var _ toast.Sink = cliSink{}

// NewCmd instantiates and returns the chats command group.
func NewCmd(apiClient api.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Manage chats from the command line",
	}
	cmd.AddCommand(newListCmd(apiClient))
	cmd.AddCommand(newDeleteCmd(apiClient))
	return cmd
}

func newListCmd(apiClient api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all chats, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := client.New(apiClient, nil, cliSink{})
			if err := engine.Registry.Refresh(cmd.Context()); err != nil {
				return errors.Wrap(err, "refreshing chats")
			}

			chats := engine.Cache.ListChatsOrdered()
			cli.Title("Chats (%d)", len(chats))
			for _, chat := range chats {
				cli.ChatRow(chat.ID, chat.Title, time.UnixMicro(chat.CreationTimestamp))
			}
			cli.Separator()
			return nil
		},
	}
}

func newDeleteCmd(apiClient api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <chat-id>",
		Short: "Delete a chat and all of its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := client.New(apiClient, nil, cliSink{})
			if err := engine.Registry.Refresh(cmd.Context()); err != nil {
				return errors.Wrap(err, "refreshing chats")
			}

			chat := engine.Cache.GetChat(args[0])
			if chat == nil {
				cli.Errorf("Chat %s not found\n", args[0])
				return nil
			}

			if !cli.QueryUser("Delete chat \"" + chat.Title + "\" and all of its messages?") {
				return nil
			}
			return engine.Registry.Delete(cmd.Context(), chat.ID)
		},
	}
}
