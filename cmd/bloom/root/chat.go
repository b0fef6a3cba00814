package root

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mindbloom/internal/chat"
	"mindbloom/internal/models"
	"mindbloom/internal/ui"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk with Bloom",
		Long:  "Send one message, or start a conversation read line by line from stdin (empty line or /quit to stop).",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}

			resolver := chat.NewResolver(a.completer(), chat.NewResponder(nil), a.logger)
			session := chat.NewSession(a.store, resolver)
			out := cmd.OutOrStdout()

			if len(args) > 0 {
				_, reply, err := session.Send(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				printMessage(out, reply)
				return nil
			}

			history, err := session.Open()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Heading(ui.IconChat, "Chat with Bloom"))
			for _, m := range history {
				printMessage(out, m)
			}
			return converse(cmd, session, cmd.InOrStdin(), out)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the conversation history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			if err := chat.NewSession(a.store, nil).Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render("Conversation cleared."))
			return nil
		},
	})
	return cmd
}

func converse(cmd *cobra.Command, session *chat.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, ui.UserLine.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out, "")
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" || text == "/quit" {
			return nil
		}
		_, reply, err := session.Send(cmd.Context(), text)
		if err != nil {
			return err
		}
		printMessage(out, reply)
	}
}

func printMessage(out io.Writer, m models.ChatMessage) {
	if m.Role == models.RoleUser {
		fmt.Fprintln(out, ui.UserLine.Render("you: ")+m.Content)
		return
	}
	fmt.Fprintln(out, ui.BloomLine.Render("bloom: ")+m.Content)
}
