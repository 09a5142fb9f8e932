package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vantage-modeller/vantage/client"
	"github.com/vantage-modeller/vantage/report"
)

// Chatter sends one prompt to the assistant.
type Chatter interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

var chatCmd = &cobra.Command{
	Use:   "chat PROMPT...",
	Short: "Ask the AI assistant a question",
	Long: `Sends the prompt to the backend assistant. A key set with
'vantage config set-key' is used instead of the session token.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runChat(cmd.Context(), cmd.OutOrStdout(), newClient(), strings.Join(args, " ")); err != nil {
			logrus.Fatalf("chat: %s", client.UserMessage(err))
		}
	},
}

func runChat(ctx context.Context, out io.Writer, api Chatter, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return errors.New("prompt is empty")
	}
	reply, err := api.Chat(ctx, prompt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, report.Markdown(out, reply))
	return err
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
