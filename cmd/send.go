package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/devpane/workbench/internal/agent/service"
)

var sendTimeout time.Duration

var sendCmd = &cobra.Command{
	Use:   "send <session-id> <prompt>",
	Short: "Send a prompt to a session and stream the reply",
	Long: `Send a prompt to a logical session on the configured agent client and
print progress events until the session goes idle. The session is resumed
from the persisted binding if it is not already live.

Example:
  workbench send my-session "explain this stack trace"`,
	Args: cobra.ExactArgs(2),
	RunE: runSend,
}

var historyCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Print a session's translated history as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 30*time.Second,
		"how long to wait for the session to go idle")
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(historyCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	sessionID, prompt := args[0], args[1]

	svc, stop, err := buildService(cmd.Context())
	if err != nil {
		return err
	}
	defer stop()

	ctx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
	defer cancel()

	// Resume an existing binding if there is one; fall back to creating a
	// fresh session under the caller-chosen id. Either way the session is
	// bound before subscribing, so no events are missed.
	if _, outcome, err := svc.GetSessionMessages(ctx, sessionID); err != nil {
		return fmt.Errorf("binding session: %w", err)
	} else if outcome == service.ResumeFailed {
		if _, err := svc.CreateSession(ctx, service.SessionConfig{
			SessionID: sessionID,
			Model:     cfg.Agent.Model,
		}); err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
	}

	events, err := svc.Subscribe(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}

	if err := svc.SendMessage(ctx, sessionID, prompt); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	return printEvents(ctx, cmd.OutOrStdout(), events)
}

func runHistory(cmd *cobra.Command, args []string) error {
	svc, stop, err := buildService(cmd.Context())
	if err != nil {
		return err
	}
	defer stop()

	events, outcome, err := svc.GetSessionMessages(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}
	if outcome == service.ResumeFailed {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: session %s could not be resumed\n", args[0])
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}
