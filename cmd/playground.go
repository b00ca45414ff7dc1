package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/devpane/workbench/internal/agent/client"
	"github.com/devpane/workbench/internal/agent/mock"
	"github.com/devpane/workbench/internal/agent/service"
	"github.com/devpane/workbench/internal/pubsub"
)

var playgroundCmd = &cobra.Command{
	Use:   "playground",
	Short: "Run a scripted demo conversation",
	Long: `Run a scripted conversation against the in-memory mock agent and print
the progress events the multiplexer emits. Useful for eyeballing the
event translation without a real agent attached.`,
	RunE: runPlayground,
}

func init() {
	rootCmd.AddCommand(playgroundCmd)
}

// playClientType is registered once with a dedicated mock instance so the
// script can emit events on the session the service binds.
const playClientType = client.ClientType("playground")

var playClient = mock.NewClient()

func init() {
	client.Register(playClientType, func() client.Client { return playClient })
}

func runPlayground(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	svc := service.NewService(playClientType, service.WithTracer(traceCloser.Tracer()))
	defer func() { _ = svc.Shutdown(context.Background()) }()

	id, err := svc.CreateSession(ctx, service.SessionConfig{Model: "demo"})
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	events, err := svc.Subscribe(ctx, id)
	if err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}

	prompt := "List the files in this project"
	fmt.Fprintf(cmd.OutOrStdout(), "> %s\n", prompt)
	if err := svc.SendMessage(ctx, id, prompt); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	sess, ok := playClient.Session(id)
	if !ok {
		return fmt.Errorf("session %s not found in mock store", id)
	}
	emitScript(sess)

	return printEvents(ctx, cmd.OutOrStdout(), events)
}

// emitScript replays a canned agent turn on the mock session.
func emitScript(sess *mock.Session) {
	args, _ := json.Marshal(map[string]string{"command": "ls -la"})
	sess.Emit(client.StreamEvent{Type: client.EventMessageDelta, Data: client.EventData{MessageID: "m1", Content: "Let me take a look."}})
	sess.Emit(client.StreamEvent{Type: client.EventToolStart, Data: client.EventData{ToolCallID: "t1", ToolName: "bash", Arguments: args}})
	sess.Emit(client.StreamEvent{Type: client.EventToolComplete, Data: client.EventData{ToolCallID: "t1", ToolName: "bash", Success: true, Output: "main.go\ngo.mod"}})
	sess.Emit(client.StreamEvent{Type: client.EventMessage, Data: client.EventData{MessageID: "m1", Content: "The project contains main.go and go.mod."}})
	sess.Emit(client.StreamEvent{Type: client.EventIdle})
}

// printEvents renders progress events until the session goes idle.
func printEvents(ctx context.Context, w io.Writer, events <-chan pubsub.Event[service.ProgressEvent]) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			fmt.Fprintln(w, formatEvent(ev.Payload))
			if ev.Payload.Kind == service.KindIdle {
				return nil
			}
		}
	}
}

// formatEvent renders one progress event as a terminal line.
func formatEvent(ev service.ProgressEvent) string {
	switch ev.Kind {
	case service.KindDelta:
		return fmt.Sprintf("  … %s", ev.Content)
	case service.KindMessage:
		return fmt.Sprintf("  %s", ev.Content)
	case service.KindToolStart:
		return fmt.Sprintf("  [%s] %s", ev.DisplayName, ev.InvocationMessage)
	case service.KindToolComplete:
		status := "ok"
		if !ev.Success {
			status = "failed"
		}
		return fmt.Sprintf("  [%s] %s (%s)", ev.DisplayName, ev.CompletionMessage, status)
	case service.KindIdle:
		return "  (idle)"
	default:
		return fmt.Sprintf("  %s", ev.Kind)
	}
}
