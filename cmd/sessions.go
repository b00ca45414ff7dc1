package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/devpane/workbench/internal/store"
)

var sessionsListCmd = &cobra.Command{
	Use:   "sessions:list",
	Short: "List known session bindings",
	Long: `List the persisted session bindings as JSON, most recently used first.

Each entry maps a logical session id to the external agent session it was
bound to, along with the model and usage timestamps.

Examples:
  workbench sessions:list
  workbench sessions:list | jq '.[].logical_id'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := openIndex(cmd.Context())
		if err != nil {
			return fmt.Errorf("opening session index: %w", err)
		}
		defer func() { _ = idx.Close() }()

		records, err := idx.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		return writeSessionList(cmd.OutOrStdout(), records)
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "sessions:delete <session-id>",
	Short: "Delete a session binding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := openIndex(cmd.Context())
		if err != nil {
			return fmt.Errorf("opening session index: %w", err)
		}
		defer func() { _ = idx.Close() }()

		if err := idx.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("deleting session %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsListCmd)
	rootCmd.AddCommand(sessionsDeleteCmd)
}

// sessionDTO is the JSON shape for a persisted binding.
type sessionDTO struct {
	LogicalID  string `json:"logical_id"`
	ExternalID string `json:"external_id"`
	Model      string `json:"model,omitempty"`
	CreatedAt  string `json:"created_at"`
	LastUsedAt string `json:"last_used_at"`
}

func writeSessionList(w io.Writer, records []store.Record) error {
	dtos := make([]sessionDTO, 0, len(records))
	for _, r := range records {
		dtos = append(dtos, sessionDTO{
			LogicalID:  r.LogicalID,
			ExternalID: r.ExternalID,
			Model:      r.Model,
			CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
			LastUsedAt: r.LastUsedAt.UTC().Format(time.RFC3339),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dtos)
}
