package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the daemon's durable URL cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newCacheListCommand(ctx))
	return cmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List cached durable URLs held by the running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet,
				fmt.Sprintf("http://%s/api/cache", cfg.Paths.APIBind), nil)
			if err != nil {
				return err
			}
			if cfg.Paths.APIToken != "" {
				req.Header.Set("Authorization", "Bearer "+cfg.Paths.APIToken)
			}

			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("reach daemon at %s: %w (is cinerefd running?)", cfg.Paths.APIBind, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("daemon returned %d", resp.StatusCode)
			}

			var payload struct {
				Entries []struct {
					Handle    string    `json:"handle"`
					URL       string    `json:"url"`
					ExpiresAt time.Time `json:"expires_at"`
				} `json:"entries"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return fmt.Errorf("decode daemon response: %w", err)
			}

			if len(payload.Entries) == 0 {
				fmt.Println("URL cache is empty.")
				return nil
			}
			rows := make([][]string, 0, len(payload.Entries))
			for _, entry := range payload.Entries {
				rows = append(rows, []string{
					entry.Handle,
					entry.URL,
					entry.ExpiresAt.Local().Format(time.RFC3339),
				})
			}
			fmt.Println(renderTable([]string{"Handle", "URL", "Expires"}, rows, nil))
			return nil
		},
	}
}
