package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/motionview/mvbridge/internal/api"
)

func newStatusCmd(ctx *context) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running bridge for its process and subscriber state",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := streamAddr(ctx, addr)
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet,
				fmt.Sprintf("http://%s/api/status", target), nil)
			if err != nil {
				return err
			}
			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("query %s: %w", target, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("bridge answered %s", resp.Status)
			}

			var status api.StatusResponse
			if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
				return fmt.Errorf("decode status: %w", err)
			}

			out := cmd.OutOrStdout()
			pid := "-"
			if status.PID != nil {
				pid = fmt.Sprintf("%d", *status.PID)
			}
			mode := status.Mode
			if mode == "" {
				mode = "-"
			}
			fmt.Fprintf(out, "running=%t pid=%s mode=%s subscribers=%d\n",
				status.Running, pid, mode, status.SubscriberCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "bridge address (defaults to the configured listen address)")
	return cmd
}
