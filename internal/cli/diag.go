package cli

import (
	"github.com/spf13/cobra"

	"github.com/topplegame/topple/internal/api/response"
)

func newDiagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diag",
		Short: "Show server diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Diagnostics

			if err := client.Get("/api/v1/diagnostics", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
