package main

import (
	"github.com/spf13/cobra"

	"sales-dashboard/internal/export"
)

func newExportCmd(opts *options) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered lines as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lines, err := opts.view(cmd.Context())
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return export.WriteCSV(cmd.OutOrStdout(), lines)
			}
			if err := export.WriteFile(out, lines); err != nil {
				return err
			}
			opts.logger.Info("export written", "out", out, "records", len(lines))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "destination file (default: stdout)")
	return cmd
}
