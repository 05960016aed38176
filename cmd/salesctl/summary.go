package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sales-dashboard/internal/format"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/sales"
)

func newSummaryCmd(opts *options) *cobra.Command {
	var (
		output  string
		usdRate float64
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the headline figures of the filtered lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lines, err := opts.view(cmd.Context())
			if err != nil {
				return err
			}
			summary := sales.Summarize(lines)

			switch output {
			case "json":
				return writeJSON(cmd.OutOrStdout(), summary)
			case "table":
				formatSummary(cmd.OutOrStdout(), summary, format.Currency{USDRate: usdRate, ShowUSD: usdRate > 0})
				return nil
			default:
				return fmt.Errorf("unknown --output %q, expected table or json", output)
			}
		},
	}

	cmd.Flags().StringVar(&output, "output", "table", "output format: table or json")
	cmd.Flags().Float64Var(&usdRate, "usd-rate", 0, "show amounts in USD at this CLP per USD rate")
	return cmd
}

func formatSummary(out io.Writer, s models.Summary, cur format.Currency) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Venta total (%s)\t%s\n", cur.Code(), cur.Money(s.LineTotal))
	_, _ = fmt.Fprintf(w, "Unidades\t%s\n", format.Quantity(s.Quantity))
	_, _ = fmt.Fprintf(w, "Valor unitario promedio\t%s\n", cur.Ratio(s.AvgUnitValue))
	_, _ = fmt.Fprintf(w, "Documentos\t%s\n", format.Count(s.Documents))
	_, _ = fmt.Fprintf(w, "Clientes\t%s\n", format.Count(s.Customers))
	_, _ = fmt.Fprintf(w, "Líneas\t%s\n", format.Count(s.Records))
	_ = w.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
