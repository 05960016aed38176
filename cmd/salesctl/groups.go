package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sales-dashboard/internal/format"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/sales"
)

func newGroupsCmd(opts *options) *cobra.Command {
	var (
		by     string
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Aggregate the filtered lines by month, quarter, customer, salesperson or product",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key := models.GroupKey(by)
			if !key.Valid() {
				return fmt.Errorf("unknown --by %q, expected month, quarter, customer, salesperson or product", by)
			}
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			lines, err := opts.view(cmd.Context())
			if err != nil {
				return err
			}
			groups, err := sales.GroupBy(lines, key, limit)
			if err != nil {
				return err
			}

			switch output {
			case "json":
				return writeJSON(cmd.OutOrStdout(), groups)
			case "table":
				formatGroups(cmd.OutOrStdout(), groups, key)
				return nil
			default:
				return fmt.Errorf("unknown --output %q, expected table or json", output)
			}
		},
	}

	cmd.Flags().StringVar(&by, "by", string(models.GroupByMonth), "grouping: month, quarter, customer, salesperson or product")
	cmd.Flags().IntVar(&limit, "limit", 0, "keep only the first N groups (0 = all)")
	cmd.Flags().StringVar(&output, "output", "table", "output format: table or json")
	return cmd
}

func formatGroups(out io.Writer, groups []models.GroupAggregate, key models.GroupKey) {
	withCustomers := key != models.GroupByCustomer

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := "KEY\tLINE_TOTAL\tQUANTITY\tDOCUMENTS"
	if withCustomers {
		header += "\tCUSTOMERS"
	}
	_, _ = fmt.Fprintln(w, header+"\tAVG_UNIT_VALUE")

	for _, g := range groups {
		row := fmt.Sprintf("%s\t%s\t%s\t%d", g.Key, format.CLP(g.LineTotal), format.Quantity(g.Quantity), g.Documents)
		if withCustomers {
			row += fmt.Sprintf("\t%d", g.Customers)
		}
		avg := format.Undefined
		if g.AvgUnitValue.Valid {
			avg = format.CLP(g.AvgUnitValue.Value)
		}
		_, _ = fmt.Fprintln(w, row+"\t"+avg)
	}
	_ = w.Flush()
}
