package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/ingest"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/sales"
	"sales-dashboard/internal/schema"
)

const dateLayout = "2006-01-02"

// options are the flags shared by every subcommand.
type options struct {
	file     string
	sheet    string
	schema   string
	cacheDir string
	strict   bool
	logLevel string

	from        string
	to          string
	customers   []string
	salespeople []string
	product     string

	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "salesctl",
		Short: "Summarize, group and export sales line exports",
		Long: `Reads a sales workbook or CSV export, maps its columns onto the canonical
sales line fields and answers the same questions as the dashboard.

Examples:
  salesctl summary --file ventas.xlsx --from 2024-01-01 --to 2024-03-31
  salesctl groups --file ventas.xlsx --by customer --limit 10
  salesctl export --file ventas.csv --salesperson Paula --out paula.csv`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.logger = observability.NewLoggerTo(cmd.ErrOrStderr(), config.LoggerConfig{
				Level:  opts.logLevel,
				Format: "text",
			})
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.file, "file", "", "path to the sales workbook (.xlsx) or CSV export (required)")
	pf.StringVar(&opts.sheet, "sheet", "Data venta", "workbook sheet holding the sales lines")
	pf.StringVar(&opts.schema, "schema", "", "YAML profile overriding the column candidate lists")
	pf.StringVar(&opts.cacheDir, "cache-dir", "", "directory for the parsed dataset cache (disabled when empty)")
	pf.BoolVar(&opts.strict, "strict", false, "fail on non-numeric quantity, price or total cells")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.StringVar(&opts.from, "from", "", "first day of the date range (YYYY-MM-DD)")
	pf.StringVar(&opts.to, "to", "", "last day of the date range (YYYY-MM-DD)")
	pf.StringArrayVar(&opts.customers, "customer", nil, "restrict to these customer names (repeatable)")
	pf.StringArrayVar(&opts.salespeople, "salesperson", nil, "restrict to these salespeople (repeatable)")
	pf.StringVar(&opts.product, "product", "", "case-insensitive product description substring")
	_ = root.MarkPersistentFlagRequired("file")

	root.AddCommand(
		newSummaryCmd(opts),
		newGroupsCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// filter builds the filter criteria from the flags.
func (o *options) filter() (sales.FilterSpec, error) {
	var spec sales.FilterSpec
	var err error

	if spec.From, err = parseDate("from", o.from); err != nil {
		return spec, err
	}
	if spec.To, err = parseDate("to", o.to); err != nil {
		return spec, err
	}
	spec.Customers = trimmed(o.customers)
	spec.Salespeople = trimmed(o.salespeople)
	spec.ProductQuery = strings.TrimSpace(o.product)

	if err := spec.Validate(); err != nil {
		return sales.FilterSpec{}, err
	}
	return spec, nil
}

// view loads the source file and returns the lines passing the filter flags.
func (o *options) view(ctx context.Context) ([]models.SaleLine, error) {
	spec, err := o.filter()
	if err != nil {
		return nil, err
	}

	cfg := ingest.Config{
		Sheet:         o.sheet,
		StrictNumbers: o.strict,
		CacheDir:      o.cacheDir,
		Logger:        o.logger,
	}
	if o.schema != "" {
		profile, err := schema.LoadProfile(o.schema)
		if err != nil {
			return nil, eris.Wrap(err, "salesctl: load schema profile")
		}
		cfg.Profile = &profile
	}

	start := time.Now()
	ds, err := ingest.NewLoader(cfg).LoadFile(ctx, o.file)
	if err != nil {
		return nil, err
	}
	lines, err := ds.View(spec)
	if err != nil {
		return nil, err
	}
	o.logger.Info("view ready",
		"file", o.file,
		"records", ds.Len(),
		"matched", len(lines),
		"duration", time.Since(start),
	)
	return lines, nil
}

func parseDate(name, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q, expected YYYY-MM-DD", name, value)
	}
	return t, nil
}

func trimmed(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
