package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/ingest"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/sales"
)

const (
	defaultTopN          = 12
	defaultHistogramBins = 20
	defaultDetailLimit   = 200
)

// ErrNoSource is returned by Reload before any file has been loaded.
var ErrNoSource = errors.New("no source file has been loaded")

// Analytics holds the current base dataset and answers dashboard queries on
// it. A load builds a new dataset and swaps it in; a dataset is never
// modified once published, so readers only hold the lock to fetch it.
type Analytics struct {
	mu      sync.RWMutex
	dataset *sales.Dataset
	path    string

	loader *ingest.Loader
	loads  atomic.Int64
	logger *slog.Logger
}

// NewAnalytics returns an empty service. A nil loader uses the default profile
// with no cache.
func NewAnalytics(loader *ingest.Loader) *Analytics {
	logger := slog.Default()
	if loader == nil {
		loader = ingest.NewLoader(ingest.Config{Logger: logger})
	}
	return &Analytics{
		dataset: sales.NewDataset(nil, ""),
		loader:  loader,
		logger:  logger,
	}
}

// SetData replaces the dataset with lines held in memory.
func (a *Analytics) SetData(lines []models.SaleLine) {
	a.swap(sales.NewDataset(lines, "memory"), "")
}

// LoadFromFile loads path and publishes it as the current dataset. On error
// the previous dataset stays in place.
func (a *Analytics) LoadFromFile(ctx context.Context, path string) error {
	ds, err := a.loader.LoadFile(ctx, path)
	if err != nil {
		return err
	}
	a.swap(ds, path)
	return nil
}

// Reload reads the last loaded file again.
func (a *Analytics) Reload(ctx context.Context) error {
	a.mu.RLock()
	path := a.path
	a.mu.RUnlock()

	if path == "" {
		return ErrNoSource
	}
	return a.LoadFromFile(ctx, path)
}

func (a *Analytics) swap(ds *sales.Dataset, path string) {
	a.mu.Lock()
	a.dataset = ds
	if path != "" {
		a.path = path
	}
	a.mu.Unlock()

	a.loads.Add(1)
	a.logger.Info("dataset published",
		"source", ds.Source,
		"records", ds.Len(),
		"dropped_rows", ds.Dropped,
	)
}

// Dataset returns the current base dataset.
func (a *Analytics) Dataset() *sales.Dataset {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset
}

// Options lists the filter choices offered by the current dataset.
func (a *Analytics) Options() models.FilterOptions {
	return sales.Options(a.Dataset().Lines)
}

func (a *Analytics) View(spec sales.FilterSpec) ([]models.SaleLine, error) {
	return a.Dataset().View(spec)
}

func (a *Analytics) Summary(spec sales.FilterSpec) (models.Summary, error) {
	view, err := a.View(spec)
	if err != nil {
		return models.Summary{}, err
	}
	return sales.Summarize(view), nil
}

func (a *Analytics) Groups(spec sales.FilterSpec, key models.GroupKey, limit int) ([]models.GroupAggregate, error) {
	view, err := a.View(spec)
	if err != nil {
		return nil, err
	}
	return sales.GroupBy(view, key, limit)
}

// SnapshotOptions shapes a dashboard snapshot. Zero values select defaults.
type SnapshotOptions struct {
	GroupBy       models.GroupKey
	TopN          int
	HistogramBins int
	DetailLimit   int
}

// Snapshot is everything the dashboard renders for one filter.
type Snapshot struct {
	Filter       sales.FilterSpec        `json:"-"`
	Summary      models.Summary          `json:"summary"`
	GroupBy      models.GroupKey         `json:"group_by"`
	Groups       []models.GroupAggregate `json:"groups"`
	Trend        []models.GroupAggregate `json:"trend"`
	TopProducts  []models.GroupAggregate `json:"top_products"`
	TopCustomers []models.GroupAggregate `json:"top_customers"`
	Histogram    []models.HistogramBin   `json:"histogram"`
	Records      []models.SaleLine       `json:"records"`
	TotalRecords int                     `json:"total_records"`
	GeneratedAt  time.Time               `json:"generated_at"`
}

// Snapshot filters the dataset once and computes every dashboard panel from
// the same view concurrently.
func (a *Analytics) Snapshot(ctx context.Context, spec sales.FilterSpec, opts SnapshotOptions) (*Snapshot, error) {
	if opts.GroupBy == "" {
		opts.GroupBy = models.GroupByMonth
	}
	if !opts.GroupBy.Valid() {
		return nil, sales.ErrUnknownGroupKey
	}
	if opts.TopN <= 0 {
		opts.TopN = defaultTopN
	}
	if opts.HistogramBins <= 0 {
		opts.HistogramBins = defaultHistogramBins
	}
	if opts.DetailLimit <= 0 {
		opts.DetailLimit = defaultDetailLimit
	}

	view, err := a.View(spec)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Filter:       spec,
		GroupBy:      opts.GroupBy,
		TotalRecords: len(view),
		Records:      view[:min(len(view), opts.DetailLimit)],
		GeneratedAt:  time.Now(),
	}

	groupLimit := opts.TopN
	if opts.GroupBy.Chronological() {
		groupLimit = 0
	}

	g, ctx := errgroup.WithContext(ctx)
	group := func(dst *[]models.GroupAggregate, key models.GroupKey, limit int) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := sales.GroupBy(view, key, limit)
			*dst = out
			return err
		})
	}

	g.Go(func() error {
		snap.Summary = sales.Summarize(view)
		return nil
	})
	g.Go(func() error {
		snap.Histogram = sales.Histogram(view, opts.HistogramBins)
		return nil
	})
	group(&snap.Groups, opts.GroupBy, groupLimit)
	group(&snap.Trend, models.GroupByMonth, 0)
	group(&snap.TopProducts, models.GroupByProduct, opts.TopN)
	group(&snap.TopCustomers, models.GroupByCustomer, opts.TopN)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Stats reports the state of the current dataset for monitoring.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	ds, path := a.dataset, a.path
	a.mu.RUnlock()

	return map[string]any{
		"record_count": ds.Len(),
		"dropped_rows": ds.Dropped,
		"source":       ds.Source,
		"source_file":  path,
		"columns":      ds.Columns,
		"fingerprint":  ds.Fingerprint,
		"loaded_at":    ds.LoadedAt,
		"loads":        a.loads.Load(),
	}
}
