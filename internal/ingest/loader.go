package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/sales"
	"sales-dashboard/internal/schema"
)

// Config configures a Loader.
type Config struct {
	// Sheet is the workbook sheet holding the sales lines.
	Sheet string
	// Profile defaults to schema.DefaultProfile.
	Profile *schema.Profile
	// StrictNumbers rejects non-numeric quantity, price and total cells.
	StrictNumbers bool
	// CacheDir enables the dataset cache when set.
	CacheDir string
	Logger   *slog.Logger
}

// Loader turns source files into derived datasets.
type Loader struct {
	sheet   string
	profile schema.Profile
	strict  bool
	cache   *Cache
	logger  *slog.Logger
}

func NewLoader(cfg Config) *Loader {
	profile := schema.DefaultProfile()
	if cfg.Profile != nil {
		profile = *cfg.Profile
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		sheet:   cfg.Sheet,
		profile: profile,
		strict:  cfg.StrictNumbers,
		cache:   NewCache(cfg.CacheDir),
		logger:  logger,
	}
}

// LoadFile reads path and builds its dataset.
func (l *Loader) LoadFile(ctx context.Context, path string) (*sales.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	return l.Load(ctx, data, path)
}

// Load builds the dataset of a source held in memory. name selects the
// reader by extension and labels the dataset. A *schema.ResolutionError is
// returned unwrapped.
func (l *Loader) Load(ctx context.Context, data []byte, name string) (*sales.Dataset, error) {
	ctx, span := observability.StartSpan(ctx, "ingest.load")
	defer func() {
		span.Finish()
		l.logger.Debug("span finished", span.Attrs()...)
	}()
	span.SetTag("file", filepath.Base(name))

	start := time.Now()
	opts := schema.Options{Source: l.source(name), StrictNumbers: l.strict}
	key := Fingerprint(data, l.sheet, l.profile, opts)

	if ds, err := l.cache.Load(key); err == nil {
		// The key ignores the file name, so the entry may come from a copy.
		ds.Source = name
		ds.LoadedAt = time.Now()
		span.SetTag("cache", "hit")
		l.logger.Info("loaded dataset from cache",
			"file", name,
			"records", ds.Len(),
			"fingerprint", key,
		)
		return ds, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "ingest: load cancelled")
	}

	table, err := ReadTable(data, name, l.sheet)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "ingest: load cancelled")
	}

	res, err := schema.Normalize(table, l.profile, opts)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	ds := sales.NewDataset(res.Lines, name)
	ds.Columns = res.Mapping.Headers()
	ds.Dropped = res.Dropped
	ds.Fingerprint = key

	for _, m := range res.Mapping.Matches {
		if m.Strategy != schema.StrategyExact {
			l.logger.Info("column resolved heuristically",
				"field", m.Field,
				"header", m.Header,
				"strategy", m.Strategy,
			)
		}
	}

	if err := l.cache.Save(key, ds); err != nil {
		l.logger.Warn("failed to save dataset cache", "error", err)
	}

	l.logger.Info("dataset loaded",
		"file", name,
		"records", ds.Len(),
		"dropped_rows", ds.Dropped,
		"duration", time.Since(start),
	)
	return ds, nil
}

func (l *Loader) source(name string) string {
	if l.sheet != "" {
		if f, err := DetectFormat(name); err == nil && f == FormatWorkbook {
			return l.sheet
		}
	}
	return filepath.Base(name)
}
