package ingest

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/zeebo/xxh3"

	"sales-dashboard/internal/sales"
	"sales-dashboard/internal/schema"
)

const cacheVersion = "v1"

// Cache stores derived datasets on disk keyed by the fingerprint of their
// input. A Cache with an empty directory stores nothing.
type Cache struct {
	dir string
}

func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Enabled reports whether the cache has a directory.
func (c *Cache) Enabled() bool {
	return c != nil && c.dir != ""
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.gob", key, cacheVersion))
}

// Load returns the dataset stored under key.
func (c *Cache) Load(key string) (*sales.Dataset, error) {
	if !c.Enabled() {
		return nil, os.ErrNotExist
	}
	f, err := os.Open(c.path(key))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ds sales.Dataset
	if err := gob.NewDecoder(f).Decode(&ds); err != nil {
		return nil, eris.Wrap(err, "ingest: decode cached dataset")
	}
	return &ds, nil
}

// Save stores ds under key. The file is written to a temporary name first so
// a concurrent Load never sees a partial entry.
func (c *Cache) Save(key string, ds *sales.Dataset) error {
	if !c.Enabled() {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return eris.Wrap(err, "ingest: create cache dir")
	}

	tmp, err := os.CreateTemp(c.dir, key+"_*.tmp")
	if err != nil {
		return eris.Wrap(err, "ingest: create cache file")
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(ds); err != nil {
		tmp.Close()
		return eris.Wrap(err, "ingest: encode dataset")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "ingest: close cache file")
	}
	return os.Rename(tmp.Name(), c.path(key))
}

// Fingerprint identifies a load by the input bytes, the sheet and everything
// in the profile and options that changes the normalized result.
func Fingerprint(data []byte, sheet string, p schema.Profile, opts schema.Options) string {
	h := xxh3.New()
	h.Write(data)
	h.WriteString("\x00" + sheet + "\x00" + strconv.FormatBool(opts.StrictNumbers))
	for _, f := range p.Fields {
		h.WriteString("\x00" + f.Name + "\x00" + strconv.FormatBool(f.Numeric))
		for _, c := range f.Candidates {
			h.WriteString("\x01" + c)
		}
	}
	for _, tok := range p.DateTokens {
		h.WriteString("\x02" + tok)
	}
	for _, layout := range p.DateLayouts {
		h.WriteString("\x03" + layout)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
