package sales

import (
	"time"

	"sales-dashboard/internal/models"
)

// Dataset is the immutable base table of one load. Callers must not modify
// Lines; views are produced with Filter.
type Dataset struct {
	Lines []models.SaleLine
	// Source is the file or sheet the lines were read from.
	Source string
	// Columns maps canonical field names to the source headers they came from.
	Columns map[string]string
	// Dropped counts source rows excluded for lacking a parseable date.
	Dropped  int
	LoadedAt time.Time
	// Fingerprint identifies the input bytes and profile the dataset was built from.
	Fingerprint string
}

// NewDataset derives lines and wraps them as a base table.
func NewDataset(lines []models.SaleLine, source string) *Dataset {
	return &Dataset{
		Lines:    Derive(lines),
		Source:   source,
		Columns:  map[string]string{},
		LoadedAt: time.Now(),
	}
}

// Len returns the number of lines.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Lines)
}

// View filters the base table.
func (d *Dataset) View(spec FilterSpec) ([]models.SaleLine, error) {
	if d == nil {
		return Filter(nil, spec)
	}
	return Filter(d.Lines, spec)
}
