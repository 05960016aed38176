package ingest

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"sales-dashboard/internal/schema"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadDelimited parses delimited text. The delimiter is the most frequent of
// ',', ';' and tab on the header line.
func ReadDelimited(data []byte) (schema.Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var t schema.Table
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return schema.Table{}, eris.Wrap(err, "ingest: read delimited row")
		}
		if blank(record) {
			continue
		}
		if t.Headers == nil {
			t.Headers = trimAll(record)
			continue
		}
		t.Rows = append(t.Rows, record)
	}

	if t.Headers == nil {
		return schema.Table{}, eris.New("ingest: no header row")
	}
	return t, nil
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// Format is the kind of a source file.
type Format string

const (
	FormatWorkbook  Format = "xlsx"
	FormatDelimited Format = "csv"
)

// DetectFormat picks the reader for a file name by extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatWorkbook, nil
	case ".csv", ".txt", ".tsv":
		return FormatDelimited, nil
	default:
		return "", eris.Errorf("ingest: unsupported file type %q", filepath.Ext(name))
	}
}

// ReadTable parses data according to the extension of name. sheet applies to
// workbooks only.
func ReadTable(data []byte, name, sheet string) (schema.Table, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return schema.Table{}, err
	}
	if format == FormatWorkbook {
		return ReadWorkbook(data, sheet)
	}
	return ReadDelimited(data)
}
