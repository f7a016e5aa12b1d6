// Package tabular reads sentiment exports (.csv, .xls, .xlsx) into rows keyed
// by the header cells of the first non-blank line.
package tabular

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/sentivault/internal/common"
)

// Row maps a header name to the cell text. Missing cells are "".
type Row map[string]string

// Parse dispatches on the extension of path. Rows whose cells are all empty
// are skipped; a file with a header and nothing else yields no rows.
func Parse(path string) ([]Row, error) {
	return ParseFormat(path, filepath.Ext(path))
}

// ParseFormat reads path as the format named by ext (".csv", ".xls" or
// ".xlsx"), whatever the file itself is called.
func ParseFormat(path, ext string) ([]Row, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return parseCSV(path)
	case ".xlsx":
		return parseXLSX(path)
	case ".xls":
		return parseXLS(path)
	default:
		return nil, fmt.Errorf("%w: unsupported tabular format %q", common.ErrParse, ext)
	}
}

// table accumulates rows once the header is known.
type table struct {
	header []string
	rows   []Row
}

func (t *table) add(cells []string) {
	if t.header == nil {
		header := make([]string, len(cells))
		blank := true
		for i, c := range cells {
			c = strings.TrimPrefix(c, "\ufeff")
			header[i] = strings.TrimSpace(c)
			if header[i] != "" {
				blank = false
			}
		}
		// The header is the first non-blank row, as sheets may not start at row 1.
		if !blank {
			t.header = header
		}
		return
	}

	row := make(Row, len(t.header))
	empty := true
	for i, name := range t.header {
		if name == "" {
			continue
		}
		var v string
		if i < len(cells) {
			v = cells[i]
		}
		if strings.TrimSpace(v) != "" {
			empty = false
		}
		row[name] = v
	}
	if !empty {
		t.rows = append(t.rows, row)
	}
}
