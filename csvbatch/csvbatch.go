// Package csvbatch turns a device CSV into bulk operation items.
package csvbatch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/deploymenttheory/go-jamfpro-fleetops/bulkops"
)

// Column headers. Matching is case sensitive.
const (
	ColumnSerialNumber = "SerialNumber"
	ColumnComputerName = "ComputerName"
	ColumnNotes        = "Notes"
)

// utf8BOM is written by spreadsheet exports ahead of the first header.
const utf8BOM = "\uFEFF"

// ErrMissingSerialColumn is returned when the header row has no SerialNumber column.
var ErrMissingSerialColumn = &bulkops.ValidationError{
	Message: fmt.Sprintf("CSV header must contain a %s column", ColumnSerialNumber),
}

type columns struct {
	serial int
	name   int
	notes  int
}

func (c columns) value(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// Load reads a CSV with a header row and returns one pending item per row that carries a
// serial number. Item IDs are 1-based positions among the accepted rows.
func Load(r io.Reader) ([]*bulkops.DeviceBatchItem, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingSerialColumn
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	var items []*bulkops.DeviceBatchItem
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		serial := cols.value(record, cols.serial)
		if serial == "" {
			continue
		}

		item := bulkops.NewItem(len(items)+1, serial)
		item.DisplayName = cols.value(record, cols.name)
		item.Notes = cols.value(record, cols.notes)
		items = append(items, item)
	}

	return items, nil
}

// LoadFile opens path and passes it to Load.
func LoadFile(path string) ([]*bulkops.DeviceBatchItem, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file %s: %w", path, err)
	}
	defer f.Close()

	return Load(f)
}

func parseHeader(header []string) (columns, error) {
	cols := columns{serial: -1, name: -1, notes: -1}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
		switch h {
		case ColumnSerialNumber:
			if cols.serial < 0 {
				cols.serial = i
			}
		case ColumnComputerName:
			if cols.name < 0 {
				cols.name = i
			}
		case ColumnNotes:
			if cols.notes < 0 {
				cols.notes = i
			}
		}
	}
	if cols.serial < 0 {
		return cols, ErrMissingSerialColumn
	}
	return cols, nil
}
