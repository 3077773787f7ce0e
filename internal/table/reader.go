package table

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"epipulse/internal/errors"
)

// ReadCSV reads a table from CSV input. The first record is the header;
// ragged data rows are tolerated and padded to the header width.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.NewParsingError("failed to read CSV header", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := New(header...)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParsingError("failed to read CSV record", err)
		}
		t.Append(record)
	}
	return t, nil
}

// ReadXLSX reads a table from the first sheet of an Excel workbook. The
// first row that has a non-blank cell in every position is taken as the
// header; blank rows below it are skipped.
func ReadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewParsingError("failed to open workbook", err).
			WithContext("path", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewParsingError("workbook has no sheets", nil).
			WithContext("path", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.NewParsingError("failed to read sheet rows", err).
			WithContext("sheet", sheets[0])
	}

	headerRow := -1
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		complete := true
		for _, cell := range row {
			if strings.TrimSpace(cell) == "" {
				complete = false
				break
			}
		}
		if complete {
			headerRow = i
			break
		}
	}
	if headerRow == -1 {
		return nil, errors.NewParsingError("could not find header row in sheet", nil).
			WithContext("sheet", sheets[0])
	}

	header := make([]string, len(rows[headerRow]))
	for i, cell := range rows[headerRow] {
		header[i] = strings.TrimSpace(cell)
	}

	t := New(header...)
	for _, row := range rows[headerRow+1:] {
		empty := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		t.Append(row)
	}
	return t, nil
}

// ReadFile reads a table from a CSV or XLSX file, dispatching on extension.
func ReadFile(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.NewStorageError("failed to open input file", err).
				WithContext("path", path)
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(path)
	default:
		return nil, errors.NewValidationError("unsupported input file type").
			WithContext("path", path)
	}
}
