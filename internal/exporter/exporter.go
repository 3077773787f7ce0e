// Package exporter persists standardized time-series tables. JSON is the
// faithful wire format: the subregion2_code sentinel survives exactly
// (null for region-level rows, "" for province-level). The CSV writer is a
// convenience for spreadsheet review and cannot carry that distinction.
package exporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"epipulse/internal/errors"
	"epipulse/pkg/contracts/domain"
)

// Exporter writes standardized tables to disk.
type Exporter struct {
	logger   *slog.Logger
	validate *validator.Validate
}

// New creates an exporter. A nil logger falls back to the default.
func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		logger:   logger,
		validate: validator.New(),
	}
}

// WriteJSON writes the table as a JSON document with metadata, preserving
// the resolution sentinel on every row.
func (e *Exporter) WriteJSON(ctx context.Context, path string, records []domain.TimeSeriesRecord) error {
	if err := e.validateRecords(records); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "writing standardized table to JSON",
		slog.String("path", path),
		slog.Int("row_count", len(records)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for JSON output", err)
	}

	doc := map[string]interface{}{
		"records":      records,
		"count":        len(records),
		"generated_at": time.Now().Format(time.RFC3339),
		"format":       "time_series_v1",
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewStorageError("failed to create JSON output file", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return errors.NewStorageError("failed to encode standardized table", err)
	}

	return nil
}

// WriteCSV writes the table as CSV. Region-level and province-level rows
// both leave subregion2_code empty here; consumers that need the sentinel
// must read the JSON output.
func (e *Exporter) WriteCSV(ctx context.Context, path string, records []domain.TimeSeriesRecord) error {
	if err := e.validateRecords(records); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "writing standardized table to CSV",
		slog.String("path", path),
		slog.Int("row_count", len(records)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for CSV output", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewStorageError("failed to create CSV output file", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"date", "match_string", "subregion2_code", "country_code", "age", "sex",
		"new_confirmed", "new_deceased", "new_recovered", "new_hospitalized",
	}
	if err := writer.Write(header); err != nil {
		return errors.NewStorageError("failed to write CSV header row", err)
	}

	for _, rec := range records {
		subregion := ""
		if code := rec.Resolution.SubregionCode(); code != nil {
			subregion = *code
		}
		row := []string{
			rec.Date,
			rec.MatchString,
			subregion,
			rec.CountryCode,
			rec.Age,
			rec.Sex,
			fmt.Sprintf("%d", rec.NewConfirmed),
			fmt.Sprintf("%d", rec.NewDeceased),
			fmt.Sprintf("%d", rec.NewRecovered),
			fmt.Sprintf("%d", rec.NewHospitalized),
		}
		if err := writer.Write(row); err != nil {
			return errors.NewStorageError("failed to write CSV data row", err)
		}
	}

	return nil
}

// validateRecords rejects rows that violate the output contract before
// anything touches disk.
func (e *Exporter) validateRecords(records []domain.TimeSeriesRecord) error {
	for i := range records {
		if err := e.validate.Struct(&records[i]); err != nil {
			return errors.NewValidationError("output row violates table contract").
				WithContext("row", i).
				WithContext("cause", err.Error())
		}
	}
	return nil
}
