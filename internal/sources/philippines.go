package sources

import (
	"context"
	"log/slog"
	"strings"

	"epipulse/internal/caseline"
	"epipulse/internal/cast"
	"epipulse/internal/errors"
	"epipulse/internal/table"
	"epipulse/pkg/contracts/domain"
)

const (
	// phCountryCode is attached to every surviving output row.
	phCountryCode = "PH"

	// phPlaceholderRepatriate is the registry's disposition placeholder for
	// repatriated cases; it is not a geographic key and is dropped at
	// either resolution.
	phPlaceholderRepatriate = "Repatriate"

	// phDataURL is the DOH COVID-19 case information data drop.
	phDataURL = "https://doh.gov.ph/sites/default/files/statistics/case_information.csv"
)

// phCaseColumns maps the registry's raw column names onto the line-list
// schema. Rename fails fast if any of these is absent from the input.
var phCaseColumns = map[string]string{
	"ProvRes":      "match_string_province",
	"RegionRes":    "match_string_region",
	"DateDied":     "date_new_deceased",
	"DateSpecimen": "date_new_confirmed",
	"DateRecover":  "date_new_recovered",
	"daterepconf":  "_date_estimate",
	"admitted":     "_hospitalized",
	"removaltype":  "_prognosis",
	"Age":          "age",
	"Sex":          "sex",
}

// PhilippinesSource parses the Philippine DOH case registry line list into
// the standardized dual-resolution time series.
type PhilippinesSource struct {
	logger  *slog.Logger
	dataURL string
}

// NewPhilippinesSource creates the source. A nil logger falls back to the
// default logger.
func NewPhilippinesSource(logger *slog.Logger) *PhilippinesSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PhilippinesSource{logger: logger, dataURL: phDataURL}
}

// Name implements DataSource.
func (s *PhilippinesSource) Name() string { return "ph_authority" }

// URLs implements DataSource.
func (s *PhilippinesSource) URLs() []string { return []string{s.dataURL} }

// Parse implements DataSource: rename → impute → stratify → aggregate →
// expand to region- and province-level series.
func (s *PhilippinesSource) Parse(ctx context.Context, tables []*table.Table, aux map[string]*table.Table, opts Options) ([]domain.TimeSeriesRecord, error) {
	if len(tables) == 0 || tables[0] == nil {
		return nil, errors.NewValidationError("no raw case table supplied")
	}

	renamed, err := table.Rename(tables[0], phCaseColumns, true)
	if err != nil {
		return nil, err
	}

	cases := make([]domain.CaseRecord, 0, renamed.Len())
	for i := 0; i < renamed.Len(); i++ {
		raw := domain.RawCase{
			Province:     renamed.Value(i, "match_string_province"),
			Region:       renamed.Value(i, "match_string_region"),
			Confirmed:    renamed.Value(i, "date_new_confirmed"),
			Deceased:     renamed.Value(i, "date_new_deceased"),
			Recovered:    renamed.Value(i, "date_new_recovered"),
			DateEstimate: renamed.Value(i, "_date_estimate"),
			Admitted:     renamed.Value(i, "_hospitalized"),
			Prognosis:    renamed.Value(i, "_prognosis"),
			Age:          renamed.Value(i, "age"),
			Sex:          renamed.Value(i, "sex"),
		}
		cases = append(cases, buildCase(raw))
	}

	rows := caseline.Aggregate(cases)

	countryCode := phCountryCode
	if override, ok := opts["country_code"]; ok && override != "" {
		countryCode = override
	}
	records := expandResolutions(rows, countryCode)

	s.logger.InfoContext(ctx, "parsed case registry",
		slog.String("source", s.Name()),
		slog.Int("cases", len(cases)),
		slog.Int("aggregate_groups", len(rows)),
		slog.Int("output_rows", len(records)))

	return records, nil
}

// buildCase derives one typed case record from a raw line-list row. The
// raw helper fields (prognosis, admission flag, report-date estimate) are
// consumed here and never survive into the returned record.
func buildCase(raw domain.RawCase) domain.CaseRecord {
	rec := domain.CaseRecord{
		Province:  strings.TrimSpace(raw.Province),
		Region:    strings.TrimSpace(raw.Region),
		Confirmed: cast.ParseDate(raw.Confirmed),
		Deceased:  cast.ParseDate(raw.Deceased),
		Recovered: cast.ParseDate(raw.Recovered),
		Age:       cast.AgeGroup(raw.Age),
		Sex:       cast.NormalizeSex(raw.Sex),
	}
	caseline.ImputeOutcomeDates(&rec, strings.TrimSpace(raw.Prognosis), cast.ParseDate(raw.DateEstimate))
	caseline.InferHospitalization(&rec, raw.Admitted)
	return rec
}

// expandResolutions duplicates the aggregate into a region-level copy and
// a province-level copy. Every aggregate row contributes to both series
// when both keys are usable; a row with no usable key at a resolution is
// dropped from that resolution only. No deduplication happens across the
// two copies.
func expandResolutions(rows []caseline.AggregateRow, countryCode string) []domain.TimeSeriesRecord {
	out := make([]domain.TimeSeriesRecord, 0, 2*len(rows))

	for _, row := range rows {
		if key := regionMatchKey(row.Region); usableMatchKey(key) {
			out = append(out, newRecord(row, key, domain.ResolutionRegion, countryCode))
		}
	}
	for _, row := range rows {
		if key := row.Province; usableMatchKey(key) {
			out = append(out, newRecord(row, key, domain.ResolutionProvince, countryCode))
		}
	}

	return out
}

// regionMatchKey strips any colon-delimited qualifier prefix from a region
// name, keeping only the substring after the last ": " separator
// ("NCR: National Capital Region" becomes "National Capital Region").
func regionMatchKey(region string) string {
	if idx := strings.LastIndex(region, ": "); idx >= 0 {
		region = region[idx+2:]
	}
	return strings.TrimSpace(region)
}

func usableMatchKey(key string) bool {
	return key != "" && key != phPlaceholderRepatriate
}

func newRecord(row caseline.AggregateRow, key string, resolution domain.Resolution, countryCode string) domain.TimeSeriesRecord {
	return domain.TimeSeriesRecord{
		Date:            row.Date,
		MatchString:     key,
		Resolution:      resolution,
		CountryCode:     countryCode,
		Age:             row.Age,
		Sex:             row.Sex,
		NewConfirmed:    row.Counts.Confirmed,
		NewDeceased:     row.Counts.Deceased,
		NewRecovered:    row.Counts.Recovered,
		NewHospitalized: row.Counts.Hospitalized,
	}
}
