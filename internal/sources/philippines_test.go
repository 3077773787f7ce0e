package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epipulse/internal/errors"
	"epipulse/internal/table"
	"epipulse/pkg/contracts/domain"
)

var phRawColumns = []string{
	"ProvRes", "RegionRes", "DateDied", "DateSpecimen", "DateRecover",
	"daterepconf", "admitted", "removaltype", "Age", "Sex", "CaseCode",
}

// phTable builds a raw registry table from per-row column maps, matching
// the pre-rename input contract (plus an extra column that rename drops).
func phTable(rows ...map[string]string) *table.Table {
	t := table.New(phRawColumns...)
	for _, row := range rows {
		record := make([]string, len(phRawColumns))
		for i, col := range phRawColumns {
			record[i] = row[col]
		}
		t.Append(record)
	}
	return t
}

func parsePH(t *testing.T, raw *table.Table) []domain.TimeSeriesRecord {
	t.Helper()
	src := NewPhilippinesSource(nil)
	records, err := src.Parse(context.Background(), []*table.Table{raw}, nil, nil)
	require.NoError(t, err)
	return records
}

func findRecord(records []domain.TimeSeriesRecord, date, match string, resolution domain.Resolution) *domain.TimeSeriesRecord {
	for i := range records {
		r := &records[i]
		if r.Date == date && r.MatchString == match && r.Resolution == resolution {
			return r
		}
	}
	return nil
}

func TestParseWorkedScenario(t *testing.T) {
	raw := phTable(map[string]string{
		"ProvRes":      "Manila",
		"RegionRes":    "NCR: National Capital Region",
		"DateSpecimen": "2020-04-01",
		"admitted":     "yes",
		"removaltype":  "Recovered",
		"daterepconf":  "2020-04-10",
		"Age":          "45",
		"Sex":          "Female",
	})

	records := parsePH(t, raw)
	require.Len(t, records, 4, "two dates at two resolutions")

	for _, tc := range []struct {
		match      string
		resolution domain.Resolution
	}{
		{match: "Manila", resolution: domain.ResolutionProvince},
		{match: "National Capital Region", resolution: domain.ResolutionRegion},
	} {
		confirmedDay := findRecord(records, "2020-04-01", tc.match, tc.resolution)
		require.NotNilf(t, confirmedDay, "%s row for 2020-04-01", tc.resolution)
		assert.Equal(t, 1, confirmedDay.NewConfirmed)
		assert.Equal(t, 1, confirmedDay.NewHospitalized)
		assert.Equal(t, 0, confirmedDay.NewRecovered, "recovery estimate is a different date")
		assert.Equal(t, 0, confirmedDay.NewDeceased)
		assert.Equal(t, "PH", confirmedDay.CountryCode)
		assert.Equal(t, "40-49", confirmedDay.Age)
		assert.Equal(t, "female", confirmedDay.Sex)

		recoveredDay := findRecord(records, "2020-04-10", tc.match, tc.resolution)
		require.NotNilf(t, recoveredDay, "%s row for 2020-04-10", tc.resolution)
		assert.Equal(t, 1, recoveredDay.NewRecovered)
		assert.Equal(t, 0, recoveredDay.NewConfirmed)
		assert.Equal(t, 0, recoveredDay.NewHospitalized)
	}
}

func TestParseRegionOnlyCase(t *testing.T) {
	raw := phTable(map[string]string{
		"RegionRes":    "Region VII: Central Visayas",
		"DateSpecimen": "2020-05-02",
		"Age":          "31",
		"Sex":          "Male",
	})

	records := parsePH(t, raw)
	require.Len(t, records, 1, "no province key means no province-level row")

	rec := records[0]
	assert.Equal(t, domain.ResolutionRegion, rec.Resolution)
	assert.Equal(t, "Central Visayas", rec.MatchString, "qualifier prefix stripped")
	assert.Equal(t, 1, rec.NewConfirmed)
}

func TestParseRepatriatePlaceholderExcluded(t *testing.T) {
	raw := phTable(map[string]string{
		"ProvRes":      "Repatriate",
		"RegionRes":    "Repatriate",
		"DateSpecimen": "2020-05-02",
		"Age":          "50",
		"Sex":          "Male",
	})

	assert.Empty(t, parsePH(t, raw), "placeholder key dropped at both resolutions")
}

func TestParseUnparseableDateContributesNothing(t *testing.T) {
	raw := phTable(
		map[string]string{
			"ProvRes":      "Cebu",
			"RegionRes":    "Central Visayas",
			"DateSpecimen": "not-a-date",
			"Age":          "20",
			"Sex":          "Male",
		},
		map[string]string{
			"ProvRes":      "Cebu",
			"RegionRes":    "Central Visayas",
			"DateSpecimen": "2020-05-02",
			"Age":          "20",
			"Sex":          "Male",
		},
	)

	records := parsePH(t, raw)
	for _, resolution := range []domain.Resolution{domain.ResolutionRegion, domain.ResolutionProvince} {
		total := 0
		for _, rec := range records {
			if rec.Resolution == resolution {
				total += rec.NewConfirmed
			}
		}
		assert.Equalf(t, 1, total, "only the parseable date counts at %s level", resolution)
	}
}

func TestParseCountConservationPerResolution(t *testing.T) {
	rows := []map[string]string{
		{"ProvRes": "Manila", "RegionRes": "NCR: National Capital Region", "DateSpecimen": "2020-04-01", "DateDied": "2020-04-05", "Age": "67", "Sex": "Male"},
		{"ProvRes": "Manila", "RegionRes": "NCR: National Capital Region", "DateSpecimen": "2020-04-01", "Age": "67", "Sex": "Male"},
		{"ProvRes": "Cebu", "RegionRes": "Region VII: Central Visayas", "DateSpecimen": "2020-04-02", "DateRecover": "2020-04-20", "Age": "23", "Sex": "Female"},
		{"RegionRes": "Region VII: Central Visayas", "DateSpecimen": "2020-04-02", "Age": "40", "Sex": "Female"},
		{"ProvRes": "Davao del Sur", "RegionRes": "Region XI: Davao Region", "removaltype": "Died", "daterepconf": "2020-04-07", "Age": "80", "Sex": "Male"},
	}
	records := parsePH(t, phTable(rows...))

	// Confirmed: 4 parseable dates; case 4 has no province key, so the
	// province-level series conserves 3 while the region-level conserves 4.
	// Deceased: one recorded plus one imputed from the report estimate.
	sum := func(resolution domain.Resolution, count func(*domain.TimeSeriesRecord) int) int {
		total := 0
		for i := range records {
			if records[i].Resolution == resolution {
				total += count(&records[i])
			}
		}
		return total
	}

	assert.Equal(t, 4, sum(domain.ResolutionRegion, func(r *domain.TimeSeriesRecord) int { return r.NewConfirmed }))
	assert.Equal(t, 3, sum(domain.ResolutionProvince, func(r *domain.TimeSeriesRecord) int { return r.NewConfirmed }))
	assert.Equal(t, 2, sum(domain.ResolutionRegion, func(r *domain.TimeSeriesRecord) int { return r.NewDeceased }))
	assert.Equal(t, 2, sum(domain.ResolutionProvince, func(r *domain.TimeSeriesRecord) int { return r.NewDeceased }))
	assert.Equal(t, 1, sum(domain.ResolutionRegion, func(r *domain.TimeSeriesRecord) int { return r.NewRecovered }))
}

func TestParseZeroFillSingleRowPerGroup(t *testing.T) {
	raw := phTable(map[string]string{
		"ProvRes":      "Manila",
		"RegionRes":    "NCR: National Capital Region",
		"DateSpecimen": "2020-04-01",
		"DateDied":     "2020-04-01",
		"Age":          "67",
		"Sex":          "Male",
	})

	records := parsePH(t, raw)
	require.Len(t, records, 2, "one row per resolution, not one per event")

	for _, rec := range records {
		assert.Equal(t, 1, rec.NewConfirmed)
		assert.Equal(t, 1, rec.NewDeceased)
		assert.Equal(t, 0, rec.NewRecovered)
		assert.Equal(t, 0, rec.NewHospitalized)
	}
}

func TestParseUnknownAgeBand(t *testing.T) {
	raw := phTable(map[string]string{
		"ProvRes":      "Manila",
		"RegionRes":    "NCR: National Capital Region",
		"DateSpecimen": "2020-04-01",
		"Sex":          "Female",
	})

	records := parsePH(t, raw)
	require.NotEmpty(t, records)
	assert.Equal(t, domain.AgeBandUnknown, records[0].Age, "missing age keeps the case counted")
}

func TestParseMissingColumnFailsFast(t *testing.T) {
	raw := table.New("ProvRes", "RegionRes", "Age", "Sex")
	raw.Append([]string{"Manila", "NCR", "45", "Female"})

	src := NewPhilippinesSource(nil)
	_, err := src.Parse(context.Background(), []*table.Table{raw}, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeSchema))
}

func TestParseNoTables(t *testing.T) {
	src := NewPhilippinesSource(nil)
	_, err := src.Parse(context.Background(), nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestParseCountryCodeOverride(t *testing.T) {
	raw := phTable(map[string]string{
		"ProvRes":      "Manila",
		"RegionRes":    "NCR: National Capital Region",
		"DateSpecimen": "2020-04-01",
		"Age":          "45",
		"Sex":          "Female",
	})

	src := NewPhilippinesSource(nil)
	records, err := src.Parse(context.Background(), []*table.Table{raw}, nil, Options{"country_code": "XX"})
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, "XX", records[0].CountryCode)
}

func TestRegionMatchKey(t *testing.T) {
	tests := []struct {
		region string
		want   string
	}{
		{region: "NCR: National Capital Region", want: "National Capital Region"},
		{region: "Central Visayas", want: "Central Visayas"},
		{region: "A: B: C", want: "C"},
		{region: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, regionMatchKey(tt.region))
	}
}
