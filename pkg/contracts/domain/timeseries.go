package domain

import (
	"encoding/json"
)

// Resolution is the geographic granularity a time-series row claims.
// A single case produces one row at each resolution; a downstream matcher
// decides which one binds to its administrative hierarchy.
type Resolution string

const (
	// ResolutionRegion rows carry the coarse region match key.
	ResolutionRegion Resolution = "region"
	// ResolutionProvince rows carry the finer province match key.
	ResolutionProvince Resolution = "province"
)

// SubregionCode returns the wire-level subregion2_code sentinel for this
// resolution: nil for region-level rows, the empty string for
// province-level rows. The sentinel exists only at the serialization
// boundary; in memory the Resolution enum is authoritative.
func (r Resolution) SubregionCode() *string {
	if r == ResolutionProvince {
		empty := ""
		return &empty
	}
	return nil
}

// TimeSeriesRecord is one row of the standardized output table: the daily
// new-event counts for a (date, match key, age band, sex) combination at a
// single geographic resolution.
type TimeSeriesRecord struct {
	Date            string     `json:"date" csv:"date" validate:"required,datetime=2006-01-02"`
	MatchString     string     `json:"match_string" csv:"match_string" validate:"required"`
	Resolution      Resolution `json:"-" csv:"-" validate:"required,oneof=region province"`
	CountryCode     string     `json:"country_code" csv:"country_code" validate:"required,len=2"`
	Age             string     `json:"age" csv:"age"`
	Sex             string     `json:"sex" csv:"sex"`
	NewConfirmed    int        `json:"new_confirmed" csv:"new_confirmed" validate:"min=0"`
	NewDeceased     int        `json:"new_deceased" csv:"new_deceased" validate:"min=0"`
	NewRecovered    int        `json:"new_recovered" csv:"new_recovered" validate:"min=0"`
	NewHospitalized int        `json:"new_hospitalized" csv:"new_hospitalized" validate:"min=0"`
}

// Count returns the new-event count for the given event type.
func (r *TimeSeriesRecord) Count(event EventType) int {
	switch event {
	case EventConfirmed:
		return r.NewConfirmed
	case EventDeceased:
		return r.NewDeceased
	case EventRecovered:
		return r.NewRecovered
	case EventHospitalized:
		return r.NewHospitalized
	}
	return 0
}

// AddCount increments the new-event count for the given event type.
func (r *TimeSeriesRecord) AddCount(event EventType, n int) {
	switch event {
	case EventConfirmed:
		r.NewConfirmed += n
	case EventDeceased:
		r.NewDeceased += n
	case EventRecovered:
		r.NewRecovered += n
	case EventHospitalized:
		r.NewHospitalized += n
	}
}

// MarshalJSON emits the record with the subregion2_code sentinel derived
// from the resolution: null for region-level rows, "" for province-level.
func (r TimeSeriesRecord) MarshalJSON() ([]byte, error) {
	type alias TimeSeriesRecord
	return json.Marshal(struct {
		alias
		SubregionCode *string `json:"subregion2_code"`
	}{
		alias:         alias(r),
		SubregionCode: r.Resolution.SubregionCode(),
	})
}
