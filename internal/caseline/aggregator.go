package caseline

import (
	"sort"

	"epipulse/internal/cast"
	"epipulse/pkg/contracts/domain"
)

// EventCounts holds the per-event new counts of one aggregate group. All
// four events are always materialized, so a group touched by one event
// carries explicit zeros for the others.
type EventCounts struct {
	Confirmed    int
	Deceased     int
	Recovered    int
	Hospitalized int
}

// Add increments the count for the given event.
func (e *EventCounts) Add(event domain.EventType) {
	switch event {
	case domain.EventConfirmed:
		e.Confirmed++
	case domain.EventDeceased:
		e.Deceased++
	case domain.EventRecovered:
		e.Recovered++
	case domain.EventHospitalized:
		e.Hospitalized++
	}
}

// Get returns the count for the given event.
func (e *EventCounts) Get(event domain.EventType) int {
	switch event {
	case domain.EventConfirmed:
		return e.Confirmed
	case domain.EventDeceased:
		return e.Deceased
	case domain.EventRecovered:
		return e.Recovered
	case domain.EventHospitalized:
		return e.Hospitalized
	}
	return 0
}

// AggregateRow is one row of the aggregated table before resolution
// expansion: a (date, province key, region key, age band, sex) group with
// its new-event counts. It still carries both geographic keys; the
// expansion step later splits them into per-resolution rows.
type AggregateRow struct {
	Date     string
	Province string
	Region   string
	Age      string
	Sex      string
	Counts   EventCounts
}

type groupKey struct {
	date     string
	province string
	region   string
	age      string
	sex      string
}

// Aggregate turns one row-per-patient into one row-per-(date, group key).
// For each event type, every case with a non-nil date for that event
// contributes one count to the group keyed by that date; cases sharing all
// keys and a date are counted, not deduplicated. Events within a day have
// no ordering. Output rows are sorted by date then grouping keys.
func Aggregate(cases []domain.CaseRecord) []AggregateRow {
	groups := make(map[groupKey]*EventCounts)

	for i := range cases {
		c := &cases[i]
		for _, event := range domain.Events {
			day := c.Date(event)
			if day == nil {
				continue
			}
			key := groupKey{
				date:     cast.FormatDate(*day),
				province: c.Province,
				region:   c.Region,
				age:      c.Age,
				sex:      c.Sex,
			}
			counts, ok := groups[key]
			if !ok {
				counts = &EventCounts{}
				groups[key] = counts
			}
			counts.Add(event)
		}
	}

	rows := make([]AggregateRow, 0, len(groups))
	for key, counts := range groups {
		rows = append(rows, AggregateRow{
			Date:     key.date,
			Province: key.province,
			Region:   key.region,
			Age:      key.age,
			Sex:      key.sex,
			Counts:   *counts,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Province != b.Province {
			return a.Province < b.Province
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.Age != b.Age {
			return a.Age < b.Age
		}
		return a.Sex < b.Sex
	})

	return rows
}
