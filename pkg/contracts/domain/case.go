package domain

import (
	"time"
)

// RawCase holds one line-list row as it arrives from the registry after
// column renaming, before imputation and stratification. The helper fields
// (Prognosis, Admitted, DateEstimate) only exist to derive the event dates
// and are discarded before aggregation.
type RawCase struct {
	Province     string // free-text province name, may be blank
	Region       string // free-text region name
	Confirmed    string // raw date strings, any of them may be blank
	Deceased     string
	Recovered    string
	DateEstimate string // case report date, used to estimate missing outcome dates
	Admitted     string // admission flag, "yes"/"no" in arbitrary casing
	Prognosis    string // removal/outcome category ("Recovered", "Died", ...)
	Age          string // raw numeric age
	Sex          string
}

// CaseRecord is one patient after imputation and stratification. Event
// dates are optional; a nil date means the event was never recorded (or
// its raw value did not parse) and the case contributes nothing to that
// event's series.
type CaseRecord struct {
	Province     string
	Region       string
	Confirmed    *time.Time
	Deceased     *time.Time
	Recovered    *time.Time
	Hospitalized *time.Time
	Age          string // age band, not raw age
	Sex          string
}

// EventType identifies one of the tracked case events.
type EventType string

const (
	EventConfirmed    EventType = "confirmed"
	EventDeceased     EventType = "deceased"
	EventRecovered    EventType = "recovered"
	EventHospitalized EventType = "hospitalized"
)

// Events enumerates every tracked event type in a fixed order. Aggregation
// iterates this list instead of inspecting columns dynamically.
var Events = []EventType{EventConfirmed, EventDeceased, EventRecovered, EventHospitalized}

// Date returns the recorded date of the given event for this case, or nil
// when the event was never recorded.
func (c *CaseRecord) Date(event EventType) *time.Time {
	switch event {
	case EventConfirmed:
		return c.Confirmed
	case EventDeceased:
		return c.Deceased
	case EventRecovered:
		return c.Recovered
	case EventHospitalized:
		return c.Hospitalized
	}
	return nil
}

// Outcome categories recorded by the registry's removal column.
const (
	PrognosisRecovered = "Recovered"
	PrognosisDied      = "Died"
)

// AgeBandUnknown is the explicit band assigned to missing or invalid raw
// ages. It groups like any other band so unknown-age cases stay counted.
const AgeBandUnknown = "age_unknown"
