// Package caseline converts line-list case records into a date-indexed
// aggregate. Every step is a pure function over typed records; the silent
// exclusion rules for missing and malformed values live in the type system
// (a nil date contributes nothing).
package caseline

import (
	"strings"
	"time"

	"epipulse/pkg/contracts/domain"
)

// ImputeOutcomeDates fills a missing recovery date when the recorded
// outcome is "Recovered", and a missing death date when it is "Died",
// using the report-date estimate. An already-present date is never
// overwritten and no other field is touched, so the operation is
// idempotent. A nil estimate leaves the date nil, which downstream
// filtering handles as usual.
func ImputeOutcomeDates(c *domain.CaseRecord, prognosis string, estimate *time.Time) {
	switch prognosis {
	case domain.PrognosisRecovered:
		if c.Recovered == nil {
			c.Recovered = copyDate(estimate)
		}
	case domain.PrognosisDied:
		if c.Deceased == nil {
			c.Deceased = copyDate(estimate)
		}
	}
}

// InferHospitalization sets the hospitalization date to the confirmation
// date when the admission flag reads "yes" (case-insensitive). Admission
// dates are not reported separately, so the confirmation date is the best
// available proxy; this is a deliberate approximation.
func InferHospitalization(c *domain.CaseRecord, admitted string) {
	if !strings.EqualFold(strings.TrimSpace(admitted), "yes") {
		return
	}
	c.Hospitalized = copyDate(c.Confirmed)
}

func copyDate(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	day := *d
	return &day
}
