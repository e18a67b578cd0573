package domain

import (
	"math"
	"time"
)

// DurationSource names the branch that supplied a baseline minute count,
// so the ingestion pipeline can report which records relied on a fallback.
type DurationSource string

const (
	// SourceComputed means the business-hours calculation from timestamps.
	SourceComputed DurationSource = "business_calc"
	// SourceReported means the upstream resolve-time field was trusted.
	SourceReported DurationSource = "reported_field"
	// SourceElapsedFallback means the resolve-time field was present but
	// unusable and the wall-clock elapsed value was used instead.
	SourceElapsedFallback DurationSource = "elapsed_fallback"
)

// DurationResult holds the per-record resolution durations. Valid is false
// when either timestamp is missing or the timestamps are inverted; such a
// record is excluded from every duration-dependent aggregate. ElapsedMinutes
// is kept unclamped, negative values included, for data-quality visibility.
type DurationResult struct {
	Valid           bool    `json:"valid"`
	BusinessMinutes float64 `json:"business_minutes"`
	ElapsedMinutes  float64 `json:"elapsed_minutes"`
}

// BusinessMinutes returns the minutes between start and end that fall on
// Monday through Friday. The interval is walked day by day: each weekday
// contributes the overlap between the interval and that calendar day, and
// Saturdays and Sundays contribute nothing. Returns 0 when end precedes
// start. Both inputs are assumed to be in the same location; the function
// performs no time-zone conversion.
func BusinessMinutes(start, end time.Time) float64 {
	if end.Before(start) {
		return 0
	}

	total := 0.0
	current := start
	for current.Before(end) {
		nextMidnight := time.Date(current.Year(), current.Month(), current.Day(), 0, 0, 0, 0, current.Location()).AddDate(0, 0, 1)
		if wd := current.Weekday(); wd != time.Saturday && wd != time.Sunday {
			segmentEnd := end
			if nextMidnight.Before(end) {
				segmentEnd = nextMidnight
			}
			total += segmentEnd.Sub(current).Minutes()
		}
		current = nextMidnight
	}
	return total
}

// ResolveDuration computes the resolution durations for one record. A record
// missing either timestamp yields the zero DurationResult (Valid=false).
func ResolveDuration(rec IncidentRecord) DurationResult {
	if rec.CreatedAt == nil || rec.ResolvedAt == nil {
		return DurationResult{}
	}

	elapsed := rec.ResolvedAt.Sub(*rec.CreatedAt).Minutes()
	return DurationResult{
		Valid:           elapsed >= 0,
		BusinessMinutes: BusinessMinutes(*rec.CreatedAt, *rec.ResolvedAt),
		ElapsedMinutes:  elapsed,
	}
}

// BaselineMinutes returns the minute count the breach family of calculations
// should treat as authoritative, together with the branch that supplied it.
// A valid reported resolve time wins; a present-but-unusable one falls back
// to the wall-clock elapsed value; an absent one falls back to the
// business-hours calculation.
func BaselineMinutes(rec IncidentRecord, d DurationResult) (float64, DurationSource) {
	if v := rec.ReportedResolveMinutes; v != nil {
		if !math.IsNaN(*v) && *v >= 0 {
			return *v, SourceReported
		}
		return d.ElapsedMinutes, SourceElapsedFallback
	}
	return d.BusinessMinutes, SourceComputed
}
