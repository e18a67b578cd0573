package domain

import (
	"fmt"
	"time"
)

// IncidentRecord represents a single incident ticket as supplied by the
// ingestion layer. Optional upstream fields are pointers; a nil value means
// the source did not provide the field, which is a data-quality condition,
// not an error.
type IncidentRecord struct {
	Number           string     `json:"number"`
	ShortDescription string     `json:"short_description,omitempty"`
	AssignmentGroup  string     `json:"assignment_group,omitempty"`
	Region           string     `json:"region,omitempty"`
	Location         string     `json:"location,omitempty"`
	ResolvedBy       string     `json:"resolved_by,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`

	// ReportedResolveMinutes is the upstream ticketing system's own resolve
	// time. When valid it takes precedence on the breach pathway.
	ReportedResolveMinutes *float64 `json:"reported_resolve_minutes,omitempty"`
	ReopenCount            *int     `json:"reopen_count,omitempty"`
	PromisedSLAMinutes     *float64 `json:"promised_sla_minutes,omitempty"`
	// MadeSLANative is the upstream "Made SLA" flag, kept only for
	// comparison reporting against the computed compliance rate.
	MadeSLANative *bool `json:"made_sla_native,omitempty"`
}

// Resolved reports whether the record carries a resolution timestamp.
func (r IncidentRecord) Resolved() bool {
	return r.ResolvedAt != nil
}

// FCRValid reports whether the record can participate in first-contact
// resolution rates. A missing reopen count excludes it from both the
// numerator and the denominator.
func (r IncidentRecord) FCRValid() bool {
	return r.ReopenCount != nil
}

// FirstContact reports whether the record was resolved without a reopen.
func (r IncidentRecord) FirstContact() bool {
	return r.ReopenCount != nil && *r.ReopenCount == 0
}

// PromisedMinutes returns the per-record SLA promise, or def when the
// record carries none.
func (r IncidentRecord) PromisedMinutes(def float64) float64 {
	if r.PromisedSLAMinutes != nil {
		return *r.PromisedSLAMinutes
	}
	return def
}

// Month returns the "YYYY-MM" bucket of the creation timestamp, or ""
// when the record has no creation timestamp.
func (r IncidentRecord) Month() string {
	if r.CreatedAt == nil {
		return ""
	}
	return r.CreatedAt.Format("2006-01")
}

// Quarter returns the "YYYY-Qn" calendar quarter of the creation timestamp.
func (r IncidentRecord) Quarter() string {
	if r.CreatedAt == nil {
		return ""
	}
	q := (int(r.CreatedAt.Month())-1)/3 + 1
	return fmt.Sprintf("%d-Q%d", r.CreatedAt.Year(), q)
}

// DomainError represents a domain-specific error
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

var (
	ErrIncidentNotFound = NewDomainError("incident not found")
	ErrNoSnapshot       = NewDomainError("no incident snapshot loaded")
)
