package domain

import "strings"

// ReportFilter narrows a record set by the dashboard's drill-down
// dimensions. An empty or "all" value leaves that dimension unconstrained.
// Month takes precedence over Quarter when both are set.
type ReportFilter struct {
	Quarter         string `json:"quarter,omitempty"`         // "2025-Q1"
	Month           string `json:"month,omitempty"`           // "2025-02"
	Region          string `json:"region,omitempty"`
	Location        string `json:"location,omitempty"`
	AssignmentGroup string `json:"assignment_group,omitempty"`
	Technician      string `json:"technician,omitempty"`
}

// Key returns a canonical representation of the filter, used as part of
// cache keys.
func (f ReportFilter) Key() string {
	parts := []string{
		normalizeDim(f.Quarter),
		normalizeDim(f.Month),
		normalizeDim(f.Region),
		normalizeDim(f.Location),
		normalizeDim(f.AssignmentGroup),
		normalizeDim(f.Technician),
	}
	return strings.Join(parts, "|")
}

// Match reports whether a record satisfies every constrained dimension.
func (f ReportFilter) Match(rec IncidentRecord) bool {
	if month := normalizeDim(f.Month); month != "" {
		if !strings.EqualFold(rec.Month(), month) {
			return false
		}
	} else if quarter := normalizeDim(f.Quarter); quarter != "" {
		if !strings.EqualFold(rec.Quarter(), quarter) {
			return false
		}
	}
	if !matchDim(rec.Region, f.Region) {
		return false
	}
	if !matchDim(rec.Location, f.Location) {
		return false
	}
	if !matchDim(rec.AssignmentGroup, f.AssignmentGroup) {
		return false
	}
	if !matchDim(rec.ResolvedBy, f.Technician) {
		return false
	}
	return true
}

// ApplyFilter returns the classified records whose underlying record
// matches the filter. The input slice is never mutated.
func ApplyFilter(records []ClassifiedRecord, f ReportFilter) []ClassifiedRecord {
	out := make([]ClassifiedRecord, 0, len(records))
	for _, cr := range records {
		if f.Match(cr.Record) {
			out = append(out, cr)
		}
	}
	return out
}

func normalizeDim(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

func matchDim(value, constraint string) bool {
	constraint = normalizeDim(constraint)
	if constraint == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(value), constraint)
}
