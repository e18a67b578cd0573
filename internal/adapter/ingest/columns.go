package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/deskpulse/deskpulse/internal/domain"
)

// Canonical column names used by the row mapper. The upstream exports have
// drifted between report generations, so each canonical name owns a set of
// header aliases.
const (
	colNumber           = "number"
	colShortDescription = "short_description"
	colCreated          = "created"
	colResolved         = "resolved"
	colResolveTime      = "resolve_time"
	colReopenCount      = "reopen_count"
	colMadeSLA          = "made_sla"
	colPromisedSLA      = "promised_sla"
	colAssignmentGroup  = "assignment_group"
	colResolvedBy       = "resolved_by"
	colLocation         = "location"
	colRegion           = "region"
)

var headerAliases = map[string]string{
	"number":             colNumber,
	"incident":           colNumber,
	"incident number":    colNumber,
	"id":                 colNumber,
	"short description":  colShortDescription,
	"description":        colShortDescription,
	"created":            colCreated,
	"created at":         colCreated,
	"opened":             colCreated,
	"opened at":          colCreated,
	"resolved":           colResolved,
	"resolved at":        colResolved,
	"resolve time":       colResolveTime,
	"resolve time (min)": colResolveTime,
	"resolved time":      colResolveTime,
	"reopen count":       colReopenCount,
	"reopened count":     colReopenCount,
	"made sla":           colMadeSLA,
	"promised sla":       colPromisedSLA,
	"sla promise":        colPromisedSLA,
	"assignment group":   colAssignmentGroup,
	"team":               colAssignmentGroup,
	"resolved by":        colResolvedBy,
	"technician":         colResolvedBy,
	"location":           colLocation,
	"site":               colLocation,
	"region":             colRegion,
}

// timestampLayouts are tried in order when parsing timestamp cells.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"2006-01-02",
	"01/02/2006",
	"1/2/06 15:04",
}

// rowMapper translates one tabular row into an IncidentRecord using the
// column positions discovered in the header row. Any cell that fails to
// parse degrades to a nil field; a row never fails as a whole.
type rowMapper struct {
	index map[string]int
}

func newRowMapper(header []string) *rowMapper {
	index := make(map[string]int, len(header))
	for i, raw := range header {
		key := strings.ToLower(strings.TrimSpace(raw))
		if canonical, ok := headerAliases[key]; ok {
			if _, taken := index[canonical]; !taken {
				index[canonical] = i
			}
		}
	}
	return &rowMapper{index: index}
}

func (m *rowMapper) has(column string) bool {
	_, ok := m.index[column]
	return ok
}

func (m *rowMapper) cell(row []string, column string) string {
	i, ok := m.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (m *rowMapper) record(row []string) domain.IncidentRecord {
	return domain.IncidentRecord{
		Number:                 m.cell(row, colNumber),
		ShortDescription:       m.cell(row, colShortDescription),
		AssignmentGroup:        m.cell(row, colAssignmentGroup),
		Region:                 m.cell(row, colRegion),
		Location:               m.cell(row, colLocation),
		ResolvedBy:             m.cell(row, colResolvedBy),
		CreatedAt:              parseTimestamp(m.cell(row, colCreated)),
		ResolvedAt:             parseTimestamp(m.cell(row, colResolved)),
		ReportedResolveMinutes: parseFloat(m.cell(row, colResolveTime)),
		ReopenCount:            parseInt(m.cell(row, colReopenCount)),
		PromisedSLAMinutes:     parseFloat(m.cell(row, colPromisedSLA)),
		MadeSLANative:          parseBool(m.cell(row, colMadeSLA)),
	}
}

func parseTimestamp(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	// Excel occasionally hands back raw serial date numbers.
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 {
		t := excelEpoch.Add(time.Duration(serial * 24 * float64(time.Hour)))
		return &t
	}
	return nil
}

// excelEpoch is day zero of the 1900 date system, offset by the two days
// Excel's leap-year bug and one-based counting introduce.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

func parseFloat(value string) *float64 {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseInt(value string) *int {
	f := parseFloat(value)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

func parseBool(value string) *bool {
	switch strings.ToLower(value) {
	case "true", "yes", "y", "1":
		b := true
		return &b
	case "false", "no", "n", "0":
		b := false
		return &b
	default:
		return nil
	}
}
