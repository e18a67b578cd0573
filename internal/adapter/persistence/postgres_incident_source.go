package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deskpulse/deskpulse/internal/domain"
	"github.com/deskpulse/deskpulse/internal/ports"
)

// PostgresIncidentSource implements RecordSource over an incidents table,
// for deployments where the ticketing export lands in PostgreSQL instead
// of a workbook. Nullable columns map onto the record's pointer fields.
type PostgresIncidentSource struct {
	db *sql.DB
}

// NewPostgresIncidentSource creates a PostgreSQL-backed record source.
func NewPostgresIncidentSource(db *sql.DB) ports.RecordSource {
	return &PostgresIncidentSource{db: db}
}

// Load reads the full incidents table.
func (s *PostgresIncidentSource) Load(ctx context.Context) ([]domain.IncidentRecord, error) {
	query := `
		SELECT number, short_description, assignment_group, region, location, resolved_by,
		       created_at, resolved_at, resolve_time_minutes, reopen_count, promised_sla_minutes, made_sla
		FROM incidents
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents: %w", err)
	}
	defer rows.Close()

	var records []domain.IncidentRecord
	for rows.Next() {
		var (
			rec             domain.IncidentRecord
			shortDesc       sql.NullString
			assignmentGroup sql.NullString
			region          sql.NullString
			location        sql.NullString
			resolvedBy      sql.NullString
			createdAt       sql.NullTime
			resolvedAt      sql.NullTime
			resolveTime     sql.NullFloat64
			reopenCount     sql.NullInt64
			promisedSLA     sql.NullFloat64
			madeSLA         sql.NullBool
		)

		if err := rows.Scan(
			&rec.Number,
			&shortDesc,
			&assignmentGroup,
			&region,
			&location,
			&resolvedBy,
			&createdAt,
			&resolvedAt,
			&resolveTime,
			&reopenCount,
			&promisedSLA,
			&madeSLA,
		); err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}

		rec.ShortDescription = shortDesc.String
		rec.AssignmentGroup = assignmentGroup.String
		rec.Region = region.String
		rec.Location = location.String
		rec.ResolvedBy = resolvedBy.String
		if createdAt.Valid {
			t := createdAt.Time
			rec.CreatedAt = &t
		}
		if resolvedAt.Valid {
			t := resolvedAt.Time
			rec.ResolvedAt = &t
		}
		if resolveTime.Valid {
			v := resolveTime.Float64
			rec.ReportedResolveMinutes = &v
		}
		if reopenCount.Valid {
			v := int(reopenCount.Int64)
			rec.ReopenCount = &v
		}
		if promisedSLA.Valid {
			v := promisedSLA.Float64
			rec.PromisedSLAMinutes = &v
		}
		if madeSLA.Valid {
			v := madeSLA.Bool
			rec.MadeSLANative = &v
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate incidents: %w", err)
	}
	return records, nil
}
