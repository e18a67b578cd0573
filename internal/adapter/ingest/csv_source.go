package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/deskpulse/deskpulse/internal/domain"
	"github.com/deskpulse/deskpulse/internal/logger"
	"github.com/deskpulse/deskpulse/internal/ports"
)

// CSVSource loads incident records from a CSV export with the same column
// conventions as the workbook source.
type CSVSource struct {
	path string
	log  logger.Logger
}

// NewCSVSource creates a CSV-backed record source.
func NewCSVSource(path string, log logger.Logger) ports.RecordSource {
	return &CSVSource{path: path, log: log}
}

// Load reads the CSV file into a record slice.
func (s *CSVSource) Load(ctx context.Context) ([]domain.IncidentRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV %s: %w", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV %s: %w", s.path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV %s is empty", s.path)
	}

	mapper := newRowMapper(rows[0])
	if !mapper.has(colCreated) {
		return nil, fmt.Errorf("CSV %s has no recognizable created-timestamp column", s.path)
	}

	records := make([]domain.IncidentRecord, 0, len(rows)-1)
	var skipped int
	for _, row := range rows[1:] {
		rec := mapper.record(row)
		if rec.Number == "" && rec.CreatedAt == nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	logger.LogDataQuality(ctx, s.log, "blank CSV rows skipped", skipped, map[string]interface{}{"path": s.path})
	s.log.Info(ctx, "CSV loaded", map[string]interface{}{
		"path":         s.path,
		"record_count": len(records),
	})
	return records, nil
}
