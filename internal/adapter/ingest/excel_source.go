package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/deskpulse/deskpulse/internal/domain"
	"github.com/deskpulse/deskpulse/internal/logger"
	"github.com/deskpulse/deskpulse/internal/ports"
)

// ExcelSource loads incident records from an xlsx workbook. One row is one
// incident; the first row is the header. Unparseable cells become nil
// fields rather than failing the load.
type ExcelSource struct {
	path          string
	sheet         string
	regionMapPath string
	log           logger.Logger
}

// NewExcelSource creates a workbook-backed record source. sheet may be
// empty to use the workbook's first sheet; regionMapPath may be empty.
func NewExcelSource(path, sheet, regionMapPath string, log logger.Logger) ports.RecordSource {
	return &ExcelSource{path: path, sheet: sheet, regionMapPath: regionMapPath, log: log}
}

// Load reads the workbook into a record slice.
func (s *ExcelSource) Load(ctx context.Context) ([]domain.IncidentRecord, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", s.path, err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	mapper := newRowMapper(rows[0])
	if !mapper.has(colCreated) {
		return nil, fmt.Errorf("sheet %s has no recognizable created-timestamp column", sheet)
	}

	var regions map[string]string
	if !mapper.has(colRegion) && s.regionMapPath != "" {
		regions, err = loadRegionMap(s.regionMapPath)
		if err != nil {
			s.log.Warn(ctx, "Region map unavailable, regions will be empty", map[string]interface{}{
				"path":  s.regionMapPath,
				"error": err.Error(),
			})
		}
	}

	records := make([]domain.IncidentRecord, 0, len(rows)-1)
	var skipped int
	for _, row := range rows[1:] {
		rec := mapper.record(row)
		if rec.Number == "" && rec.CreatedAt == nil {
			skipped++
			continue
		}
		if rec.Region == "" && regions != nil {
			rec.Region = regions[strings.ToLower(rec.AssignmentGroup)]
		}
		records = append(records, rec)
	}

	logger.LogDataQuality(ctx, s.log, "blank spreadsheet rows skipped", skipped, map[string]interface{}{"path": s.path})
	s.log.Info(ctx, "Workbook loaded", map[string]interface{}{
		"path":         s.path,
		"sheet":        sheet,
		"record_count": len(records),
	})
	return records, nil
}

// loadRegionMap reads a two-column workbook mapping assignment groups to
// regions, keyed case-insensitively by group.
func loadRegionMap(path string) (map[string]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}

	regions := make(map[string]string)
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		group := strings.ToLower(strings.TrimSpace(row[0]))
		region := strings.TrimSpace(row[1])
		if group != "" && region != "" {
			regions[group] = region
		}
	}
	return regions, nil
}
