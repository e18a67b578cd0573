package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/deskpulse/deskpulse/internal/domain"
	"github.com/deskpulse/deskpulse/internal/logger"
	"github.com/deskpulse/deskpulse/internal/ports"
)

// OverviewResponse is the headline KPI payload for the dashboard.
type OverviewResponse struct {
	SnapshotID           string              `json:"snapshot_id"`
	Filter               domain.ReportFilter `json:"filter"`
	Metrics              domain.Metrics      `json:"metrics"`
	TechnicianCount      int                 `json:"technician_count"`
	AssignmentGroupCount int                 `json:"assignment_group_count"`

	// Month-over-month movement within the filtered set: incident volume
	// and MTTR as percent change, FCR as percentage-point change.
	IncidentChangePct float64 `json:"incident_change_pct"`
	FCRChangePts      float64 `json:"fcr_change_pts"`
	MTTRChangePct     float64 `json:"mttr_change_pct"`
}

// TrendPoint is one month of the trends series.
type TrendPoint struct {
	Month   string         `json:"month"`
	Metrics domain.Metrics `json:"metrics"`
}

// TrendsResponse is the per-month series behind the dashboard charts.
type TrendsResponse struct {
	SnapshotID string              `json:"snapshot_id"`
	Filter     domain.ReportFilter `json:"filter"`
	Months     []TrendPoint        `json:"months"`
}

// TeamMetrics is one assignment group's metrics row.
type TeamMetrics struct {
	Team    string         `json:"team"`
	Metrics domain.Metrics `json:"metrics"`
}

// TeamPerformanceResponse lists per-group metrics, largest group first.
type TeamPerformanceResponse struct {
	SnapshotID string              `json:"snapshot_id"`
	Filter     domain.ReportFilter `json:"filter"`
	Teams      []TeamMetrics       `json:"teams"`
}

// BreachSummaryResponse is the SLA-breach panel: totals, severity
// breakdown, and per-team breach rows.
type BreachSummaryResponse struct {
	SnapshotID               string                        `json:"snapshot_id"`
	Filter                   domain.ReportFilter           `json:"filter"`
	TotalIncidents           int                           `json:"total_incidents"`
	BreachCount              int                           `json:"breach_count"`
	BreachRate               float64                       `json:"breach_rate"`
	AvgBreachVarianceMinutes float64                       `json:"avg_breach_variance_minutes"`
	SeverityBreakdown        map[domain.BreachSeverity]int `json:"severity_breakdown"`
	PromiseMinutes           float64                       `json:"promise_minutes"`
	Teams                    []TeamMetrics                 `json:"teams"`
}

// BreachIncident is one row of the worst-offenders listing.
type BreachIncident struct {
	Number          string                `json:"number"`
	AssignmentGroup string                `json:"assignment_group,omitempty"`
	ResolvedBy      string                `json:"resolved_by,omitempty"`
	CreatedAt       *time.Time            `json:"created_at,omitempty"`
	ResolvedAt      *time.Time            `json:"resolved_at,omitempty"`
	BusinessMinutes float64               `json:"business_minutes"`
	VarianceMinutes float64               `json:"variance_minutes"`
	Severity        domain.BreachSeverity `json:"severity"`
	Triage          domain.TriageSeverity `json:"triage_severity"`
}

// BreachIncidentsResponse lists the incidents within one severity tier.
type BreachIncidentsResponse struct {
	SnapshotID string                `json:"snapshot_id"`
	Filter     domain.ReportFilter   `json:"filter"`
	Severity   domain.BreachSeverity `json:"severity"`
	Total      int                   `json:"total"`
	Incidents  []BreachIncident      `json:"incidents"`
}

// IncidentDetailsResponse is the single-incident triage view.
type IncidentDetailsResponse struct {
	Record         domain.IncidentRecord     `json:"record"`
	Duration       domain.DurationResult     `json:"duration"`
	Classification *domain.SLAClassification `json:"classification,omitempty"`
	Triage         domain.TriageSeverity     `json:"triage_severity"`
	PriorityBand   string                    `json:"priority_band"`

	BaselineMinutes float64               `json:"baseline_minutes"`
	BaselineSource  domain.DurationSource `json:"baseline_source"`

	// WeekendMinutesExcluded is how much wall-clock time the business-hours
	// adjustment removed.
	WeekendMinutesExcluded float64 `json:"weekend_minutes_excluded"`
}

// DimensionsResponse feeds the filter dropdowns.
type DimensionsResponse struct {
	Regions          []string `json:"regions"`
	AssignmentGroups []string `json:"assignment_groups"`
	Technicians      []string `json:"technicians"`
	Locations        []string `json:"locations"`
	Months           []string `json:"months"`
}

// ReloadResponse reports the outcome of a snapshot rebuild.
type ReloadResponse struct {
	SnapshotID   string                        `json:"snapshot_id"`
	LoadedAt     time.Time                     `json:"loaded_at"`
	RecordCount  int                           `json:"record_count"`
	SourceCounts map[domain.DurationSource]int `json:"source_counts"`
}

// breachListingCap bounds the worst-offenders listing.
const breachListingCap = 50

// ReportUseCase computes every dashboard report from the current snapshot.
// All call paths share the one classified record set, so drill-down totals
// always reconcile with the overview.
type ReportUseCase struct {
	source     ports.RecordSource
	store      *SnapshotStore
	cache      ports.ReportCache
	cacheTTL   time.Duration
	thresholds domain.Thresholds
	log        logger.Logger
}

// NewReportUseCase creates a new report use case. cache may be a noop.
func NewReportUseCase(
	source ports.RecordSource,
	store *SnapshotStore,
	cache ports.ReportCache,
	cacheTTL time.Duration,
	thresholds domain.Thresholds,
	log logger.Logger,
) *ReportUseCase {
	return &ReportUseCase{
		source:     source,
		store:      store,
		cache:      cache,
		cacheTTL:   cacheTTL,
		thresholds: thresholds,
		log:        log,
	}
}

// Thresholds exposes the named threshold configuration for the frontend.
func (uc *ReportUseCase) Thresholds() domain.Thresholds {
	return uc.thresholds
}

// Reload loads records from the source, classifies them, and publishes a
// new snapshot. The previous snapshot stays live until the swap.
func (uc *ReportUseCase) Reload(ctx context.Context) (*ReloadResponse, error) {
	records, err := uc.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	snap := BuildSnapshot(ctx, records, uc.thresholds, uc.log)
	uc.store.Replace(snap)

	return &ReloadResponse{
		SnapshotID:   snap.ID,
		LoadedAt:     snap.LoadedAt,
		RecordCount:  len(snap.Records),
		SourceCounts: snap.SourceCounts,
	}, nil
}

// Overview computes the headline metrics for a filter.
func (uc *ReportUseCase) Overview(ctx context.Context, filter domain.ReportFilter) (*OverviewResponse, error) {
	snap, err := uc.snapshot()
	if err != nil {
		return nil, err
	}

	var cached OverviewResponse
	key := "overview:" + snap.ID + ":" + filter.Key()
	if uc.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	filtered := domain.ApplyFilter(snap.Records, filter)
	resp := &OverviewResponse{
		SnapshotID:           snap.ID,
		Filter:               filter,
		Metrics:              domain.Aggregate(filtered),
		TechnicianCount:      distinctCount(filtered, func(r domain.IncidentRecord) string { return r.ResolvedBy }),
		AssignmentGroupCount: distinctCount(filtered, func(r domain.IncidentRecord) string { return r.AssignmentGroup }),
	}
	resp.IncidentChangePct, resp.FCRChangePts, resp.MTTRChangePct = monthOverMonth(filtered)

	uc.toCache(ctx, key, resp)
	return resp, nil
}

// Trends computes the per-month series for a filter.
func (uc *ReportUseCase) Trends(ctx context.Context, filter domain.ReportFilter) (*TrendsResponse, error) {
	snap, err := uc.snapshot()
	if err != nil {
		return nil, err
	}

	var cached TrendsResponse
	key := "trends:" + snap.ID + ":" + filter.Key()
	if uc.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	filtered := domain.ApplyFilter(snap.Records, filter)
	grouped := domain.AggregateGrouped(filtered, func(cr domain.ClassifiedRecord) string {
		return cr.Record.Month()
	})

	months := make([]TrendPoint, 0, len(grouped))
	for month, m := range grouped {
		months = append(months, TrendPoint{Month: month, Metrics: m})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })

	resp := &TrendsResponse{SnapshotID: snap.ID, Filter: filter, Months: months}
	uc.toCache(ctx, key, resp)
	return resp, nil
}

// TeamPerformance computes per-assignment-group metrics for a filter.
func (uc *ReportUseCase) TeamPerformance(ctx context.Context, filter domain.ReportFilter) (*TeamPerformanceResponse, error) {
	snap, err := uc.snapshot()
	if err != nil {
		return nil, err
	}

	filtered := domain.ApplyFilter(snap.Records, filter)
	return &TeamPerformanceResponse{SnapshotID: snap.ID, Filter: filter, Teams: teamMetrics(filtered)}, nil
}

// teamMetrics reduces a filtered record set into per-assignment-group rows,
// largest group first.
func teamMetrics(records []domain.ClassifiedRecord) []TeamMetrics {
	grouped := domain.AggregateGrouped(records, func(cr domain.ClassifiedRecord) string {
		return cr.Record.AssignmentGroup
	})

	teams := make([]TeamMetrics, 0, len(grouped))
	for team, m := range grouped {
		teams = append(teams, TeamMetrics{Team: team, Metrics: m})
	}
	sort.Slice(teams, func(i, j int) bool {
		if teams[i].Metrics.TotalCount != teams[j].Metrics.TotalCount {
			return teams[i].Metrics.TotalCount > teams[j].Metrics.TotalCount
		}
		return teams[i].Team < teams[j].Team
	})
	return teams
}

// BreachSummary computes the SLA-breach panel for a filter. The totals and
// the per-team rows are derived from one snapshot fetch and one filter pass,
// so they cannot straddle a concurrent reload.
func (uc *ReportUseCase) BreachSummary(ctx context.Context, filter domain.ReportFilter) (*BreachSummaryResponse, error) {
	snap, err := uc.snapshot()
	if err != nil {
		return nil, err
	}

	filtered := domain.ApplyFilter(snap.Records, filter)
	m := domain.Aggregate(filtered)

	return &BreachSummaryResponse{
		SnapshotID:               snap.ID,
		Filter:                   filter,
		TotalIncidents:           m.TotalCount,
		BreachCount:              m.BreachCount,
		BreachRate:               m.BreachRate,
		AvgBreachVarianceMinutes: m.AvgBreachVarianceMinutes,
		SeverityBreakdown:        m.SeverityCounts,
		PromiseMinutes:           uc.thresholds.BaselineMinutes,
		Teams:                    teamMetrics(filtered),
	}, nil
}

// BreachIncidents lists the worst incidents within one severity tier,
// sorted by how far over promise they ran, capped at breachListingCap.
func (uc *ReportUseCase) BreachIncidents(ctx context.Context, filter domain.ReportFilter, severity domain.BreachSeverity) (*BreachIncidentsResponse, error) {
	snap, err := uc.snapshot()
	if err != nil {
		return nil, err
	}

	filtered := domain.ApplyFilter(snap.Records, filter)
	matches := make([]BreachIncident, 0)
	for _, cr := range filtered {
		if !cr.Duration.Valid || cr.Classification.Severity != severity {
			continue
		}
		matches = append(matches, BreachIncident{
			Number:          cr.Record.Number,
			AssignmentGroup: cr.Record.AssignmentGroup,
			ResolvedBy:      cr.Record.ResolvedBy,
			CreatedAt:       cr.Record.CreatedAt,
			ResolvedAt:      cr.Record.ResolvedAt,
			BusinessMinutes: cr.Duration.BusinessMinutes,
			VarianceMinutes: cr.Classification.VarianceMinutes,
			Severity:        cr.Classification.Severity,
			Triage:          domain.TriageSeverityFor(cr.Classification.Breached, cr.Classification.VarianceMinutes),
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].VarianceMinutes > matches[j].VarianceMinutes })

	total := len(matches)
	if len(matches) > breachListingCap {
		matches = matches[:breachListingCap]
	}

	return &BreachIncidentsResponse{
		SnapshotID: snap.ID,
		Filter:     filter,
		Severity:   severity,
		Total:      total,
		Incidents:  matches,
	}, nil
}

// IncidentDetails returns the triage view for one incident number.
func (uc *ReportUseCase) IncidentDetails(ctx context.Context, number string) (*IncidentDetailsResponse, error) {
	snap, err := uc.snapshot()
	if err != nil {
		return nil, err
	}

	for _, cr := range snap.Records {
		if cr.Record.Number != number {
			continue
		}

		resp := &IncidentDetailsResponse{
			Record:          cr.Record,
			Duration:        cr.Duration,
			Triage:          domain.TriageMet,
			PriorityBand:    domain.MTTRPriorityBand(cr.Duration.BusinessMinutes),
			BaselineMinutes: cr.BaselineMinutes,
			BaselineSource:  cr.BaselineSource,
		}
		if cr.Duration.Valid {
			c := cr.Classification
			resp.Classification = &c
			resp.Triage = domain.TriageSeverityFor(c.Breached, c.VarianceMinutes)
			resp.WeekendMinutesExcluded = cr.Duration.ElapsedMinutes - cr.Duration.BusinessMinutes
		}
		return resp, nil
	}
	return nil, domain.ErrIncidentNotFound
}

// Dimensions lists the distinct values of every drill-down dimension.
func (uc *ReportUseCase) Dimensions(ctx context.Context) (*DimensionsResponse, error) {
	snap, err := uc.snapshot()
	if err != nil {
		return nil, err
	}

	return &DimensionsResponse{
		Regions:          distinctValues(snap.Records, func(r domain.IncidentRecord) string { return r.Region }),
		AssignmentGroups: distinctValues(snap.Records, func(r domain.IncidentRecord) string { return r.AssignmentGroup }),
		Technicians:      distinctValues(snap.Records, func(r domain.IncidentRecord) string { return r.ResolvedBy }),
		Locations:        distinctValues(snap.Records, func(r domain.IncidentRecord) string { return r.Location }),
		Months:           distinctValues(snap.Records, func(r domain.IncidentRecord) string { return r.Month() }),
	}, nil
}

func (uc *ReportUseCase) snapshot() (*Snapshot, error) {
	snap := uc.store.Current()
	if snap == nil {
		return nil, domain.ErrNoSnapshot
	}
	return snap, nil
}

func (uc *ReportUseCase) fromCache(ctx context.Context, key string, out interface{}) bool {
	if uc.cache == nil {
		return false
	}
	payload, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.log.Debug(ctx, "Report cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	if payload == nil {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		uc.log.Warn(ctx, "Report cache payload corrupt", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	return true
}

func (uc *ReportUseCase) toCache(ctx context.Context, key string, value interface{}) {
	if uc.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, key, payload, uc.cacheTTL); err != nil {
		uc.log.Debug(ctx, "Report cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// monthOverMonth compares the latest month in the filtered set against the
// month before it. Missing months yield zero deltas.
func monthOverMonth(records []domain.ClassifiedRecord) (incidentPct, fcrPts, mttrPct float64) {
	grouped := domain.AggregateGrouped(records, func(cr domain.ClassifiedRecord) string {
		return cr.Record.Month()
	})
	if len(grouped) == 0 {
		return 0, 0, 0
	}

	latest := ""
	for month := range grouped {
		if month > latest {
			latest = month
		}
	}
	latestTime, err := time.Parse("2006-01", latest)
	if err != nil {
		return 0, 0, 0
	}
	previous := latestTime.AddDate(0, -1, 0).Format("2006-01")

	cur, prev := grouped[latest], grouped[previous]
	if prev.TotalCount == 0 {
		return 0, 0, 0
	}

	incidentPct = float64(cur.TotalCount-prev.TotalCount) / float64(prev.TotalCount) * 100
	fcrPts = cur.FCRRate - prev.FCRRate
	if prev.AvgMTTRBusinessMinutes > 0 {
		mttrPct = (cur.AvgMTTRBusinessMinutes - prev.AvgMTTRBusinessMinutes) / prev.AvgMTTRBusinessMinutes * 100
	}
	return incidentPct, fcrPts, mttrPct
}

func distinctCount(records []domain.ClassifiedRecord, value func(domain.IncidentRecord) string) int {
	return len(distinctValues(records, value))
}

func distinctValues(records []domain.ClassifiedRecord, value func(domain.IncidentRecord) string) []string {
	seen := make(map[string]struct{})
	for _, cr := range records {
		if v := value(cr.Record); v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
