package domain

import (
	"testing"
	"time"
)

func resolvedRecord(number, created, resolved string, reopen *int) IncidentRecord {
	return IncidentRecord{
		Number:      number,
		CreatedAt:   tsPtr(created),
		ResolvedAt:  tsPtr(resolved),
		ReopenCount: reopen,
	}
}

func intPtr(v int) *int { return &v }

func TestAggregate_FCRExclusion(t *testing.T) {
	// Nine records: one null reopen count, five zeros, three positives.
	records := []IncidentRecord{
		resolvedRecord("INC001", "2025-02-03 09:00:00", "2025-02-03 10:00:00", nil),
	}
	for i := 0; i < 5; i++ {
		records = append(records, resolvedRecord("INC00Z", "2025-02-03 09:00:00", "2025-02-03 10:00:00", intPtr(0)))
	}
	for i := 0; i < 3; i++ {
		records = append(records, resolvedRecord("INC00R", "2025-02-03 09:00:00", "2025-02-03 10:00:00", intPtr(i+1)))
	}

	m := Aggregate(ClassifyRecords(records, DefaultThresholds()))

	if m.FCRValidCount != 8 {
		t.Errorf("Expected fcr_valid_count 8, got %d", m.FCRValidCount)
	}
	if m.FCRSuccessCount != 5 {
		t.Errorf("Expected fcr_success_count 5, got %d", m.FCRSuccessCount)
	}
	if m.FCRRate != 62.5 {
		t.Errorf("Expected fcr_rate 62.5, got %v", m.FCRRate)
	}
}

func TestAggregate_EmptySet(t *testing.T) {
	m := Aggregate(nil)

	if m.TotalCount != 0 || m.FCRRate != 0 || m.BreachRate != 0 ||
		m.AvgMTTRBusinessMinutes != 0 || m.AvgBreachVarianceMinutes != 0 {
		t.Errorf("Expected all-zero metrics for an empty set, got %+v", m)
	}
	for _, sev := range BreachSeverities {
		if m.SeverityCounts[sev] != 0 {
			t.Errorf("Expected zero %s count, got %d", sev, m.SeverityCounts[sev])
		}
	}
}

func TestAggregate_EndToEndScenario(t *testing.T) {
	records := []IncidentRecord{
		resolvedRecord("INC001", "2025-02-03 09:00:00", "2025-02-03 10:30:00", intPtr(0)), // Monday, 90 min
		resolvedRecord("INC002", "2025-02-04 14:30:00", "2025-02-04 16:45:00", intPtr(1)), // Tuesday, 135 min
	}

	m := Aggregate(ClassifyRecords(records, DefaultThresholds()))

	if m.TotalCount != 2 {
		t.Errorf("Expected total_count 2, got %d", m.TotalCount)
	}
	if m.FCRRate != 50.0 {
		t.Errorf("Expected fcr_rate 50.0, got %v", m.FCRRate)
	}
	if m.AvgMTTRBusinessMinutes != 112.5 {
		t.Errorf("Expected avg_mttr_business_minutes 112.5, got %v", m.AvgMTTRBusinessMinutes)
	}
	if m.BreachCount != 0 {
		t.Errorf("Expected breach_count 0, got %d", m.BreachCount)
	}
	if m.SLABaselineRate != 100.0 {
		t.Errorf("Expected sla_baseline_rate 100.0, got %v", m.SLABaselineRate)
	}
}

func TestAggregate_SeverityCountsSumToValid(t *testing.T) {
	records := []IncidentRecord{
		resolvedRecord("INC001", "2025-02-03 09:00:00", "2025-02-03 10:00:00", nil),  // met
		resolvedRecord("INC002", "2025-02-03 09:00:00", "2025-02-03 15:00:00", nil),  // 360 min: minor (+120)
		resolvedRecord("INC003", "2025-02-03 09:00:00", "2025-02-03 16:30:00", nil),  // 450 min: moderate (+210)
		resolvedRecord("INC004", "2025-02-03 09:00:00", "2025-02-04 09:00:00", nil),  // 1440 min: critical
		{Number: "INC005", CreatedAt: tsPtr("2025-02-03 09:00:00")},                  // unresolved
	}

	m := Aggregate(ClassifyRecords(records, DefaultThresholds()))

	if m.MTTRValidCount != 4 {
		t.Fatalf("Expected mttr_valid_count 4, got %d", m.MTTRValidCount)
	}
	sum := 0
	for _, sev := range BreachSeverities {
		sum += m.SeverityCounts[sev]
	}
	if sum != m.MTTRValidCount {
		t.Errorf("Expected severity counts to sum to %d, got %d", m.MTTRValidCount, sum)
	}
	if m.SeverityCounts[SeverityMet] != 1 || m.SeverityCounts[SeverityMinor] != 1 ||
		m.SeverityCounts[SeverityModerate] != 1 || m.SeverityCounts[SeverityCritical] != 1 {
		t.Errorf("Unexpected severity breakdown: %v", m.SeverityCounts)
	}
	if m.BreachCount != 3 {
		t.Errorf("Expected breach_count 3, got %d", m.BreachCount)
	}
	if m.AvgBreachVarianceMinutes != (120+210+1200)/3.0 {
		t.Errorf("Expected avg_breach_variance_minutes 510, got %v", m.AvgBreachVarianceMinutes)
	}
}

func TestAggregate_UnresolvedCountedInTotalsOnly(t *testing.T) {
	records := []IncidentRecord{
		resolvedRecord("INC001", "2025-02-03 09:00:00", "2025-02-03 10:00:00", intPtr(0)),
		{Number: "INC002", CreatedAt: tsPtr("2025-02-03 09:00:00"), ReopenCount: intPtr(0)},
	}

	m := Aggregate(ClassifyRecords(records, DefaultThresholds()))

	if m.TotalCount != 2 {
		t.Errorf("Expected total_count 2, got %d", m.TotalCount)
	}
	if m.MTTRValidCount != 1 {
		t.Errorf("Expected mttr_valid_count 1, got %d", m.MTTRValidCount)
	}
	// FCR validity is independent of MTTR validity.
	if m.FCRValidCount != 2 {
		t.Errorf("Expected fcr_valid_count 2, got %d", m.FCRValidCount)
	}
}

func TestAggregateGrouped_ConsistentWithWholeSet(t *testing.T) {
	var records []IncidentRecord
	months := []string{"2025-02", "2025-03", "2025-04"}
	for i, month := range months {
		day := time.Date(2025, time.Month(i+2), 3, 9, 0, 0, 0, time.UTC)
		for j := 0; j < 3+i; j++ {
			created := day.Add(time.Duration(j) * time.Hour)
			resolved := created.Add(time.Duration(60+200*j) * time.Minute)
			reopen := j % 2
			records = append(records, IncidentRecord{
				Number:      month,
				CreatedAt:   &created,
				ResolvedAt:  &resolved,
				ReopenCount: &reopen,
			})
		}
	}

	classified := ClassifyRecords(records, DefaultThresholds())
	whole := Aggregate(classified)
	grouped := AggregateGrouped(classified, func(cr ClassifiedRecord) string {
		return cr.Record.Month()
	})

	if len(grouped) != len(months) {
		t.Fatalf("Expected %d groups, got %d", len(months), len(grouped))
	}

	var totalSum, breachSum, fcrSuccessSum int
	for _, m := range grouped {
		totalSum += m.TotalCount
		breachSum += m.BreachCount
		fcrSuccessSum += m.FCRSuccessCount
	}

	if totalSum != whole.TotalCount {
		t.Errorf("Group total_count sum %d != whole-set %d", totalSum, whole.TotalCount)
	}
	if breachSum != whole.BreachCount {
		t.Errorf("Group breach_count sum %d != whole-set %d", breachSum, whole.BreachCount)
	}
	if fcrSuccessSum != whole.FCRSuccessCount {
		t.Errorf("Group fcr_success_count sum %d != whole-set %d", fcrSuccessSum, whole.FCRSuccessCount)
	}
}
