package domain

// ClassifiedRecord bundles a record with its durations and SLA evaluation.
// Classification happens exactly once, when a snapshot is built; every
// reported statistic, whole-set or grouped, is then derived from the same
// classified set so totals agree across endpoints by construction.
type ClassifiedRecord struct {
	Record   IncidentRecord `json:"record"`
	Duration DurationResult `json:"duration"`
	// Classification is meaningful only when Duration.Valid is true.
	Classification SLAClassification `json:"classification"`
	// BaselineMinutes and BaselineSource record the breach-pathway minute
	// count and which resolver branch supplied it.
	BaselineMinutes float64        `json:"baseline_minutes"`
	BaselineSource  DurationSource `json:"baseline_source"`
}

// ClassifyRecord computes durations and, when defined, the SLA
// classification for one record.
func ClassifyRecord(rec IncidentRecord, t Thresholds) ClassifiedRecord {
	cr := ClassifiedRecord{
		Record:   rec,
		Duration: ResolveDuration(rec),
	}
	cr.BaselineMinutes, cr.BaselineSource = BaselineMinutes(rec, cr.Duration)
	if cr.Duration.Valid {
		cr.Classification = Classify(cr.Duration, t, rec.PromisedMinutes(t.BaselineMinutes))
	}
	return cr
}

// ClassifyRecords classifies a whole record set.
func ClassifyRecords(records []IncidentRecord, t Thresholds) []ClassifiedRecord {
	out := make([]ClassifiedRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, ClassifyRecord(rec, t))
	}
	return out
}

// Metrics is the reduced statistics block served to the dashboard. Every
// rate is a percentage in [0,100] and every empty denominator yields 0.
type Metrics struct {
	TotalCount int `json:"total_count"`

	FCRValidCount   int     `json:"fcr_valid_count"`
	FCRSuccessCount int     `json:"fcr_success_count"`
	FCRRate         float64 `json:"fcr_rate"`

	MTTRValidCount         int     `json:"mttr_valid_count"`
	AvgMTTRBusinessMinutes float64 `json:"avg_mttr_business_minutes"`
	AvgMTTRElapsedMinutes  float64 `json:"avg_mttr_elapsed_minutes"`

	SLABaselineRate float64 `json:"sla_baseline_rate"`
	SLAGoalRate     float64 `json:"sla_goal_rate"`
	// SLANativeRate is the upstream "Made SLA" flag rate over all records,
	// reported alongside the computed rates for comparison.
	SLANativeRate float64 `json:"sla_native_rate"`

	BreachCount              int                    `json:"breach_count"`
	BreachRate               float64                `json:"breach_rate"`
	SeverityCounts           map[BreachSeverity]int `json:"severity_counts"`
	AvgBreachVarianceMinutes float64                `json:"avg_breach_variance_minutes"`
}

// Aggregate reduces a classified record set into Metrics. An empty input
// produces a fully zero-valued Metrics, never an error.
func Aggregate(records []ClassifiedRecord) Metrics {
	m := Metrics{
		TotalCount:     len(records),
		SeverityCounts: make(map[BreachSeverity]int, len(BreachSeverities)),
	}
	for _, sev := range BreachSeverities {
		m.SeverityCounts[sev] = 0
	}

	var (
		businessSum float64
		elapsedSum  float64
		baselineMet int
		goalMet     int
		nativeMet   int
		varianceSum float64
	)

	for _, cr := range records {
		if cr.Record.FCRValid() {
			m.FCRValidCount++
			if cr.Record.FirstContact() {
				m.FCRSuccessCount++
			}
		}
		if cr.Record.MadeSLANative != nil && *cr.Record.MadeSLANative {
			nativeMet++
		}

		if !cr.Duration.Valid {
			continue
		}
		m.MTTRValidCount++
		businessSum += cr.Duration.BusinessMinutes
		elapsedSum += cr.Duration.ElapsedMinutes

		c := cr.Classification
		if c.MeetsBaseline {
			baselineMet++
		}
		if c.MeetsGoal {
			goalMet++
		}
		if c.Breached {
			m.BreachCount++
			varianceSum += c.VarianceMinutes
		}
		m.SeverityCounts[c.Severity]++
	}

	m.FCRRate = percentage(m.FCRSuccessCount, m.FCRValidCount)
	m.SLANativeRate = percentage(nativeMet, m.TotalCount)
	m.SLABaselineRate = percentage(baselineMet, m.MTTRValidCount)
	m.SLAGoalRate = percentage(goalMet, m.MTTRValidCount)
	m.BreachRate = percentage(m.BreachCount, m.MTTRValidCount)
	if m.MTTRValidCount > 0 {
		m.AvgMTTRBusinessMinutes = businessSum / float64(m.MTTRValidCount)
		m.AvgMTTRElapsedMinutes = elapsedSum / float64(m.MTTRValidCount)
	}
	if m.BreachCount > 0 {
		m.AvgBreachVarianceMinutes = varianceSum / float64(m.BreachCount)
	}
	return m
}

// AggregateGrouped partitions the classified set by key and reduces each
// group with Aggregate. Records whose key is "" are skipped (a record with
// no creation timestamp has no month, for example). Because the groups are
// slices of the same classified records, summing a count over all groups of
// a total partition reproduces the ungrouped count.
func AggregateGrouped(records []ClassifiedRecord, key func(ClassifiedRecord) string) map[string]Metrics {
	groups := make(map[string][]ClassifiedRecord)
	for _, cr := range records {
		k := key(cr)
		if k == "" {
			continue
		}
		groups[k] = append(groups[k], cr)
	}

	out := make(map[string]Metrics, len(groups))
	for k, group := range groups {
		out[k] = Aggregate(group)
	}
	return out
}

func percentage(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}
