package domain

import "strings"

// Thresholds is the named SLA threshold configuration. Every minute value
// the classifier compares against lives here so the presentation layer can
// surface the numbers instead of them being hard-coded at call sites.
type Thresholds struct {
	// BaselineMinutes is the contractual maximum resolution time.
	BaselineMinutes float64 `json:"baseline_minutes"`
	// GoalMinutes is the tighter aspirational target below the baseline.
	GoalMinutes float64 `json:"goal_minutes"`
	// MinorCutMinutes and ModerateCutMinutes bound the aggregate breach
	// severity tiers: minor up to MinorCut over promise, moderate up to
	// ModerateCut, critical beyond.
	MinorCutMinutes    float64 `json:"minor_cut_minutes"`
	ModerateCutMinutes float64 `json:"moderate_cut_minutes"`
}

// DefaultThresholds returns the standard service-desk policy: a 4 hour
// baseline, a 3.2 hour goal, and breach tiers at 3 and 4 hours over promise.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BaselineMinutes:    240,
		GoalMinutes:        192,
		MinorCutMinutes:    180,
		ModerateCutMinutes: 240,
	}
}

// BreachSeverity is the aggregate-reporting severity scale, applied to the
// minutes a breach ran over its promise.
type BreachSeverity string

const (
	SeverityMet      BreachSeverity = "met"
	SeverityMinor    BreachSeverity = "minor"
	SeverityModerate BreachSeverity = "moderate"
	SeverityCritical BreachSeverity = "critical"
)

// BreachSeverities lists the aggregate tiers in escalation order.
var BreachSeverities = []BreachSeverity{SeverityMet, SeverityMinor, SeverityModerate, SeverityCritical}

// ParseBreachSeverity maps a request parameter onto a breached severity
// tier. "met" is not accepted: the breach listing serves breaches only.
func ParseBreachSeverity(value string) (BreachSeverity, error) {
	for _, sev := range BreachSeverities {
		if sev == SeverityMet {
			continue
		}
		if strings.EqualFold(value, string(sev)) {
			return sev, nil
		}
	}
	return "", NewDomainError("invalid breach severity: " + value)
}

// TriageSeverity is the incident-detail severity scale used when a single
// breach is being triaged. It is intentionally distinct from BreachSeverity:
// the two scales serve different audiences and use different cut points.
type TriageSeverity string

const (
	TriageMet      TriageSeverity = "met"
	TriageMinor    TriageSeverity = "minor_breach"
	TriageMajor    TriageSeverity = "major_breach"
	TriageCritical TriageSeverity = "critical_breach"
	TriageSevere   TriageSeverity = "severe_breach"
)

// SLAClassification is the per-record SLA evaluation. MeetsBaseline is
// judged against the policy baseline while Breached and VarianceMinutes are
// judged against the record's own promise, so the two can diverge when a
// per-record promise overrides the default.
type SLAClassification struct {
	MeetsBaseline   bool           `json:"meets_baseline"`
	MeetsGoal       bool           `json:"meets_goal"`
	Breached        bool           `json:"breached"`
	PromisedMinutes float64        `json:"promised_minutes"`
	VarianceMinutes float64        `json:"variance_minutes"`
	Severity        BreachSeverity `json:"severity"`
}

// Classify evaluates a resolved duration against the threshold set.
// promised is the record's SLA promise in minutes. The duration must be
// valid; callers are responsible for excluding undefined durations before
// classification, so an invalid one here is a programmer error.
func Classify(d DurationResult, t Thresholds, promised float64) SLAClassification {
	if !d.Valid {
		panic("domain: Classify called with an undefined duration")
	}

	c := SLAClassification{
		MeetsBaseline:   d.BusinessMinutes <= t.BaselineMinutes,
		MeetsGoal:       d.BusinessMinutes <= t.GoalMinutes,
		Breached:        d.BusinessMinutes > promised,
		PromisedMinutes: promised,
		VarianceMinutes: d.BusinessMinutes - promised,
	}
	c.Severity = breachSeverity(c.Breached, c.VarianceMinutes, t)
	return c
}

func breachSeverity(breached bool, variance float64, t Thresholds) BreachSeverity {
	switch {
	case !breached:
		return SeverityMet
	case variance <= t.MinorCutMinutes:
		return SeverityMinor
	case variance <= t.ModerateCutMinutes:
		return SeverityModerate
	default:
		return SeverityCritical
	}
}

// TriageSeverityFor maps a breach variance onto the incident-detail scale.
func TriageSeverityFor(breached bool, varianceMinutes float64) TriageSeverity {
	switch {
	case !breached:
		return TriageMet
	case varianceMinutes > 480:
		return TriageSevere
	case varianceMinutes > 300:
		return TriageCritical
	case varianceMinutes > 180:
		return TriageMajor
	default:
		return TriageMinor
	}
}

// MTTRPriorityBand buckets a business-hours resolution time into the
// P1-P4 bands shown on the incident detail view.
func MTTRPriorityBand(businessMinutes float64) string {
	switch {
	case businessMinutes > 480:
		return "P1 - Critical"
	case businessMinutes > 240:
		return "P2 - High"
	case businessMinutes > 120:
		return "P3 - Medium"
	default:
		return "P4 - Low"
	}
}
