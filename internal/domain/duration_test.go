package domain

import (
	"math"
	"testing"
	"time"
)

func ts(value string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		panic(err)
	}
	return t
}

func tsPtr(value string) *time.Time {
	t := ts(value)
	return &t
}

func TestBusinessMinutes_WeekendExcluded(t *testing.T) {
	// Friday 16:00 to the following Monday 10:00: Friday contributes 8h,
	// Monday contributes 10h, the weekend contributes nothing.
	start := ts("2025-02-07 16:00:00")
	end := ts("2025-02-10 10:00:00")

	got := BusinessMinutes(start, end)
	if got != 1080 {
		t.Errorf("Expected 1080 business minutes, got %v", got)
	}
}

func TestBusinessMinutes_SameDay(t *testing.T) {
	start := ts("2025-02-05 08:15:00") // Wednesday
	end := ts("2025-02-05 10:00:00")

	got := BusinessMinutes(start, end)
	if got != 105 {
		t.Errorf("Expected 105 business minutes, got %v", got)
	}
}

func TestBusinessMinutes_InvertedTimestamps(t *testing.T) {
	start := ts("2025-02-05 10:00:00")
	end := ts("2025-02-05 08:00:00")

	if got := BusinessMinutes(start, end); got != 0 {
		t.Errorf("Expected 0 for inverted timestamps, got %v", got)
	}
}

func TestBusinessMinutes_FullWeekSpan(t *testing.T) {
	// Monday midnight to the next Monday midnight: five full weekdays.
	start := ts("2025-02-03 00:00:00")
	end := ts("2025-02-10 00:00:00")

	if got := BusinessMinutes(start, end); got != 5*24*60 {
		t.Errorf("Expected %v business minutes, got %v", 5*24*60, got)
	}
}

func TestBusinessMinutes_StartsOnWeekend(t *testing.T) {
	// Saturday 09:00 to Monday 09:00: only Monday's 9 hours count.
	start := ts("2025-02-08 09:00:00")
	end := ts("2025-02-10 09:00:00")

	if got := BusinessMinutes(start, end); got != 540 {
		t.Errorf("Expected 540 business minutes, got %v", got)
	}
}

func TestBusinessMinutes_Idempotent(t *testing.T) {
	start := ts("2025-02-07 16:00:00")
	end := ts("2025-03-03 10:00:00")

	first := BusinessMinutes(start, end)
	second := BusinessMinutes(start, end)
	if first != second {
		t.Errorf("Expected identical results, got %v then %v", first, second)
	}
}

func TestResolveDuration_SameDay(t *testing.T) {
	rec := IncidentRecord{
		Number:     "INC001",
		CreatedAt:  tsPtr("2025-02-05 08:15:00"),
		ResolvedAt: tsPtr("2025-02-05 10:00:00"),
	}

	d := ResolveDuration(rec)
	if !d.Valid {
		t.Fatal("Expected a valid duration")
	}
	if d.BusinessMinutes != 105 || d.ElapsedMinutes != 105 {
		t.Errorf("Expected 105/105 minutes, got %v/%v", d.BusinessMinutes, d.ElapsedMinutes)
	}
}

func TestResolveDuration_MissingTimestamps(t *testing.T) {
	unresolved := IncidentRecord{Number: "INC002", CreatedAt: tsPtr("2025-02-05 08:00:00")}
	if d := ResolveDuration(unresolved); d.Valid {
		t.Error("Expected undefined duration for unresolved record")
	}

	noCreated := IncidentRecord{Number: "INC003", ResolvedAt: tsPtr("2025-02-05 08:00:00")}
	if d := ResolveDuration(noCreated); d.Valid {
		t.Error("Expected undefined duration for record without created timestamp")
	}
}

func TestResolveDuration_Inverted(t *testing.T) {
	rec := IncidentRecord{
		Number:     "INC004",
		CreatedAt:  tsPtr("2025-02-05 10:00:00"),
		ResolvedAt: tsPtr("2025-02-05 08:00:00"),
	}

	d := ResolveDuration(rec)
	if d.Valid {
		t.Error("Expected inverted timestamps to be invalid for aggregates")
	}
	if d.BusinessMinutes != 0 {
		t.Errorf("Expected business minutes clamped to 0, got %v", d.BusinessMinutes)
	}
	if d.ElapsedMinutes != -120 {
		t.Errorf("Expected raw elapsed -120 for visibility, got %v", d.ElapsedMinutes)
	}
}

func TestBaselineMinutes_ReportedWins(t *testing.T) {
	reported := 95.0
	rec := IncidentRecord{
		CreatedAt:              tsPtr("2025-02-05 08:00:00"),
		ResolvedAt:             tsPtr("2025-02-05 12:00:00"),
		ReportedResolveMinutes: &reported,
	}
	d := ResolveDuration(rec)

	minutes, source := BaselineMinutes(rec, d)
	if minutes != 95 || source != SourceReported {
		t.Errorf("Expected reported 95 minutes, got %v from %s", minutes, source)
	}
}

func TestBaselineMinutes_InvalidReportedFallsBackToElapsed(t *testing.T) {
	bad := math.NaN()
	rec := IncidentRecord{
		CreatedAt:              tsPtr("2025-02-05 08:00:00"),
		ResolvedAt:             tsPtr("2025-02-05 12:00:00"),
		ReportedResolveMinutes: &bad,
	}
	d := ResolveDuration(rec)

	minutes, source := BaselineMinutes(rec, d)
	if minutes != 240 || source != SourceElapsedFallback {
		t.Errorf("Expected elapsed fallback 240 minutes, got %v from %s", minutes, source)
	}

	negative := -10.0
	rec.ReportedResolveMinutes = &negative
	minutes, source = BaselineMinutes(rec, d)
	if minutes != 240 || source != SourceElapsedFallback {
		t.Errorf("Expected elapsed fallback for negative reported value, got %v from %s", minutes, source)
	}
}

func TestBaselineMinutes_AbsentReportedUsesBusinessCalc(t *testing.T) {
	// Friday 16:00 to Monday 10:00: business calc excludes the weekend,
	// elapsed does not.
	rec := IncidentRecord{
		CreatedAt:  tsPtr("2025-02-07 16:00:00"),
		ResolvedAt: tsPtr("2025-02-10 10:00:00"),
	}
	d := ResolveDuration(rec)

	minutes, source := BaselineMinutes(rec, d)
	if minutes != 1080 || source != SourceComputed {
		t.Errorf("Expected computed 1080 minutes, got %v from %s", minutes, source)
	}
}
