package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/deskpulse/deskpulse/internal/domain"
	"github.com/deskpulse/deskpulse/internal/logger"
)

// Snapshot is one immutable, fully classified view of the incident data.
// Every record is classified exactly once here; all report statistics are
// derived from this one classified set, so numbers agree across endpoints.
type Snapshot struct {
	ID       string
	LoadedAt time.Time
	Records  []domain.ClassifiedRecord

	// SourceCounts tallies which resolver branch supplied the baseline
	// minutes per record, surfaced for data-quality reporting.
	SourceCounts map[domain.DurationSource]int
}

// BuildSnapshot classifies a freshly loaded record set and reports its
// data-quality observations.
func BuildSnapshot(ctx context.Context, records []domain.IncidentRecord, t domain.Thresholds, log logger.Logger) *Snapshot {
	snap := &Snapshot{
		ID:           uuid.NewString(),
		LoadedAt:     time.Now().UTC(),
		Records:      domain.ClassifyRecords(records, t),
		SourceCounts: make(map[domain.DurationSource]int),
	}

	var missingTimestamps, inverted, missingReopen int
	for _, cr := range snap.Records {
		snap.SourceCounts[cr.BaselineSource]++
		if cr.Record.CreatedAt == nil || cr.Record.ResolvedAt == nil {
			missingTimestamps++
		} else if cr.Duration.ElapsedMinutes < 0 {
			inverted++
		}
		if !cr.Record.FCRValid() {
			missingReopen++
		}
	}

	logger.LogDataQuality(ctx, log, "records missing a timestamp", missingTimestamps, map[string]interface{}{"snapshot_id": snap.ID})
	logger.LogDataQuality(ctx, log, "records with inverted timestamps", inverted, map[string]interface{}{"snapshot_id": snap.ID})
	logger.LogDataQuality(ctx, log, "records missing a reopen count", missingReopen, map[string]interface{}{"snapshot_id": snap.ID})
	logger.LogDataQuality(ctx, log, "resolve-time field unusable, fell back to elapsed",
		snap.SourceCounts[domain.SourceElapsedFallback], map[string]interface{}{"snapshot_id": snap.ID})

	log.Info(ctx, "Snapshot built", map[string]interface{}{
		"snapshot_id":  snap.ID,
		"record_count": len(snap.Records),
		"sources":      snap.SourceCounts,
	})
	return snap
}

// SnapshotStore publishes snapshots atomically. Readers always see either
// the previous complete snapshot or the new one, never a partial state.
type SnapshotStore struct {
	current atomic.Pointer[Snapshot]
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Current returns the latest snapshot, or nil when nothing has loaded yet.
func (s *SnapshotStore) Current() *Snapshot {
	return s.current.Load()
}

// Replace swaps in a new snapshot.
func (s *SnapshotStore) Replace(snap *Snapshot) {
	s.current.Store(snap)
}
