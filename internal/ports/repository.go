package ports

import (
	"context"
	"time"

	"github.com/deskpulse/deskpulse/internal/domain"
)

// RecordSource supplies the raw incident records a snapshot is built from.
// Implementations own all file/database I/O and column normalization; the
// core only ever sees IncidentRecord values.
type RecordSource interface {
	// Load reads the full record set. A load is all-or-nothing at the
	// collection level, but individual malformed fields degrade to nil
	// rather than failing the load.
	Load(ctx context.Context) ([]domain.IncidentRecord, error)
}

// ReportCache caches serialized report payloads between reloads.
type ReportCache interface {
	// Get returns the cached payload for key, or (nil, nil) on a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a payload under key for at most ttl.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}
