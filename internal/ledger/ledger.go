// Package ledger persists the record of which (recipient, offering)
// notifications have already been sent. The ledger is the only state the
// notifier keeps between runs; it is what makes repeated runs idempotent.
//
// On disk the ledger is a UTF-8 JSON document mapping offering identity to
// a bucket of dedupe keys, each with the RFC3339 UTC timestamp of the send:
//
//	{
//	  "NIFRA|2026-02-01": {
//	    "<hmac hex>": "2026-02-01T10:30:00Z"
//	  }
//	}
//
// Serialization is deterministic (sorted keys, fixed indent) so repeated
// saves of identical content are byte-identical and the file stays
// diff-friendly under version control.
package ledger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"ipowatch/internal/types"
)

// Ledger maps offering identity -> dedupe key -> RFC3339 UTC send time.
type Ledger map[string]map[string]string

// Bucket returns the dedupe-key set for an offering, creating it if absent.
func (l Ledger) Bucket(offeringID string) map[string]string {
	b, ok := l[offeringID]
	if !ok {
		b = make(map[string]string)
		l[offeringID] = b
	}
	return b
}

// Record stores the send time for a dedupe key under an offering.
func (l Ledger) Record(offeringID, dedupeKey string, sentAt time.Time) {
	l.Bucket(offeringID)[dedupeKey] = sentAt.UTC().Format(time.RFC3339)
}

// Contains reports whether a dedupe key is already recorded for an offering.
func (l Ledger) Contains(offeringID, dedupeKey string) bool {
	_, ok := l[offeringID][dedupeKey]
	return ok
}

// Prune removes every record whose timestamp is unparsable or strictly
// older than now minus the retention window, then removes offering entries
// left with no records. Mutates in place. Idempotent: pruning twice yields
// the same result as pruning once.
func (l Ledger) Prune(retention time.Duration, now time.Time) {
	cutoff := now.Add(-retention)
	for offeringID, bucket := range l {
		for key, raw := range bucket {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				delete(bucket, key)
				continue
			}
			if ts.Before(cutoff) {
				delete(bucket, key)
			}
		}
		if len(bucket) == 0 {
			delete(l, offeringID)
		}
	}
}

// Store reads and writes a Ledger at a fixed file path.
type Store struct {
	path   string
	logger types.Logger
}

// NewStore creates a Store bound to the given path.
func NewStore(path string, logger types.Logger) *Store {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Store{path: path, logger: logger}
}

// Load reads the persisted ledger. A missing file yields an empty ledger;
// an unreadable or unparsable file yields ledger_corrupt_state, which the
// caller must treat as fatal — silently proceeding with an empty ledger
// would re-send every previously delivered invite.
func (s *Store) Load() (Ledger, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("no persisted ledger, starting empty", "path", s.path)
		return Ledger{}, nil
	}
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeLedgerCorruptState,
			"ledger file unreadable", err, map[string]any{"path": s.path})
	}

	var l Ledger
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeLedgerCorruptState,
			"ledger file is not valid JSON of the expected shape", err,
			map[string]any{"path": s.path})
	}
	if l == nil {
		l = Ledger{}
	}
	return l, nil
}

// Save persists the full ledger, creating the parent directory first.
// encoding/json sorts map keys, so output ordering is deterministic.
func (s *Store) Save(l Ledger) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrCodeLedgerCorruptState,
			"ledger serialization failed", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return types.NewAppErrorWithDetails(types.ErrCodeLedgerCorruptState,
				"ledger directory creation failed", err, map[string]any{"path": s.path})
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return types.NewAppErrorWithDetails(types.ErrCodeLedgerCorruptState,
			"ledger write failed", err, map[string]any{"path": s.path})
	}
	s.logger.Debug("ledger saved", "path", s.path, "offerings", len(l))
	return nil
}

// Path returns the file path the store is bound to.
func (s *Store) Path() string {
	return s.path
}
