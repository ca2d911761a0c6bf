package dedup

import (
	"context"
	"fmt"

	"github.com/nao1215/forumscan/internal/model"
)

// Index remembers content fingerprints.
type Index interface {
	// Seen reports whether hash was added before.
	Seen(ctx context.Context, hash string) (bool, error)

	// Add marks hashes as seen.
	Add(ctx context.Context, hashes ...string) error

	// Close releases the index.
	Close() error
}

// FilterNew returns the records whose fingerprint is not in idx, keeping
// order. A fingerprint repeated within records is emitted once. The index
// is not modified; call Remember once the records were written.
func FilterNew(ctx context.Context, idx Index, records []model.Record) ([]model.Record, error) {
	out := make([]model.Record, 0, len(records))
	batch := make(map[string]struct{}, len(records))

	for _, rec := range records {
		if _, dup := batch[rec.Hash]; dup {
			continue
		}
		seen, err := idx.Seen(ctx, rec.Hash)
		if err != nil {
			return nil, fmt.Errorf("check fingerprint of post %d: %w", rec.PostID, err)
		}
		if seen {
			continue
		}
		batch[rec.Hash] = struct{}{}
		out = append(out, rec)
	}
	return out, nil
}

// Remember adds the fingerprints of records to idx.
func Remember(ctx context.Context, idx Index, records []model.Record) error {
	hashes := make([]string, 0, len(records))
	for _, rec := range records {
		hashes = append(hashes, rec.Hash)
	}
	if err := idx.Add(ctx, hashes...); err != nil {
		return fmt.Errorf("remember fingerprints: %w", err)
	}
	return nil
}
