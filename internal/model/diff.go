package model

// RecordChange pairs the two versions of a post whose content changed.
type RecordChange struct {
	Old Record `json:"old"`
	New Record `json:"new"`
}

// RecordDiff is the result of comparing the records of two runs.
// Posts are matched by post ID; a post changed when its fingerprint differs.
type RecordDiff struct {
	Added     []Record       `json:"added"`
	Removed   []Record       `json:"removed"`
	Changed   []RecordChange `json:"changed"`
	Unchanged int            `json:"unchanged"`
}

// HasChanges reports whether anything was added, removed or changed.
func (d RecordDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Changed) > 0
}

// DiffRecords compares a baseline run with a newer one.
// Added and changed records follow the order of current; removed
// records follow the order of baseline.
func DiffRecords(baseline, current []Record) RecordDiff {
	diff := RecordDiff{
		Added:   make([]Record, 0),
		Removed: make([]Record, 0),
		Changed: make([]RecordChange, 0),
	}

	previous := make(map[int64]Record, len(baseline))
	for _, r := range baseline {
		previous[r.PostID] = r
	}

	seen := make(map[int64]struct{}, len(current))
	for _, r := range current {
		seen[r.PostID] = struct{}{}
		old, ok := previous[r.PostID]
		switch {
		case !ok:
			diff.Added = append(diff.Added, r)
		case old.Hash != r.Hash:
			diff.Changed = append(diff.Changed, RecordChange{Old: old, New: r})
		default:
			diff.Unchanged++
		}
	}

	for _, r := range baseline {
		if _, ok := seen[r.PostID]; !ok {
			diff.Removed = append(diff.Removed, r)
		}
	}

	return diff
}
