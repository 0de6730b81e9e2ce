package series

import (
	"fmt"
	"sort"
)

// InvariantError reports a violated ordering or uniqueness invariant.
// It is an internal defect, never expected from well-formed input, and
// callers must refuse to persist the offending dataset.
type InvariantError struct {
	Index int
	Prev  int64
	Curr  int64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("series invariant violated at index %d: timestamp %s does not follow %s",
		e.Index, FromMillis(e.Curr), FromMillis(e.Prev))
}

// Merge combines an existing dataset with freshly fetched records.
// Records are keyed by timestamp; where both sides carry the same
// timestamp the incoming record wins, so provider restatements replace
// stale rows. The result is sorted ascending and verified strictly
// monotonic. Merge is idempotent: re-applying the same incoming batch
// is a no-op.
func Merge[T Record](existing, incoming []T) ([]T, error) {
	byTS := make(map[int64]T, len(existing)+len(incoming))
	for _, r := range existing {
		byTS[Millis(r.ObservedAt())] = r
	}
	for _, r := range incoming {
		byTS[Millis(r.ObservedAt())] = r
	}

	out := make([]T, 0, len(byTS))
	for _, r := range byTS {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ObservedAt().Before(out[j].ObservedAt())
	})

	if err := Verify(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Verify checks that timestamps are strictly increasing with no
// duplicates.
func Verify[T Record](rows []T) error {
	for i := 1; i < len(rows); i++ {
		prev := Millis(rows[i-1].ObservedAt())
		curr := Millis(rows[i].ObservedAt())
		if curr <= prev {
			return &InvariantError{Index: i, Prev: prev, Curr: curr}
		}
	}
	return nil
}

// Filter returns the subset of rows whose timestamp falls inside the
// window, bounds inclusive. Rows are assumed sorted; order is kept.
func Filter[T Record](rows []T, w Window) []T {
	if w.IsZero() {
		return rows
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if w.Contains(r.ObservedAt()) {
			out = append(out, r)
		}
	}
	return out
}
