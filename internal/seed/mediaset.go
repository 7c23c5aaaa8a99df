package seed

import (
	"cmp"
	"slices"
	"sync"

	"payloadseed/internal/contentstore"
)

// MediaSet collects media created during the media stage. Appends are safe
// from concurrent tasks until the set is frozen.
type MediaSet struct {
	mu      sync.Mutex
	entries []indexedMedia
	frozen  bool
}

type indexedMedia struct {
	index int
	rec   contentstore.MediaRecord
}

// Append adds the record created by item index. It fails once the set is
// frozen.
func (s *MediaSet) Append(index int, rec contentstore.MediaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return ErrFrozen
	}
	s.entries = append(s.entries, indexedMedia{index: index, rec: rec})
	return nil
}

// Len returns the number of records collected so far.
func (s *MediaSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Freeze stops further appends and returns a read-only view ordered by item
// index, whatever order the items completed in.
func (s *MediaSet) Freeze() FrozenMedia {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
	entries := slices.Clone(s.entries)
	slices.SortFunc(entries, func(a, b indexedMedia) int { return cmp.Compare(a.index, b.index) })
	records := make([]contentstore.MediaRecord, len(entries))
	for i, e := range entries {
		records[i] = e.rec
	}
	return FrozenMedia{records: records}
}

// FrozenMedia is an immutable media set handed to the entity stage.
type FrozenMedia struct {
	records []contentstore.MediaRecord
}

// NewFrozenMedia builds a frozen set from existing records.
func NewFrozenMedia(records []contentstore.MediaRecord) FrozenMedia {
	return FrozenMedia{records: append([]contentstore.MediaRecord(nil), records...)}
}

// Len returns the number of records.
func (f FrozenMedia) Len() int { return len(f.records) }

// At returns the record at i.
func (f FrozenMedia) At(i int) contentstore.MediaRecord { return f.records[i] }

// IDs returns the ids of every record in order.
func (f FrozenMedia) IDs() []contentstore.ID {
	ids := make([]contentstore.ID, len(f.records))
	for i, rec := range f.records {
		ids[i] = rec.ID
	}
	return ids
}

// Sample returns the id of a uniformly chosen record. The set must not be
// empty.
func (f FrozenMedia) Sample(r *Rand) contentstore.ID {
	return f.records[r.IntN(len(f.records))].ID
}
