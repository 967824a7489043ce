package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"hotelcore/internal/domain/blocking"
	"hotelcore/internal/domain/shared/daterange"
)

// BlockingRepository is the in-memory interval store.
type BlockingRepository struct {
	mu    sync.RWMutex
	items map[blocking.IntervalID]*blocking.Interval
}

func NewBlockingRepository() *BlockingRepository {
	return &BlockingRepository{items: make(map[blocking.IntervalID]*blocking.Interval)}
}

func (r *BlockingRepository) ByID(ctx context.Context, id blocking.IntervalID) (*blocking.Interval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, blocking.ErrIntervalNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *BlockingRepository) Save(ctx context.Context, b *blocking.Interval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.Version++
	copied := *b
	r.items[b.ID] = &copied
	return nil
}

func (r *BlockingRepository) ByRoom(ctx context.Context, roomID string) ([]*blocking.Interval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*blocking.Interval
	for _, b := range r.items {
		if b.RoomID == roomID {
			copied := *b
			out = append(out, &copied)
		}
	}
	sortBySpan(out)
	return out, nil
}

func (r *BlockingRepository) Overlapping(ctx context.Context, roomID string, span daterange.Span, statuses []blocking.Status, excludeID blocking.IntervalID) ([]*blocking.Interval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*blocking.Interval
	for _, b := range r.items {
		if b.RoomID != roomID || b.ID == excludeID {
			continue
		}
		if !statusIncluded(b.Status, statuses) {
			continue
		}
		if !b.Span.Overlaps(span) {
			continue
		}
		copied := *b
		out = append(out, &copied)
	}
	sortBySpan(out)
	return out, nil
}

func (r *BlockingRepository) DueForActivation(ctx context.Context, asOf time.Time) ([]*blocking.Interval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*blocking.Interval
	for _, b := range r.items {
		if b.Status == blocking.StatusPlanned && !b.Span.Start.After(asOf) && !b.Span.End.Before(asOf) {
			copied := *b
			out = append(out, &copied)
		}
	}
	sortBySpan(out)
	return out, nil
}

func (r *BlockingRepository) DueForCompletion(ctx context.Context, asOf time.Time) ([]*blocking.Interval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*blocking.Interval
	for _, b := range r.items {
		if b.Status == blocking.StatusActive && b.Span.End.Before(asOf) {
			copied := *b
			out = append(out, &copied)
		}
	}
	sortBySpan(out)
	return out, nil
}

func statusIncluded(s blocking.Status, statuses []blocking.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func sortBySpan(list []*blocking.Interval) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Span.Start.Equal(list[j].Span.Start) {
			return list[i].Span.Start.Before(list[j].Span.Start)
		}
		return list[i].Span.End.Before(list[j].Span.End)
	})
}

var _ blocking.Repository = (*BlockingRepository)(nil)
