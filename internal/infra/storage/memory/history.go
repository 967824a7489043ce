package memory

import (
	"context"
	"sync"

	"hotelcore/internal/domain/history"
	"hotelcore/internal/domain/room"
)

// HistoryRepository keeps the ledger in insertion order; Seq mirrors the
// commit sequence so ChangeDate ties resolve deterministically.
type HistoryRepository struct {
	mu      sync.RWMutex
	entries []history.Entry
	seq     int64
}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

func (r *HistoryRepository) Append(ctx context.Context, entry history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	entry.Seq = r.seq
	r.entries = append(r.entries, entry)
	return nil
}

func (r *HistoryRepository) ByRoom(ctx context.Context, roomID room.RoomID, filter history.Filter) ([]history.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []history.Entry
	for _, e := range r.entries {
		if e.RoomID != roomID {
			continue
		}
		if filter.ChangeType != "" && e.ChangeType != filter.ChangeType {
			continue
		}
		if !filter.From.IsZero() && e.ChangeDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && e.ChangeDate.After(filter.To) {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

var _ history.Repository = (*HistoryRepository)(nil)
