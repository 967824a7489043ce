package memory

import (
	"context"
	"sort"
	"sync"

	"hotelcore/internal/domain/room"
)

// RoomRepository is the in-memory room store used by tests and local runs.
type RoomRepository struct {
	mu    sync.RWMutex
	items map[room.RoomID]*room.Room
}

func NewRoomRepository() *RoomRepository {
	return &RoomRepository{items: make(map[room.RoomID]*room.Room)}
}

func (r *RoomRepository) ByID(ctx context.Context, id room.RoomID) (*room.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.items[id]
	if !ok {
		return nil, room.ErrRoomNotFound
	}
	copied := *rm
	return &copied, nil
}

func (r *RoomRepository) ByNumber(ctx context.Context, roomNumber string, floor int) (*room.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rm := range r.items {
		if rm.RoomNumber == roomNumber && rm.Floor == floor {
			copied := *rm
			return &copied, nil
		}
	}
	return nil, room.ErrRoomNotFound
}

func (r *RoomRepository) Save(ctx context.Context, rm *room.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm.Version++
	copied := *rm
	r.items[rm.ID] = &copied
	return nil
}

func (r *RoomRepository) List(ctx context.Context, filter room.ListFilter) ([]*room.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*room.Room, 0, len(r.items))
	for _, rm := range r.items {
		if filter.Floor != nil && rm.Floor != *filter.Floor {
			continue
		}
		if filter.RoomType != "" && rm.RoomType != filter.RoomType {
			continue
		}
		if len(filter.States) > 0 && !stateIncluded(rm.State, filter.States) {
			continue
		}
		copied := *rm
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Floor != out[j].Floor {
			return out[i].Floor < out[j].Floor
		}
		return out[i].RoomNumber < out[j].RoomNumber
	})
	return out, nil
}

func stateIncluded(s room.State, states []room.State) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}

var _ room.Repository = (*RoomRepository)(nil)
