package dto

import (
	"time"

	domainroom "hotelcore/internal/domain/room"
)

type Room struct {
	ID                  string    `json:"id"`
	RoomNumber          string    `json:"room_number"`
	Floor               int       `json:"floor"`
	RoomType            string    `json:"room_type"`
	MaxOccupancy        int       `json:"max_occupancy"`
	State               string    `json:"state"`
	MaintenanceRequired bool      `json:"maintenance_required"`
	LastStatusChange    time.Time `json:"last_status_change"`
	StatusChangeReason  string    `json:"status_change_reason,omitempty"`
	BlockingType        string    `json:"blocking_type,omitempty"`
	BlockingReason      string    `json:"blocking_reason,omitempty"`
	AllowedActions      []string  `json:"allowed_actions"`
	Version             int64     `json:"version"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type RoomCollection struct {
	Items []Room `json:"items"`
}

func NewRoom(r *domainroom.Room) Room {
	actions := make([]string, 0)
	for _, a := range domainroom.AllowedActions(r.State) {
		actions = append(actions, string(a))
	}
	return Room{
		ID:                  string(r.ID),
		RoomNumber:          r.RoomNumber,
		Floor:               r.Floor,
		RoomType:            r.RoomType,
		MaxOccupancy:        r.MaxOccupancy,
		State:               string(r.State),
		MaintenanceRequired: r.MaintenanceRequired,
		LastStatusChange:    r.LastStatusChange,
		StatusChangeReason:  r.StatusChangeReason,
		BlockingType:        r.BlockingType,
		BlockingReason:      r.BlockingReason,
		AllowedActions:      actions,
		Version:             r.Version,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func NewRoomCollection(rooms []*domainroom.Room) RoomCollection {
	items := make([]Room, 0, len(rooms))
	for _, r := range rooms {
		items = append(items, NewRoom(r))
	}
	return RoomCollection{Items: items}
}
