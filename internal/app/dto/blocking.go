package dto

import (
	"time"

	domainblocking "hotelcore/internal/domain/blocking"
)

type Blocking struct {
	ID              string    `json:"id"`
	RoomID          string    `json:"room_id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	DurationDays    int       `json:"duration_days"`
	Reason          string    `json:"reason,omitempty"`
	ResponsibleUser string    `json:"responsible_user,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type BlockingCollection struct {
	Items []Blocking `json:"items"`
}

func NewBlocking(b *domainblocking.Interval) Blocking {
	return Blocking{
		ID:              string(b.ID),
		RoomID:          b.RoomID,
		Name:            b.Name,
		Type:            string(b.Type),
		Status:          string(b.Status),
		StartDate:       b.Span.Start,
		EndDate:         b.Span.End,
		DurationDays:    b.Span.Days(),
		Reason:          b.Reason,
		ResponsibleUser: b.ResponsibleUser,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func NewBlockingCollection(list []*domainblocking.Interval) BlockingCollection {
	items := make([]Blocking, 0, len(list))
	for _, b := range list {
		items = append(items, NewBlocking(b))
	}
	return BlockingCollection{Items: items}
}
