package room

import "time"

type StatusChanged struct {
	RoomID   string
	Action   Action
	OldState State
	NewState State
	Reason   string
	At       time.Time
}

func (e StatusChanged) EventName() string     { return "room.status_changed" }
func (e StatusChanged) AggregateID() string   { return e.RoomID }
func (e StatusChanged) OccurredAt() time.Time { return e.At }

type Created struct {
	RoomID     string
	RoomNumber string
	Floor      int
	At         time.Time
}

func (e Created) EventName() string     { return "room.created" }
func (e Created) AggregateID() string   { return e.RoomID }
func (e Created) OccurredAt() time.Time { return e.At }
