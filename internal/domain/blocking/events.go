package blocking

import (
	"time"

	"hotelcore/internal/domain/shared/daterange"
)

type Created struct {
	BlockingID string
	RoomID     string
	Type       Type
	Span       daterange.Span
	Status     Status
	At         time.Time
}

func (e Created) EventName() string     { return "blocking.created" }
func (e Created) AggregateID() string   { return e.BlockingID }
func (e Created) OccurredAt() time.Time { return e.At }

type Activated struct {
	BlockingID string
	RoomID     string
	Type       Type
	At         time.Time
}

func (e Activated) EventName() string     { return "blocking.activated" }
func (e Activated) AggregateID() string   { return e.BlockingID }
func (e Activated) OccurredAt() time.Time { return e.At }

type Completed struct {
	BlockingID string
	RoomID     string
	WasActive  bool
	At         time.Time
}

func (e Completed) EventName() string     { return "blocking.completed" }
func (e Completed) AggregateID() string   { return e.BlockingID }
func (e Completed) OccurredAt() time.Time { return e.At }

type Cancelled struct {
	BlockingID string
	RoomID     string
	WasActive  bool
	Reason     string
	At         time.Time
}

func (e Cancelled) EventName() string     { return "blocking.cancelled" }
func (e Cancelled) AggregateID() string   { return e.BlockingID }
func (e Cancelled) OccurredAt() time.Time { return e.At }

// InventoryImpactChanged tells the room side that an activation, type change,
// or terminal transition altered the room-level inventory effect. Consumed by
// the mediator that mutates the owning room.
type InventoryImpactChanged struct {
	BlockingID      string
	RoomID          string
	Type            Type
	Reason          string
	ClosesInventory bool
	Cleared         bool
	At              time.Time
}

func (e InventoryImpactChanged) EventName() string     { return "blocking.inventory_impact_changed" }
func (e InventoryImpactChanged) AggregateID() string   { return e.RoomID }
func (e InventoryImpactChanged) OccurredAt() time.Time { return e.At }
