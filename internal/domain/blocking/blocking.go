package blocking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotelcore/internal/domain/shared/daterange"
	"hotelcore/internal/domain/shared/events"
)

var (
	ErrIntervalNotFound = errors.New("blocking: interval not found")
	ErrRoomRequired     = errors.New("blocking: room id required")
	ErrTypeRequired     = errors.New("blocking: blocking type required")
	ErrInvalidStatus    = errors.New("blocking: invalid initial status")
)

type IntervalID string

type Type string

const (
	TypeMaintenance Type = "maintenance"
	TypeEvent       Type = "event"
	TypeOutOfOrder  Type = "out_of_order"
	TypeRenovation  Type = "renovation"
	TypeOther       Type = "other"
)

func ValidType(t Type) bool {
	switch t {
	case TypeMaintenance, TypeEvent, TypeOutOfOrder, TypeRenovation, TypeOther:
		return true
	}
	return false
}

type Status string

const (
	StatusPlanned   Status = "planned"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Interval is a date-range exclusion over one room. Lifecycle:
// planned <-> active -> completed | cancelled; the terminal statuses admit no
// reactivation, a replacement interval must be created instead.
type Interval struct {
	ID              IntervalID
	RoomID          string
	Name            string
	Type            Type
	Status          Status
	Span            daterange.Span
	Reason          string
	ResponsibleUser string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id IntervalID) (*Interval, error)
	Save(ctx context.Context, interval *Interval) error
	ByRoom(ctx context.Context, roomID string) ([]*Interval, error)
	// Overlapping returns the room's intervals in the given statuses whose
	// span intersects the inclusive range, excluding excludeID when set.
	Overlapping(ctx context.Context, roomID string, span daterange.Span, statuses []Status, excludeID IntervalID) ([]*Interval, error)
	// DueForActivation / DueForCompletion feed the lifecycle sweep.
	DueForActivation(ctx context.Context, asOf time.Time) ([]*Interval, error)
	DueForCompletion(ctx context.Context, asOf time.Time) ([]*Interval, error)
}

type CreateParams struct {
	ID              IntervalID
	RoomID          string
	Name            string
	Type            Type
	Status          Status
	Start           time.Time
	End             time.Time
	Reason          string
	ResponsibleUser string
	CreatedAt       time.Time
}

func New(params CreateParams) (*Interval, error) {
	if params.RoomID == "" {
		return nil, ErrRoomRequired
	}
	if !ValidType(params.Type) {
		return nil, fmt.Errorf("%w: %q", ErrTypeRequired, params.Type)
	}
	status := params.Status
	if status == "" {
		status = StatusPlanned
	}
	if status != StatusPlanned && status != StatusActive {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	span, err := daterange.New(params.Start, params.End)
	if err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Interval{
		ID:              params.ID,
		RoomID:          params.RoomID,
		Name:            params.Name,
		Type:            params.Type,
		Status:          status,
		Span:            span,
		Reason:          params.Reason,
		ResponsibleUser: params.ResponsibleUser,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(Created{BlockingID: string(b.ID), RoomID: b.RoomID, Type: b.Type, Span: span, Status: status, At: now})
	return b, nil
}

func (b *Interval) Terminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled
}

// ClosesInventory reports whether the interval makes the room unsellable for
// its span. Every type closes inventory except event blockings while the
// policy keeps events inventory-neutral.
func (b *Interval) ClosesInventory(eventClosesInventory bool) bool {
	if b.Type == TypeEvent {
		return eventClosesInventory
	}
	return true
}

// Activate moves the interval to active. Idempotent when already active
// (ok=false, no event); rejected on terminal intervals.
func (b *Interval) Activate(now time.Time) (bool, error) {
	if b.Terminal() {
		return false, &AlreadyTerminalError{ID: b.ID, Status: b.Status}
	}
	if b.Status == StatusActive {
		return false, nil
	}
	b.Status = StatusActive
	b.UpdatedAt = now.UTC()
	b.Record(Activated{BlockingID: string(b.ID), RoomID: b.RoomID, Type: b.Type, At: b.UpdatedAt})
	return true, nil
}

func (b *Interval) Complete(now time.Time) error {
	if b.Terminal() {
		return &AlreadyTerminalError{ID: b.ID, Status: b.Status}
	}
	wasActive := b.Status == StatusActive
	b.Status = StatusCompleted
	b.UpdatedAt = now.UTC()
	b.Record(Completed{BlockingID: string(b.ID), RoomID: b.RoomID, WasActive: wasActive, At: b.UpdatedAt})
	return nil
}

func (b *Interval) Cancel(reason string, now time.Time) error {
	if b.Terminal() {
		return &AlreadyTerminalError{ID: b.ID, Status: b.Status}
	}
	wasActive := b.Status == StatusActive
	b.Status = StatusCancelled
	if reason != "" {
		if b.Reason != "" {
			b.Reason = b.Reason + "\nCancelled: " + reason
		} else {
			b.Reason = "Cancelled: " + reason
		}
	}
	b.UpdatedAt = now.UTC()
	b.Record(Cancelled{BlockingID: string(b.ID), RoomID: b.RoomID, WasActive: wasActive, Reason: reason, At: b.UpdatedAt})
	return nil
}

// ChangeType swaps the blocking type on a non-terminal interval without
// touching its status.
func (b *Interval) ChangeType(newType Type, now time.Time) error {
	if b.Terminal() {
		return &AlreadyTerminalError{ID: b.ID, Status: b.Status}
	}
	if !ValidType(newType) {
		return fmt.Errorf("%w: %q", ErrTypeRequired, newType)
	}
	b.Type = newType
	b.UpdatedAt = now.UTC()
	return nil
}

// Reschedule replaces the span on a non-terminal interval. The overlap
// invariant against sibling intervals is enforced by the resolver.
func (b *Interval) Reschedule(start, end time.Time, now time.Time) error {
	if b.Terminal() {
		return &AlreadyTerminalError{ID: b.ID, Status: b.Status}
	}
	span, err := daterange.New(start, end)
	if err != nil {
		return err
	}
	b.Span = span
	b.UpdatedAt = now.UTC()
	return nil
}

// AlreadyTerminalError rejects mutation of a completed or cancelled interval.
type AlreadyTerminalError struct {
	ID     IntervalID
	Status Status
}

func (e *AlreadyTerminalError) Error() string {
	return fmt.Sprintf("blocking: interval %s is %s and cannot be modified", e.ID, e.Status)
}

// OverlapConflictError rejects a create or reschedule that would leave two
// non-terminal intervals overlapping on the same room.
type OverlapConflictError struct {
	RoomID    string
	Span      daterange.Span
	Conflicts []*Interval
}

func (e *OverlapConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s (%s)", c.Name, c.Span))
	}
	return fmt.Sprintf("blocking: room %s already blocked during %s: %s", e.RoomID, e.Span, strings.Join(parts, ", "))
}
