package blockings

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hotelcore/internal/app/locks"
	"hotelcore/internal/app/outbox"
	"hotelcore/internal/domain/blocking"
	"hotelcore/internal/domain/policy"
	"hotelcore/internal/domain/room"
	"hotelcore/internal/domain/shared/daterange"
)

// RoomImpactMediator applies a blocking's inventory effect to the owning
// room. Implemented by the room state machine service; called with the room
// lock already held by the resolver.
type RoomImpactMediator interface {
	ApplyInventoryImpact(ctx context.Context, evt blocking.InventoryImpactChanged) error
}

// Service enforces the at-most-one-non-terminal-blocking-per-overlapping-range
// invariant and propagates inventory impact to rooms.
type Service struct {
	Blockings blocking.Repository
	Rooms     room.Repository
	Policies  policy.Loader
	Impacts   RoomImpactMediator
	Outbox    outbox.Outbox
	Encoder   outbox.EventEncoder
	Locks     *locks.Keyed
	Logger    *slog.Logger
	Clock     func() time.Time
}

type CreateParams struct {
	RoomID          string
	Name            string
	Type            blocking.Type
	Status          blocking.Status
	Start           time.Time
	End             time.Time
	Reason          string
	ResponsibleUser string
}

var nonTerminal = []blocking.Status{blocking.StatusPlanned, blocking.StatusActive}

// Create validates dates, rejects overlap with any non-terminal interval on
// the same room, and applies the activation impact when created directly
// active.
func (s *Service) Create(ctx context.Context, params CreateParams) (*blocking.Interval, error) {
	unlock := s.Locks.Lock(params.RoomID)
	defer unlock()

	if _, err := s.Rooms.ByID(ctx, room.RoomID(params.RoomID)); err != nil {
		return nil, err
	}
	now := s.now()
	b, err := blocking.New(blocking.CreateParams{
		ID:              blocking.IntervalID(uuid.NewString()),
		RoomID:          params.RoomID,
		Name:            params.Name,
		Type:            params.Type,
		Status:          params.Status,
		Start:           params.Start,
		End:             params.End,
		Reason:          params.Reason,
		ResponsibleUser: params.ResponsibleUser,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, err
	}
	if err := s.rejectOverlap(ctx, b.RoomID, b.Span, ""); err != nil {
		return nil, err
	}
	if err := s.Blockings.Save(ctx, b); err != nil {
		return nil, err
	}
	if b.Status == blocking.StatusActive {
		if err := s.propagateImpact(ctx, b, false); err != nil {
			return nil, err
		}
	}
	if err := s.drainEvents(ctx, b); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("blocking created", "blocking", b.ID, "room", b.RoomID, "type", b.Type, "span", b.Span.String(), "status", b.Status)
	}
	return b, nil
}

// Activate moves the interval to active and applies the room impact. A second
// activation of an already-active interval is a no-op.
func (s *Service) Activate(ctx context.Context, id blocking.IntervalID) (*blocking.Interval, error) {
	return s.mutate(ctx, id, func(ctx context.Context, b *blocking.Interval) error {
		activated, err := b.Activate(s.now())
		if err != nil {
			return err
		}
		if err := s.Blockings.Save(ctx, b); err != nil {
			return err
		}
		if !activated {
			return nil
		}
		return s.propagateImpact(ctx, b, false)
	})
}

// Complete marks the interval terminal and resets the room to inspected.
func (s *Service) Complete(ctx context.Context, id blocking.IntervalID) (*blocking.Interval, error) {
	return s.mutate(ctx, id, func(ctx context.Context, b *blocking.Interval) error {
		wasActive := b.Status == blocking.StatusActive
		if err := b.Complete(s.now()); err != nil {
			return err
		}
		if err := s.Blockings.Save(ctx, b); err != nil {
			return err
		}
		if !wasActive {
			return nil
		}
		return s.propagateImpact(ctx, b, true)
	})
}

// Cancel marks the interval terminal and resets the room to inspected.
func (s *Service) Cancel(ctx context.Context, id blocking.IntervalID, reason string) (*blocking.Interval, error) {
	return s.mutate(ctx, id, func(ctx context.Context, b *blocking.Interval) error {
		wasActive := b.Status == blocking.StatusActive
		if err := b.Cancel(reason, s.now()); err != nil {
			return err
		}
		if err := s.Blockings.Save(ctx, b); err != nil {
			return err
		}
		if !wasActive {
			return nil
		}
		return s.propagateImpact(ctx, b, true)
	})
}

// ChangeType swaps the blocking type; while active the room impact is
// re-applied for the new type without touching the interval status.
func (s *Service) ChangeType(ctx context.Context, id blocking.IntervalID, newType blocking.Type) (*blocking.Interval, error) {
	return s.mutate(ctx, id, func(ctx context.Context, b *blocking.Interval) error {
		if err := b.ChangeType(newType, s.now()); err != nil {
			return err
		}
		if err := s.Blockings.Save(ctx, b); err != nil {
			return err
		}
		if b.Status != blocking.StatusActive {
			return nil
		}
		return s.propagateImpact(ctx, b, false)
	})
}

// Reschedule moves the interval's span and re-runs the overlap check against
// the room's other non-terminal intervals.
func (s *Service) Reschedule(ctx context.Context, id blocking.IntervalID, start, end time.Time) (*blocking.Interval, error) {
	return s.mutate(ctx, id, func(ctx context.Context, b *blocking.Interval) error {
		if err := b.Reschedule(start, end, s.now()); err != nil {
			return err
		}
		if err := s.rejectOverlap(ctx, b.RoomID, b.Span, b.ID); err != nil {
			return err
		}
		return s.Blockings.Save(ctx, b)
	})
}

func (s *Service) Get(ctx context.Context, id blocking.IntervalID) (*blocking.Interval, error) {
	return s.Blockings.ByID(ctx, id)
}

func (s *Service) ByRoom(ctx context.Context, roomID string) ([]*blocking.Interval, error) {
	return s.Blockings.ByRoom(ctx, roomID)
}

// Availability is the blocking gate for one room and range.
type Availability struct {
	Available bool
	Blockings []*blocking.Interval
}

// QueryAvailability returns every non-terminal interval overlapping the range
// plus the derived gate: unavailable iff any of them closes inventory under
// the current policy.
func (s *Service) QueryAvailability(ctx context.Context, roomID string, start, end time.Time) (Availability, error) {
	span, err := daterange.New(start, end)
	if err != nil {
		return Availability{}, err
	}
	overlapping, err := s.Blockings.Overlapping(ctx, roomID, span, nonTerminal, "")
	if err != nil {
		return Availability{}, err
	}
	p, err := s.Policies.Load(ctx)
	if err != nil {
		return Availability{}, err
	}
	available := true
	for _, b := range overlapping {
		if b.ClosesInventory(p.EventClosesInventory) {
			available = false
			break
		}
	}
	return Availability{Available: available, Blockings: overlapping}, nil
}

// HasActiveBlocking feeds the sellability predicate.
func (s *Service) HasActiveBlocking(ctx context.Context, roomID string) (bool, error) {
	intervals, err := s.Blockings.ByRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	for _, b := range intervals {
		if b.Status == blocking.StatusActive {
			return true, nil
		}
	}
	return false, nil
}

// HasClosingBlocking reports an active interval that closes inventory under
// the given policy. Event blockings stay out of the booking gate when the
// policy keeps them inventory-neutral.
func (s *Service) HasClosingBlocking(ctx context.Context, roomID string, p policy.Policy) (bool, error) {
	intervals, err := s.Blockings.ByRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	for _, b := range intervals {
		if b.Status == blocking.StatusActive && b.ClosesInventory(p.EventClosesInventory) {
			return true, nil
		}
	}
	return false, nil
}

// ActivateDue activates planned intervals whose start date has arrived.
// Driven by the lifecycle sweep; failures on one interval do not stop the
// rest.
func (s *Service) ActivateDue(ctx context.Context, asOf time.Time) (int, error) {
	due, err := s.Blockings.DueForActivation(ctx, daterange.Day(asOf))
	if err != nil {
		return 0, err
	}
	activated := 0
	for _, b := range due {
		if _, err := s.Activate(ctx, b.ID); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("blocking auto-activation failed", "blocking", b.ID, "error", err)
			}
			continue
		}
		activated++
	}
	return activated, nil
}

// CompleteDue completes active intervals whose end date has passed.
func (s *Service) CompleteDue(ctx context.Context, asOf time.Time) (int, error) {
	due, err := s.Blockings.DueForCompletion(ctx, daterange.Day(asOf))
	if err != nil {
		return 0, err
	}
	completed := 0
	for _, b := range due {
		if _, err := s.Complete(ctx, b.ID); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("blocking auto-completion failed", "blocking", b.ID, "error", err)
			}
			continue
		}
		completed++
	}
	return completed, nil
}

func (s *Service) mutate(ctx context.Context, id blocking.IntervalID, fn func(context.Context, *blocking.Interval) error) (*blocking.Interval, error) {
	b, err := s.Blockings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	unlock := s.Locks.Lock(b.RoomID)
	defer unlock()
	// Reload under the lock; the first read only resolved the room id.
	b, err = s.Blockings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(ctx, b); err != nil {
		return nil, err
	}
	if err := s.drainEvents(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) rejectOverlap(ctx context.Context, roomID string, span daterange.Span, excludeID blocking.IntervalID) error {
	conflicts, err := s.Blockings.Overlapping(ctx, roomID, span, nonTerminal, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &blocking.OverlapConflictError{RoomID: roomID, Span: span, Conflicts: conflicts}
	}
	return nil
}

// propagateImpact emits the inventory impact event and hands it to the room
// mediator while the room lock is held.
func (s *Service) propagateImpact(ctx context.Context, b *blocking.Interval, cleared bool) error {
	p, err := s.Policies.Load(ctx)
	if err != nil {
		return err
	}
	reason := b.Reason
	if reason == "" {
		reason = b.Name
	}
	evt := blocking.InventoryImpactChanged{
		BlockingID:      string(b.ID),
		RoomID:          b.RoomID,
		Type:            b.Type,
		Reason:          reason,
		ClosesInventory: b.ClosesInventory(p.EventClosesInventory),
		Cleared:         cleared,
		At:              s.now(),
	}
	b.Record(evt)
	if s.Impacts == nil {
		return nil
	}
	return s.Impacts.ApplyInventoryImpact(ctx, evt)
}

func (s *Service) drainEvents(ctx context.Context, b *blocking.Interval) error {
	evs := b.PendingEvents()
	b.ClearEvents()
	return outbox.RecordDomainEvents(ctx, s.Outbox, s.Encoder, evs)
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}
