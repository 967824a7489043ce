package rooms

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hotelcore/internal/app/locks"
	"hotelcore/internal/app/outbox"
	"hotelcore/internal/domain/blocking"
	"hotelcore/internal/domain/history"
	"hotelcore/internal/domain/room"
)

// Service is the room state machine: every accepted action atomically updates
// the room and appends exactly one ledger row. All read-then-write paths take
// the per-room lock.
type Service struct {
	Rooms   room.Repository
	History history.Repository
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Locks   *locks.Keyed
	Logger  *slog.Logger
	Clock   func() time.Time
}

// ActionParams carries caller context for a transition. Actor is an opaque
// identity recorded in the ledger; role gating happens in the caller.
type ActionParams struct {
	Actor  string
	Reason string
	Notes  string
}

type CreateRoomParams struct {
	RoomNumber   string
	Floor        int
	RoomType     string
	MaxOccupancy int
}

func (s *Service) CreateRoom(ctx context.Context, params CreateRoomParams) (*room.Room, error) {
	if existing, err := s.Rooms.ByNumber(ctx, params.RoomNumber, params.Floor); err == nil && existing != nil {
		return nil, room.ErrDuplicateRoom
	}
	now := s.now()
	r, err := room.New(room.CreateParams{
		ID:           room.RoomID(uuid.NewString()),
		RoomNumber:   params.RoomNumber,
		Floor:        params.Floor,
		RoomType:     params.RoomType,
		MaxOccupancy: params.MaxOccupancy,
		CreatedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	r.Record(room.Created{RoomID: string(r.ID), RoomNumber: r.RoomNumber, Floor: r.Floor, At: now})
	if err := s.Rooms.Save(ctx, r); err != nil {
		return nil, err
	}
	if err := s.drainEvents(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, id room.RoomID) (*room.Room, error) {
	return s.Rooms.ByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter room.ListFilter) ([]*room.Room, error) {
	return s.Rooms.List(ctx, filter)
}

// Apply runs one state machine action under the room lock.
func (s *Service) Apply(ctx context.Context, id room.RoomID, action room.Action, params ActionParams) (*room.Room, error) {
	unlock := s.Locks.Lock(string(id))
	defer unlock()
	return s.ApplyHeld(ctx, id, action, params)
}

// ApplyHeld is Apply for callers that already hold the room lock, such as the
// availability facade performing check-then-act.
func (s *Service) ApplyHeld(ctx context.Context, id room.RoomID, action room.Action, params ActionParams) (*room.Room, error) {
	r, err := s.Rooms.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	change, err := r.Apply(action, params.Reason, s.now())
	if err != nil {
		return nil, err
	}
	entry, err := history.NewEntry(history.NewEntryParams{
		RoomID:       id,
		ChangeType:   changeTypeFor(action),
		Change:       change,
		ChangeMethod: string(action),
		ChangeNotes:  params.Notes,
		ChangedBy:    params.Actor,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Rooms.Save(ctx, r); err != nil {
		return nil, err
	}
	if err := s.History.Append(ctx, entry); err != nil {
		return nil, err
	}
	if err := s.drainEvents(ctx, r); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("room transition", "room", r.RoomNumber, "action", action, "from", change.OldState, "to", change.NewState, "actor", params.Actor)
	}
	return r, nil
}

func (s *Service) CheckIn(ctx context.Context, id room.RoomID, guestRef, notes, actor string) (*room.Room, error) {
	return s.Apply(ctx, id, room.ActionCheckIn, ActionParams{Actor: actor, Reason: fmt.Sprintf("Check-in: %s", guestRef), Notes: notes})
}

func (s *Service) CheckOut(ctx context.Context, id room.RoomID, guestRef, notes, actor string) (*room.Room, error) {
	return s.Apply(ctx, id, room.ActionCheckOut, ActionParams{Actor: actor, Reason: fmt.Sprintf("Check-out: %s", guestRef), Notes: notes})
}

func (s *Service) ReadyForCleaning(ctx context.Context, id room.RoomID, actor string) (*room.Room, error) {
	return s.Apply(ctx, id, room.ActionReadyForCleaning, ActionParams{Actor: actor, Reason: "Released to housekeeping"})
}

func (s *Service) StartCleaning(ctx context.Context, id room.RoomID, actor string) (*room.Room, error) {
	return s.Apply(ctx, id, room.ActionStartCleaning, ActionParams{Actor: actor, Reason: "Cleaning started"})
}

func (s *Service) FinishCleaning(ctx context.Context, id room.RoomID, actor string) (*room.Room, error) {
	return s.Apply(ctx, id, room.ActionFinishCleaning, ActionParams{Actor: actor, Reason: "Cleaning finished"})
}

func (s *Service) FinalInspection(ctx context.Context, id room.RoomID, actor string) (*room.Room, error) {
	return s.Apply(ctx, id, room.ActionFinalInspection, ActionParams{Actor: actor, Reason: "Final inspection passed"})
}

func (s *Service) AssignHouseUse(ctx context.Context, id room.RoomID, reason, actor string) (*room.Room, error) {
	return s.Apply(ctx, id, room.ActionAssignHouseUse, ActionParams{Actor: actor, Reason: reason})
}

func (s *Service) StaffCheckout(ctx context.Context, id room.RoomID, actor string) (*room.Room, error) {
	return s.Apply(ctx, id, room.ActionStaffCheckout, ActionParams{Actor: actor, Reason: "House use ended"})
}

func (s *Service) StartLightMaintenance(ctx context.Context, id room.RoomID, reason, actor string) (*room.Room, error) {
	return s.Apply(ctx, id, room.ActionMaintenanceLight, ActionParams{Actor: actor, Reason: reason})
}

func (s *Service) StartHeavyMaintenance(ctx context.Context, id room.RoomID, reason, actor string) (*room.Room, error) {
	return s.Apply(ctx, id, room.ActionMaintenanceHeavy, ActionParams{Actor: actor, Reason: reason})
}

func (s *Service) CompleteMaintenance(ctx context.Context, id room.RoomID, actor string) (*room.Room, error) {
	return s.Apply(ctx, id, room.ActionCompleteMaintenance, ActionParams{Actor: actor, Reason: "Maintenance completed"})
}

// ApplyInventoryImpact consumes a blocking impact event and mutates the owning
// room. The blocking resolver serializes per room and holds the room lock when
// calling; this method must not re-acquire it.
func (s *Service) ApplyInventoryImpact(ctx context.Context, evt blocking.InventoryImpactChanged) error {
	r, err := s.Rooms.ByID(ctx, room.RoomID(evt.RoomID))
	if err != nil {
		return err
	}
	var (
		change  room.Change
		changed bool
	)
	if evt.Cleared {
		change, changed = r.ClearBlockingImpact(evt.Reason, evt.At)
	} else {
		change, changed = r.ApplyBlockingImpact(string(evt.Type), evt.Reason, evt.ClosesInventory, evt.At)
	}
	if err := s.Rooms.Save(ctx, r); err != nil {
		return err
	}
	if !changed {
		return nil
	}
	entry, err := history.NewEntry(history.NewEntryParams{
		RoomID:       r.ID,
		ChangeType:   history.ChangeBlocking,
		Change:       change,
		ChangeMethod: evt.EventName(),
		ChangedBy:    "system",
	})
	if err != nil {
		return err
	}
	if err := s.History.Append(ctx, entry); err != nil {
		return err
	}
	return s.drainEvents(ctx, r)
}

func (s *Service) HistoryFor(ctx context.Context, id room.RoomID, filter history.Filter) ([]history.Entry, error) {
	if _, err := s.Rooms.ByID(ctx, id); err != nil {
		return nil, err
	}
	return s.History.ByRoom(ctx, id, filter)
}

// Timeline returns the room's committed changes inside a window, ascending.
func (s *Service) Timeline(ctx context.Context, id room.RoomID, from, to time.Time) ([]history.Entry, error) {
	return s.HistoryFor(ctx, id, history.Filter{From: from, To: to})
}

// StatusSummary folds the last N days of ledger rows into per-type counts.
func (s *Service) StatusSummary(ctx context.Context, id room.RoomID, days int) (history.Summary, error) {
	if days <= 0 {
		days = 30
	}
	now := s.now()
	entries, err := s.HistoryFor(ctx, id, history.Filter{From: now.AddDate(0, 0, -days), To: now})
	if err != nil {
		return history.Summary{}, err
	}
	return history.Summarize(id, days, entries), nil
}

func (s *Service) drainEvents(ctx context.Context, r *room.Room) error {
	evs := r.PendingEvents()
	r.ClearEvents()
	return outbox.RecordDomainEvents(ctx, s.Outbox, s.Encoder, evs)
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

func changeTypeFor(action room.Action) history.ChangeType {
	switch action {
	case room.ActionCheckIn, room.ActionCheckOut:
		return history.ChangeFrontOffice
	case room.ActionReadyForCleaning, room.ActionStartCleaning, room.ActionFinishCleaning,
		room.ActionFinalInspection, room.ActionAssignHouseUse, room.ActionStaffCheckout:
		return history.ChangeHousekeeping
	case room.ActionMaintenanceLight, room.ActionMaintenanceHeavy, room.ActionCompleteMaintenance:
		return history.ChangeMaintenance
	}
	return history.ChangeOther
}
