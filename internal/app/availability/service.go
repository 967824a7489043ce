package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hotelcore/internal/app/blockings"
	"hotelcore/internal/app/locks"
	"hotelcore/internal/app/rooms"
	"hotelcore/internal/domain/blocking"
	"hotelcore/internal/domain/policy"
	"hotelcore/internal/domain/room"
)

// Service is the facade front-office and booking systems call: it ANDs the
// state machine's sellability gate with the blocking resolver's gate and
// explains which gate failed.
type Service struct {
	Rooms        room.Repository
	StateMachine *rooms.Service
	Resolver     *blockings.Service
	Policies     policy.Loader
	Locks        *locks.Keyed
	Logger       *slog.Logger
}

// Result reports availability plus the reasons it failed, for both UI display
// and assertions.
type Result struct {
	RoomID    room.RoomID          `json:"room_id"`
	Available bool                 `json:"available"`
	Reasons   []string             `json:"reasons,omitempty"`
	State     room.State           `json:"state"`
	Sellable  bool                 `json:"sellable"`
	Blockings []*blocking.Interval `json:"blockings,omitempty"`
}

// NotAvailableError rejects a reservation against a room that failed either
// gate.
type NotAvailableError struct {
	RoomID  room.RoomID
	Reasons []string
}

func (e *NotAvailableError) Error() string {
	return fmt.Sprintf("availability: room %s not available: %s", e.RoomID, strings.Join(e.Reasons, "; "))
}

// CheckAvailability recomputes both gates for the range. Pure read; never
// cached.
func (s *Service) CheckAvailability(ctx context.Context, id room.RoomID, start, end time.Time) (Result, error) {
	unlock := s.Locks.Lock(string(id))
	defer unlock()
	return s.checkHeld(ctx, id, start, end)
}

func (s *Service) checkHeld(ctx context.Context, id room.RoomID, start, end time.Time) (Result, error) {
	r, err := s.Rooms.ByID(ctx, id)
	if err != nil {
		return Result{}, err
	}
	p, err := s.Policies.Load(ctx)
	if err != nil {
		return Result{}, err
	}
	gate, err := s.Resolver.QueryAvailability(ctx, string(id), start, end)
	if err != nil {
		return Result{}, err
	}
	hasActive, err := s.Resolver.HasActiveBlocking(ctx, string(id))
	if err != nil {
		return Result{}, err
	}
	// Only inventory-closing blockings gate the range. An active event
	// blocking under a policy that keeps events inventory-neutral leaves the
	// room bookable even though the instantaneous sellable flag drops.
	hasClosing, err := s.Resolver.HasClosingBlocking(ctx, string(id), p)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		RoomID:    id,
		State:     r.State,
		Sellable:  r.Sellable(p, hasActive),
		Blockings: gate.Blockings,
	}
	stateSellable := true
	if r.State != room.StateClean && r.State != room.StateInspected {
		res.Reasons = append(res.Reasons, fmt.Sprintf("room state %q not sellable", r.State))
		stateSellable = false
	} else if p.RequireInspectedToSell && r.State != room.StateInspected {
		res.Reasons = append(res.Reasons, "not inspected")
		stateSellable = false
	}
	if hasClosing {
		res.Reasons = append(res.Reasons, "active blocking on room")
	}
	if !gate.Available {
		res.Reasons = append(res.Reasons, blockedReason(gate.Blockings))
	}
	res.Available = stateSellable && !hasClosing && gate.Available
	return res, nil
}

// Reserve performs check-then-act under one per-room lock so two concurrent
// reservations cannot both observe an available room.
func (s *Service) Reserve(ctx context.Context, id room.RoomID, start, end time.Time, guestRef, notes string) (*room.Room, error) {
	unlock := s.Locks.Lock(string(id))
	defer unlock()

	res, err := s.checkHeld(ctx, id, start, end)
	if err != nil {
		return nil, err
	}
	if !res.Available {
		return nil, &NotAvailableError{RoomID: id, Reasons: res.Reasons}
	}
	r, err := s.StateMachine.ApplyHeld(ctx, id, room.ActionCheckIn, rooms.ActionParams{
		Actor:  guestRef,
		Reason: fmt.Sprintf("Reserved: %s", guestRef),
		Notes:  notes,
	})
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("room reserved", "room", r.RoomNumber, "guest", guestRef, "from", start, "to", end)
	}
	return r, nil
}

// CancelReservation releases an occupied room back through checkout and hands
// it to housekeeping.
func (s *Service) CancelReservation(ctx context.Context, id room.RoomID, reason string) (*room.Room, error) {
	unlock := s.Locks.Lock(string(id))
	defer unlock()

	if _, err := s.StateMachine.ApplyHeld(ctx, id, room.ActionCheckOut, rooms.ActionParams{
		Actor:  "front-office",
		Reason: fmt.Sprintf("Reservation cancelled: %s", reason),
	}); err != nil {
		return nil, err
	}
	return s.StateMachine.ApplyHeld(ctx, id, room.ActionReadyForCleaning, rooms.ActionParams{
		Actor:  "front-office",
		Reason: "Released after cancellation",
	})
}

// FleetResult is one room's availability row in a fleet report.
type FleetResult struct {
	Result
	RoomNumber string `json:"room_number"`
	Floor      int    `json:"floor"`
	RoomType   string `json:"room_type"`
}

// FleetAvailability computes the availability report over the inventory,
// optionally filtered by floor or room type. Stateless read over a snapshot;
// safe to restart.
func (s *Service) FleetAvailability(ctx context.Context, start, end time.Time, filter room.ListFilter) ([]FleetResult, error) {
	list, err := s.Rooms.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]FleetResult, 0, len(list))
	for _, r := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.CheckAvailability(ctx, r.ID, start, end)
		if err != nil {
			if errors.Is(err, room.ErrRoomNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, FleetResult{Result: res, RoomNumber: r.RoomNumber, Floor: r.Floor, RoomType: r.RoomType})
	}
	return out, nil
}

func blockedReason(list []*blocking.Interval) string {
	names := make([]string, 0, len(list))
	for _, b := range list {
		names = append(names, fmt.Sprintf("%s %s (%s)", b.Type, b.Span, b.Status))
	}
	return "blocked: " + strings.Join(names, ", ")
}
