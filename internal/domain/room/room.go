package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelcore/internal/domain/policy"
	"hotelcore/internal/domain/shared/events"
)

var (
	ErrRoomNotFound   = errors.New("room: not found")
	ErrRoomNumber     = errors.New("room: room number required")
	ErrDuplicateRoom  = errors.New("room: room number already exists on this floor")
	ErrNoStatusChange = errors.New("room: no status change")
)

type RoomID string

type Room struct {
	ID                  RoomID
	RoomNumber          string
	Floor               int
	RoomType            string
	MaxOccupancy        int
	State               State
	MaintenanceRequired bool
	LastStatusChange    time.Time
	StatusChangeReason  string
	BlockingType        string
	BlockingReason      string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Version             int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id RoomID) (*Room, error)
	ByNumber(ctx context.Context, roomNumber string, floor int) (*Room, error)
	Save(ctx context.Context, room *Room) error
	List(ctx context.Context, filter ListFilter) ([]*Room, error)
}

type ListFilter struct {
	Floor    *int
	RoomType string
	States   []State
}

type CreateParams struct {
	ID           RoomID
	RoomNumber   string
	Floor        int
	RoomType     string
	MaxOccupancy int
	CreatedAt    time.Time
}

func New(params CreateParams) (*Room, error) {
	if params.RoomNumber == "" {
		return nil, ErrRoomNumber
	}
	now := params.CreatedAt.UTC()
	r := &Room{
		ID:               params.ID,
		RoomNumber:       params.RoomNumber,
		Floor:            params.Floor,
		RoomType:         params.RoomType,
		MaxOccupancy:     params.MaxOccupancy,
		State:            StateInspected,
		LastStatusChange: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return r, nil
}

// Change captures the before/after snapshot of an accepted status mutation,
// used to build the history ledger row.
type Change struct {
	OldState               State
	NewState               State
	OldMaintenanceRequired bool
	NewMaintenanceRequired bool
	Reason                 string
	At                     time.Time
}

// Apply performs an action against the transition table. A rejected action
// returns *InvalidTransitionError and leaves the room untouched.
func (r *Room) Apply(action Action, reason string, now time.Time) (Change, error) {
	next, err := nextState(r.State, action)
	if err != nil {
		return Change{}, err
	}
	change := Change{
		OldState:               r.State,
		NewState:               next,
		OldMaintenanceRequired: r.MaintenanceRequired,
		NewMaintenanceRequired: maintenanceAfter(action, r.MaintenanceRequired),
		Reason:                 reason,
		At:                     now.UTC(),
	}
	if change.OldState == change.NewState && change.OldMaintenanceRequired == change.NewMaintenanceRequired {
		return Change{}, ErrNoStatusChange
	}
	r.commit(change)
	r.Record(StatusChanged{
		RoomID:   string(r.ID),
		Action:   action,
		OldState: change.OldState,
		NewState: change.NewState,
		Reason:   reason,
		At:       change.At,
	})
	return change, nil
}

// ApplyBlockingImpact records an active blocking on the room. The blocking
// type and reason are always set; the state moves to out_of_service only when
// the blocking closes inventory. Returns ok=false when nothing changed.
func (r *Room) ApplyBlockingImpact(blockingType, reason string, closesInventory bool, now time.Time) (Change, bool) {
	change := Change{
		OldState:               r.State,
		NewState:               r.State,
		OldMaintenanceRequired: r.MaintenanceRequired,
		NewMaintenanceRequired: r.MaintenanceRequired,
		Reason:                 reason,
		At:                     now.UTC(),
	}
	if closesInventory {
		change.NewState = StateOutOfService
	}
	stateChanged := change.OldState != change.NewState
	fieldsChanged := r.BlockingType != blockingType || r.BlockingReason != reason
	if !stateChanged && !fieldsChanged {
		return Change{}, false
	}
	r.BlockingType = blockingType
	r.BlockingReason = reason
	if stateChanged {
		r.commit(change)
	} else {
		r.UpdatedAt = change.At
	}
	return change, stateChanged
}

// ClearBlockingImpact resets the room to inspected once a blocking leaves the
// active status, and drops the blocking annotation.
func (r *Room) ClearBlockingImpact(reason string, now time.Time) (Change, bool) {
	change := Change{
		OldState:               r.State,
		NewState:               StateInspected,
		OldMaintenanceRequired: r.MaintenanceRequired,
		NewMaintenanceRequired: r.MaintenanceRequired,
		Reason:                 reason,
		At:                     now.UTC(),
	}
	r.BlockingType = ""
	r.BlockingReason = ""
	if change.OldState == change.NewState {
		r.UpdatedAt = change.At
		return Change{}, false
	}
	r.commit(change)
	return change, true
}

func (r *Room) commit(change Change) {
	r.State = change.NewState
	r.MaintenanceRequired = change.NewMaintenanceRequired
	r.LastStatusChange = change.At
	r.StatusChangeReason = change.Reason
	r.UpdatedAt = change.At
}

// Sellable reports whether the room can be offered to a guest. Pure
// computation over the current state; the active-blocking gate is resolved by
// the caller and passed in.
func (r *Room) Sellable(p policy.Policy, hasActiveBlocking bool) bool {
	if r.State != StateClean && r.State != StateInspected {
		return false
	}
	if p.RequireInspectedToSell && r.State != StateInspected {
		return false
	}
	return !hasActiveBlocking
}

func (r *Room) Name() string {
	return fmt.Sprintf("Floor %d - Room %s", r.Floor, r.RoomNumber)
}
