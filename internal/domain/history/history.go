package history

import (
	"context"
	"errors"
	"time"

	"hotelcore/internal/domain/room"
)

var ErrNoChanges = errors.New("history: no actual changes, record not created")

type ChangeType string

const (
	ChangeFrontOffice  ChangeType = "fo"
	ChangeHousekeeping ChangeType = "hk"
	ChangeMaintenance  ChangeType = "mt"
	ChangeBlocking     ChangeType = "blocking"
	ChangeSystem       ChangeType = "system"
	ChangeOther        ChangeType = "other"
)

// Entry is one row of the append-only status ledger. Identity is
// (RoomID, ChangeDate, ChangeType); Seq is assigned by the repository and
// breaks ChangeDate ties so the timeline matches commit order.
type Entry struct {
	RoomID                 room.RoomID
	Seq                    int64
	ChangeType             ChangeType
	OldState               room.State
	NewState               room.State
	OldMaintenanceRequired bool
	NewMaintenanceRequired bool
	ChangeReason           string
	ChangeMethod           string
	ChangeNotes            string
	ChangedBy              string
	ChangeDate             time.Time
}

// Repository is the append-only ledger. Append assigns Seq; entries are never
// updated or deleted.
type Repository interface {
	Append(ctx context.Context, entry Entry) error
	ByRoom(ctx context.Context, roomID room.RoomID, filter Filter) ([]Entry, error)
}

type Filter struct {
	ChangeType ChangeType
	From       time.Time
	To         time.Time
	Limit      int
}

type NewEntryParams struct {
	RoomID       room.RoomID
	ChangeType   ChangeType
	Change       room.Change
	ChangeMethod string
	ChangeNotes  string
	ChangedBy    string
}

// NewEntry builds a ledger row from an accepted room change. A row that would
// record no difference fails validation instead of logging a no-change line.
func NewEntry(params NewEntryParams) (Entry, error) {
	c := params.Change
	if c.OldState == c.NewState && c.OldMaintenanceRequired == c.NewMaintenanceRequired {
		return Entry{}, ErrNoChanges
	}
	return Entry{
		RoomID:                 params.RoomID,
		ChangeType:             params.ChangeType,
		OldState:               c.OldState,
		NewState:               c.NewState,
		OldMaintenanceRequired: c.OldMaintenanceRequired,
		NewMaintenanceRequired: c.NewMaintenanceRequired,
		ChangeReason:           c.Reason,
		ChangeMethod:           params.ChangeMethod,
		ChangeNotes:            params.ChangeNotes,
		ChangedBy:              params.ChangedBy,
		ChangeDate:             c.At,
	}, nil
}

// Summary aggregates a room's recent ledger activity.
type Summary struct {
	RoomID       room.RoomID
	PeriodDays   int
	TotalChanges int
	ChangeCounts map[ChangeType]int
	Latest       *Entry
}

// Summarize folds entries into per-type counts plus the latest row. Entries
// are expected in ascending commit order.
func Summarize(roomID room.RoomID, periodDays int, entries []Entry) Summary {
	s := Summary{
		RoomID:       roomID,
		PeriodDays:   periodDays,
		TotalChanges: len(entries),
		ChangeCounts: make(map[ChangeType]int, 4),
	}
	for i := range entries {
		s.ChangeCounts[entries[i].ChangeType]++
	}
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		s.Latest = &last
	}
	return s
}
