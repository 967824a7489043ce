package blockings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelcore/internal/app/locks"
	roomsapp "hotelcore/internal/app/rooms"
	"hotelcore/internal/domain/blocking"
	"hotelcore/internal/domain/history"
	"hotelcore/internal/domain/policy"
	"hotelcore/internal/domain/room"
	"hotelcore/internal/infra/storage/memory"
)

var testTime = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	resolver *Service
	rooms    *roomsapp.Service
	roomRepo *memory.RoomRepository
	history  *memory.HistoryRepository
	outbox   *memory.Outbox
	clock    time.Time
}

func newFixture(t *testing.T, p policy.Policy) *fixture {
	t.Helper()
	f := &fixture{
		roomRepo: memory.NewRoomRepository(),
		history:  memory.NewHistoryRepository(),
		outbox:   memory.NewOutbox(),
		clock:    testTime,
	}
	keyed := locks.NewKeyed()
	f.rooms = &roomsapp.Service{
		Rooms:   f.roomRepo,
		History: f.history,
		Outbox:  f.outbox,
		Locks:   keyed,
		Clock:   func() time.Time { return f.clock },
	}
	f.resolver = &Service{
		Blockings: memory.NewBlockingRepository(),
		Rooms:     f.roomRepo,
		Policies:  policy.Static(p),
		Impacts:   f.rooms,
		Outbox:    f.outbox,
		Locks:     keyed,
		Clock:     func() time.Time { return f.clock },
	}
	return f
}

func (f *fixture) createRoom(t *testing.T) *room.Room {
	t.Helper()
	r, err := f.rooms.CreateRoom(context.Background(), roomsapp.CreateRoomParams{
		RoomNumber: "201", Floor: 2, RoomType: "suite", MaxOccupancy: 4,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) createBlocking(t *testing.T, roomID string, typ blocking.Type, status blocking.Status, start, end time.Time) *blocking.Interval {
	t.Helper()
	b, err := f.resolver.Create(context.Background(), CreateParams{
		RoomID: roomID,
		Name:   "test blocking",
		Type:   typ,
		Status: status,
		Start:  start,
		End:    end,
		Reason: "scheduled work",
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) roomState(t *testing.T, id room.RoomID) *room.Room {
	t.Helper()
	r, err := f.roomRepo.ByID(context.Background(), id)
	require.NoError(t, err)
	return r
}

func TestCreateRequiresExistingRoom(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	_, err := f.resolver.Create(context.Background(), CreateParams{
		RoomID: "missing", Type: blocking.TypeMaintenance, Start: testTime, End: testTime,
	})
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestCreateRejectsOverlapWithNonTerminal(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t)
	f.createBlocking(t, string(r.ID), blocking.TypeMaintenance, blocking.StatusPlanned,
		testTime, testTime.AddDate(0, 0, 5))

	_, err := f.resolver.Create(context.Background(), CreateParams{
		RoomID: string(r.ID), Name: "second", Type: blocking.TypeRenovation,
		Start: testTime.AddDate(0, 0, 5), End: testTime.AddDate(0, 0, 8),
	})
	var conflict *blocking.OverlapConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Len(t, conflict.Conflicts, 1)
}

func TestCreateAllowsOverlapWithTerminal(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t)
	b := f.createBlocking(t, string(r.ID), blocking.TypeMaintenance, blocking.StatusPlanned,
		testTime, testTime.AddDate(0, 0, 5))
	_, err := f.resolver.Cancel(context.Background(), b.ID, "rescheduled")
	require.NoError(t, err)

	_, err = f.resolver.Create(context.Background(), CreateParams{
		RoomID: string(r.ID), Name: "replacement", Type: blocking.TypeMaintenance,
		Start: testTime, End: testTime.AddDate(0, 0, 5),
	})
	assert.NoError(t, err)
}

func TestCreateAllowsAdjacentSpans(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t)
	f.createBlocking(t, string(r.ID), blocking.TypeMaintenance, blocking.StatusPlanned,
		testTime, testTime.AddDate(0, 0, 2))

	_, err := f.resolver.Create(context.Background(), CreateParams{
		RoomID: string(r.ID), Name: "next window", Type: blocking.TypeMaintenance,
		Start: testTime.AddDate(0, 0, 3), End: testTime.AddDate(0, 0, 5),
	})
	assert.NoError(t, err)
}

func TestActivateTakesRoomOutOfService(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t)
	b := f.createBlocking(t, string(r.ID), blocking.TypeMaintenance, blocking.StatusPlanned,
		testTime, testTime.AddDate(0, 0, 3))

	activated, err := f.resolver.Activate(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, blocking.StatusActive, activated.Status)

	current := f.roomState(t, r.ID)
	assert.Equal(t, room.StateOutOfService, current.State)
	assert.Equal(t, "maintenance", current.BlockingType)
	assert.Equal(t, "scheduled work", current.BlockingReason)

	entries, err := f.history.ByRoom(context.Background(), r.ID, history.Filter{ChangeType: history.ChangeBlocking})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "system", entries[0].ChangedBy)
	assert.Equal(t, room.StateOutOfService, entries[0].NewState)
}

func TestActivateIdempotent(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t)
	b := f.createBlocking(t, string(r.ID), blocking.TypeMaintenance, blocking.StatusPlanned,
		testTime, testTime.AddDate(0, 0, 3))

	_, err := f.resolver.Activate(context.Background(), b.ID)
	require.NoError(t, err)
	_, err = f.resolver.Activate(context.Background(), b.ID)
	require.NoError(t, err)

	entries, err := f.history.ByRoom(context.Background(), r.ID, history.Filter{ChangeType: history.ChangeBlocking})
	require.NoError(t, err)
	assert.Len(t, entries, 1, "second activation must not add a row")
}

func TestEventBlockingInventoryNeutral(t *testing.T) {
	f := newFixture(t, policy.Policy{EventClosesInventory: false})
	r := f.createRoom(t)
	b := f.createBlocking(t, string(r.ID), blocking.TypeEvent, blocking.StatusPlanned,
		testTime, testTime.AddDate(0, 0, 3))

	_, err := f.resolver.Activate(context.Background(), b.ID)
	require.NoError(t, err)

	current := f.roomState(t, r.ID)
	assert.Equal(t, room.StateInspected, current.State, "event blocking must not close inventory")
	assert.Equal(t, "event", current.BlockingType)

	gate, err := f.resolver.QueryAvailability(context.Background(), string(r.ID), testTime, testTime.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, gate.Available)
	assert.Len(t, gate.Blockings, 1)
}

func TestEventBlockingClosesInventoryWhenPolicySaysSo(t *testing.T) {
	f := newFixture(t, policy.Policy{EventClosesInventory: true})
	r := f.createRoom(t)
	b := f.createBlocking(t, string(r.ID), blocking.TypeEvent, blocking.StatusPlanned,
		testTime, testTime.AddDate(0, 0, 3))

	_, err := f.resolver.Activate(context.Background(), b.ID)
	require.NoError(t, err)

	assert.Equal(t, room.StateOutOfService, f.roomState(t, r.ID).State)

	gate, err := f.resolver.QueryAvailability(context.Background(), string(r.ID), testTime, testTime.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, gate.Available)
}

func TestCompleteResetsRoom(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t)
	b := f.createBlocking(t, string(r.ID), blocking.TypeMaintenance, blocking.StatusActive,
		testTime, testTime.AddDate(0, 0, 3))

	require.Equal(t, room.StateOutOfService, f.roomState(t, r.ID).State)

	completed, err := f.resolver.Complete(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, blocking.StatusCompleted, completed.Status)

	current := f.roomState(t, r.ID)
	assert.Equal(t, room.StateInspected, current.State)
	assert.Empty(t, current.BlockingType)
	assert.Empty(t, current.BlockingReason)
}

func TestCancelPlannedLeavesRoomAlone(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t)
	b := f.createBlocking(t, string(r.ID), blocking.TypeMaintenance, blocking.StatusPlanned,
		testTime, testTime.AddDate(0, 0, 3))

	cancelled, err := f.resolver.Cancel(context.Background(), b.ID, "not needed")
	require.NoError(t, err)
	assert.Equal(t, blocking.StatusCancelled, cancelled.Status)
	assert.Equal(t, room.StateInspected, f.roomState(t, r.ID).State)

	entries, err := f.history.ByRoom(context.Background(), r.ID, history.Filter{ChangeType: history.ChangeBlocking})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompleteTerminalRejected(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t)
	b := f.createBlocking(t, string(r.ID), blocking.TypeMaintenance, blocking.StatusPlanned,
		testTime, testTime.AddDate(0, 0, 3))
	_, err := f.resolver.Complete(context.Background(), b.ID)
	require.NoError(t, err)

	var terminal *blocking.AlreadyTerminalError
	_, err = f.resolver.Complete(context.Background(), b.ID)
	assert.ErrorAs(t, err, &terminal)
	_, err = f.resolver.Activate(context.Background(), b.ID)
	assert.ErrorAs(t, err, &terminal)
}

func TestChangeTypeWhileActiveReappliesImpact(t *testing.T) {
	f := newFixture(t, policy.Policy{EventClosesInventory: false})
	r := f.createRoom(t)
	b := f.createBlocking(t, string(r.ID), blocking.TypeEvent, blocking.StatusActive,
		testTime, testTime.AddDate(0, 0, 3))

	require.Equal(t, room.StateInspected, f.roomState(t, r.ID).State)

	changed, err := f.resolver.ChangeType(context.Background(), b.ID, blocking.TypeMaintenance)
	require.NoError(t, err)
	assert.Equal(t, blocking.TypeMaintenance, changed.Type)
	assert.Equal(t, blocking.StatusActive, changed.Status)

	current := f.roomState(t, r.ID)
	assert.Equal(t, room.StateOutOfService, current.State, "type change must re-derive the inventory impact")
	assert.Equal(t, "maintenance", current.BlockingType)
}

func TestRescheduleRejectsOverlap(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t)
	f.createBlocking(t, string(r.ID), blocking.TypeMaintenance, blocking.StatusPlanned,
		testTime, testTime.AddDate(0, 0, 2))
	b := f.createBlocking(t, string(r.ID), blocking.TypeRenovation, blocking.StatusPlanned,
		testTime.AddDate(0, 0, 10), testTime.AddDate(0, 0, 12))

	var conflict *blocking.OverlapConflictError
	_, err := f.resolver.Reschedule(context.Background(), b.ID, testTime.AddDate(0, 0, 1), testTime.AddDate(0, 0, 4))
	require.ErrorAs(t, err, &conflict)

	_, err = f.resolver.Reschedule(context.Background(), b.ID, testTime.AddDate(0, 0, 20), testTime.AddDate(0, 0, 22))
	assert.NoError(t, err)
}

func TestActivateDue(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t)
	due := f.createBlocking(t, string(r.ID), blocking.TypeMaintenance, blocking.StatusPlanned,
		testTime, testTime.AddDate(0, 0, 3))
	f.createBlocking(t, string(r.ID), blocking.TypeRenovation, blocking.StatusPlanned,
		testTime.AddDate(0, 0, 30), testTime.AddDate(0, 0, 33))

	activated, err := f.resolver.ActivateDue(context.Background(), testTime.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, activated)

	current, err := f.resolver.Get(context.Background(), due.ID)
	require.NoError(t, err)
	assert.Equal(t, blocking.StatusActive, current.Status)
	assert.Equal(t, room.StateOutOfService, f.roomState(t, r.ID).State)
}

func TestCompleteDue(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t)
	b := f.createBlocking(t, string(r.ID), blocking.TypeMaintenance, blocking.StatusActive,
		testTime, testTime.AddDate(0, 0, 3))

	// end date is inclusive, the interval survives its last day
	completed, err := f.resolver.CompleteDue(context.Background(), testTime.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Zero(t, completed)

	completed, err = f.resolver.CompleteDue(context.Background(), testTime.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, completed)

	current, err := f.resolver.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, blocking.StatusCompleted, current.Status)
	assert.Equal(t, room.StateInspected, f.roomState(t, r.ID).State)
}

func TestHasActiveBlocking(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t)

	has, err := f.resolver.HasActiveBlocking(context.Background(), string(r.ID))
	require.NoError(t, err)
	assert.False(t, has)

	f.createBlocking(t, string(r.ID), blocking.TypeMaintenance, blocking.StatusActive,
		testTime, testTime.AddDate(0, 0, 3))

	has, err = f.resolver.HasActiveBlocking(context.Background(), string(r.ID))
	require.NoError(t, err)
	assert.True(t, has)
}

func TestOutboxReceivesBlockingEvents(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t)
	f.outbox.Reset()

	b := f.createBlocking(t, string(r.ID), blocking.TypeMaintenance, blocking.StatusPlanned,
		testTime, testTime.AddDate(0, 0, 3))
	_, err := f.resolver.Activate(context.Background(), b.ID)
	require.NoError(t, err)

	names := make([]string, 0)
	for _, rec := range f.outbox.Records() {
		names = append(names, rec.Name)
	}
	assert.Contains(t, names, "blocking.created")
	assert.Contains(t, names, "blocking.activated")
	assert.Contains(t, names, "blocking.inventory_impact_changed")
}
