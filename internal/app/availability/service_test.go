package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blockingsapp "hotelcore/internal/app/blockings"
	"hotelcore/internal/app/locks"
	roomsapp "hotelcore/internal/app/rooms"
	"hotelcore/internal/domain/blocking"
	"hotelcore/internal/domain/history"
	"hotelcore/internal/domain/policy"
	"hotelcore/internal/domain/room"
	"hotelcore/internal/infra/storage/memory"
)

var testTime = time.Date(2026, 4, 1, 14, 0, 0, 0, time.UTC)

type fixture struct {
	facade   *Service
	rooms    *roomsapp.Service
	resolver *blockingsapp.Service
	roomRepo *memory.RoomRepository
	history  *memory.HistoryRepository
	settings *memory.SettingsStore
}

func newFixture(t *testing.T, p policy.Policy) *fixture {
	t.Helper()
	f := &fixture{
		roomRepo: memory.NewRoomRepository(),
		history:  memory.NewHistoryRepository(),
		settings: memory.NewSettingsStore(p),
	}
	keyed := locks.NewKeyed()
	outbox := memory.NewOutbox()
	f.rooms = &roomsapp.Service{
		Rooms:   f.roomRepo,
		History: f.history,
		Outbox:  outbox,
		Locks:   keyed,
		Clock:   func() time.Time { return testTime },
	}
	f.resolver = &blockingsapp.Service{
		Blockings: memory.NewBlockingRepository(),
		Rooms:     f.roomRepo,
		Policies:  f.settings,
		Impacts:   f.rooms,
		Outbox:    outbox,
		Locks:     keyed,
		Clock:     func() time.Time { return testTime },
	}
	f.facade = &Service{
		Rooms:        f.roomRepo,
		StateMachine: f.rooms,
		Resolver:     f.resolver,
		Policies:     f.settings,
		Locks:        keyed,
	}
	return f
}

func (f *fixture) createRoom(t *testing.T, number string) *room.Room {
	t.Helper()
	r, err := f.rooms.CreateRoom(context.Background(), roomsapp.CreateRoomParams{
		RoomNumber: number, Floor: 3, RoomType: "standard", MaxOccupancy: 2,
	})
	require.NoError(t, err)
	return r
}

func TestCheckAvailabilityCleanRoom(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t, "301")

	res, err := f.facade.CheckAvailability(context.Background(), r.ID, testTime, testTime.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.True(t, res.Sellable)
	assert.Empty(t, res.Reasons)
	assert.Equal(t, room.StateInspected, res.State)
}

func TestCheckAvailabilityDirtyRoom(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t, "301")
	ctx := context.Background()
	_, err := f.rooms.CheckIn(ctx, r.ID, "G-1", "", "reception")
	require.NoError(t, err)
	_, err = f.rooms.CheckOut(ctx, r.ID, "G-1", "", "reception")
	require.NoError(t, err)
	_, err = f.rooms.ReadyForCleaning(ctx, r.ID, "hk")
	require.NoError(t, err)

	res, err := f.facade.CheckAvailability(ctx, r.ID, testTime, testTime.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.False(t, res.Sellable)
	assert.Contains(t, res.Reasons, `room state "dirty" not sellable`)
}

func TestRequireInspectedToSell(t *testing.T) {
	f := newFixture(t, policy.Policy{RequireInspectedToSell: true})
	r := f.createRoom(t, "301")
	ctx := context.Background()

	// inspected passes the strict gate
	res, err := f.facade.CheckAvailability(ctx, r.ID, testTime, testTime.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, res.Available)

	// clean does not
	_, err = f.rooms.FinalInspection(ctx, r.ID, "supervisor")
	require.NoError(t, err)

	res, err = f.facade.CheckAvailability(ctx, r.ID, testTime, testTime.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Contains(t, res.Reasons, "not inspected")

	// flipping the flag back opens the same room with no state change
	require.NoError(t, f.settings.Save(ctx, policy.Policy{}))
	res, err = f.facade.CheckAvailability(ctx, r.ID, testTime, testTime.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, res.Available)
}

func TestCheckAvailabilityPlannedBlockingGates(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t, "301")
	ctx := context.Background()
	_, err := f.resolver.Create(ctx, blockingsapp.CreateParams{
		RoomID: string(r.ID), Name: "repaint", Type: blocking.TypeRenovation,
		Start: testTime.AddDate(0, 0, 1), End: testTime.AddDate(0, 0, 4),
	})
	require.NoError(t, err)

	res, err := f.facade.CheckAvailability(ctx, r.ID, testTime, testTime.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.True(t, res.Sellable, "a planned blocking gates the range, not the room state")
	require.Len(t, res.Blockings, 1)
	require.Len(t, res.Reasons, 1)
	assert.Contains(t, res.Reasons[0], "blocked:")

	// a range before the blocking is unaffected
	res, err = f.facade.CheckAvailability(ctx, r.ID, testTime.AddDate(0, 0, -5), testTime.AddDate(0, 0, -3))
	require.NoError(t, err)
	assert.True(t, res.Available)
}

func TestCheckAvailabilityActiveBlocking(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t, "301")
	ctx := context.Background()
	_, err := f.resolver.Create(ctx, blockingsapp.CreateParams{
		RoomID: string(r.ID), Name: "boiler", Type: blocking.TypeMaintenance, Status: blocking.StatusActive,
		Start: testTime, End: testTime.AddDate(0, 0, 2),
	})
	require.NoError(t, err)

	res, err := f.facade.CheckAvailability(ctx, r.ID, testTime, testTime.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Contains(t, res.Reasons, `room state "out_of_service" not sellable`)
	assert.Contains(t, res.Reasons, "active blocking on room")
}

func TestCheckAvailabilityInventoryNeutralEvent(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t, "301")
	ctx := context.Background()
	b, err := f.resolver.Create(ctx, blockingsapp.CreateParams{
		RoomID: string(r.ID), Name: "wedding", Type: blocking.TypeEvent,
		Start: testTime, End: testTime.AddDate(0, 0, 2),
	})
	require.NoError(t, err)
	_, err = f.resolver.Activate(ctx, b.ID)
	require.NoError(t, err)

	current, err := f.roomRepo.ByID(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, room.StateInspected, current.State)

	res, err := f.facade.CheckAvailability(ctx, r.ID, testTime, testTime.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, res.Available, "a neutral event must not gate the range")
	assert.NotContains(t, res.Reasons, "active blocking on room")
	require.Len(t, res.Blockings, 1)

	reserved, err := f.facade.Reserve(ctx, r.ID, testTime, testTime.AddDate(0, 0, 1), "G-42", "")
	require.NoError(t, err)
	assert.Equal(t, room.StateCheckIn, reserved.State)
}

func TestCheckAvailabilityEventClosingInventory(t *testing.T) {
	f := newFixture(t, policy.Policy{EventClosesInventory: true})
	r := f.createRoom(t, "301")
	ctx := context.Background()
	b, err := f.resolver.Create(ctx, blockingsapp.CreateParams{
		RoomID: string(r.ID), Name: "wedding", Type: blocking.TypeEvent,
		Start: testTime, End: testTime.AddDate(0, 0, 2),
	})
	require.NoError(t, err)
	_, err = f.resolver.Activate(ctx, b.ID)
	require.NoError(t, err)

	res, err := f.facade.CheckAvailability(ctx, r.ID, testTime, testTime.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Contains(t, res.Reasons, "active blocking on room")
}

func TestCheckAvailabilityUnknownRoom(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	_, err := f.facade.CheckAvailability(context.Background(), "missing", testTime, testTime)
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestReserve(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t, "301")

	reserved, err := f.facade.Reserve(context.Background(), r.ID, testTime, testTime.AddDate(0, 0, 2), "G-42", "late arrival")
	require.NoError(t, err)
	assert.Equal(t, room.StateCheckIn, reserved.State)

	entries, err := f.history.ByRoom(context.Background(), r.ID, history.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.ChangeFrontOffice, entries[0].ChangeType)
	assert.Equal(t, "Reserved: G-42", entries[0].ChangeReason)
	assert.Equal(t, "late arrival", entries[0].ChangeNotes)
}

func TestReserveUnavailableRoom(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t, "301")
	_, err := f.facade.Reserve(context.Background(), r.ID, testTime, testTime.AddDate(0, 0, 2), "G-1", "")
	require.NoError(t, err)

	var unavailable *NotAvailableError
	_, err = f.facade.Reserve(context.Background(), r.ID, testTime, testTime.AddDate(0, 0, 2), "G-2", "")
	require.ErrorAs(t, err, &unavailable)
	assert.NotEmpty(t, unavailable.Reasons)

	entries, err := f.history.ByRoom(context.Background(), r.ID, history.Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1, "rejected reservation must not touch the ledger")
}

func TestReserveBlockedRange(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t, "301")
	ctx := context.Background()
	_, err := f.resolver.Create(ctx, blockingsapp.CreateParams{
		RoomID: string(r.ID), Name: "repaint", Type: blocking.TypeRenovation,
		Start: testTime, End: testTime.AddDate(0, 0, 4),
	})
	require.NoError(t, err)

	var unavailable *NotAvailableError
	_, err = f.facade.Reserve(ctx, r.ID, testTime.AddDate(0, 0, 2), testTime.AddDate(0, 0, 3), "G-42", "")
	assert.ErrorAs(t, err, &unavailable)
}

func TestCancelReservation(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t, "301")
	ctx := context.Background()
	_, err := f.facade.Reserve(ctx, r.ID, testTime, testTime.AddDate(0, 0, 2), "G-42", "")
	require.NoError(t, err)

	released, err := f.facade.CancelReservation(ctx, r.ID, "guest no-show")
	require.NoError(t, err)
	assert.Equal(t, room.StateDirty, released.State)

	entries, err := f.history.ByRoom(ctx, r.ID, history.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, room.StateCheckOut, entries[1].NewState)
	assert.Equal(t, room.StateDirty, entries[2].NewState)
}

func TestCancelReservationOnVacantRoom(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	r := f.createRoom(t, "301")

	var transition *room.InvalidTransitionError
	_, err := f.facade.CancelReservation(context.Background(), r.ID, "nothing to cancel")
	assert.ErrorAs(t, err, &transition)
}

func TestFleetAvailability(t *testing.T) {
	f := newFixture(t, policy.Policy{})
	open := f.createRoom(t, "301")
	taken := f.createRoom(t, "302")
	ctx := context.Background()
	_, err := f.facade.Reserve(ctx, taken.ID, testTime, testTime.AddDate(0, 0, 2), "G-42", "")
	require.NoError(t, err)

	results, err := f.facade.FleetAvailability(ctx, testTime, testTime.AddDate(0, 0, 1), room.ListFilter{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byNumber := map[string]FleetResult{}
	for _, res := range results {
		byNumber[res.RoomNumber] = res
	}
	assert.True(t, byNumber["301"].Available)
	assert.False(t, byNumber["302"].Available)
	assert.Equal(t, open.ID, byNumber["301"].RoomID)
}
