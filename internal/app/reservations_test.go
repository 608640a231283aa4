package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
	"hotel_booking/internal/storage/memory"
)

type fixture struct {
	svc      *app.ReservationService
	repo     *memory.ReservationRepo
	notifier *recordingNotifier
	clock    *shared.FixedClock
}

func newFixture(t *testing.T, idem domain.IdempotencyStore) fixture {
	t.Helper()
	f := fixture{
		repo:     memory.NewReservationRepo(),
		notifier: &recordingNotifier{},
		clock:    shared.NewFixedClock(time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)),
	}
	refs := 0
	f.svc = app.NewReservationService(app.ReservationDeps{
		Hotels:       memory.NewHotelRepo(sampleHotel()),
		Reservations: f.repo,
		Notifier:     f.notifier,
		Idempotency:  idem,
		Seasons:      app.MonthlySeasons{ByMonth: map[time.Month]string{time.July: "high"}},
		Clock:        f.clock,
		Reference: func() string {
			refs++
			return "REF-" + string(rune('A'+refs-1))
		},
		Logger: zerolog.Nop(),
	})
	return f
}

func bookingRequest() domain.CreateReservationRequest {
	return domain.CreateReservationRequest{
		UserID:   7,
		HotelID:  1,
		Rooms:    []domain.RoomLine{{RoomTypeID: 1, Quantity: 2}},
		CheckIn:  day("2025-06-01"),
		CheckOut: day("2025-06-04"),
	}
}

func TestCreate_PricesPersistsAndNotifies(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, bookingRequest())
	require.NoError(t, err)

	r := res.Reservation
	assert.Equal(t, domain.StatusPendingAdminValidation, r.Status)
	assert.Equal(t, 600.0, r.TotalAmount)
	assert.Equal(t, "REF-A", r.ReferenceNumber)
	assert.NotZero(t, r.ID)
	assert.Equal(t, 3, r.Nights())
	assert.Equal(t, "web", r.BookingSource)
	assert.Contains(t, res.Message, "REF-A")

	stored, err := f.repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(r, stored); diff != "" {
		t.Fatalf("stored reservation mismatch (-returned +stored):\n%s", diff)
	}

	drafts := f.notifier.all()
	require.Len(t, drafts, 1)
	assert.Equal(t, int64(7), drafts[0].UserID)
	assert.Equal(t, domain.CategoryReservationPending, drafts[0].Category)
	require.NotNil(t, drafts[0].Link)
	assert.Equal(t, "/reservations/1", *drafts[0].Link)
}

func TestCreate_UsesSeasonActiveAtBookingTime(t *testing.T) {
	f := newFixture(t, nil)
	f.clock.Set(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))

	req := bookingRequest()
	req.CheckIn, req.CheckOut = day("2025-09-01"), day("2025-09-03")
	req.Rooms = []domain.RoomLine{{RoomTypeID: 1, Quantity: 1}, {RoomTypeID: 2, Quantity: 1}}

	res, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	// high: 150 for Double, Suite falls back to 250; two nights
	assert.Equal(t, 800.0, res.Reservation.TotalAmount)
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.CreateReservationRequest)
		is     error
	}{
		{"validation", func(r *domain.CreateReservationRequest) { r.CheckIn = day("2025-01-01") }, domain.ErrInvalidRequest},
		{"anonymous", func(r *domain.CreateReservationRequest) { r.UserID = 0 }, domain.ErrInvalidRequest},
		{"unknown hotel", func(r *domain.CreateReservationRequest) { r.HotelID = 99 }, domain.ErrNotFound},
		{"unknown room type", func(r *domain.CreateReservationRequest) { r.Rooms[0].RoomTypeID = 99 }, domain.ErrNotFound},
		{"unpriced room type", func(r *domain.CreateReservationRequest) { r.Rooms[0].RoomTypeID = 3 }, domain.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			req := bookingRequest()
			tt.mutate(&req)
			_, err := f.svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.is)
			assert.Empty(t, f.notifier.all(), "failed create must not notify")
			list, _ := f.repo.ListByUser(context.Background(), 7)
			assert.Empty(t, list)
		})
	}
}

func TestCreate_NotificationFailureDoesNotFailReservation(t *testing.T) {
	emitter := &failingEmitter{}
	repo := memory.NewReservationRepo()
	svc := app.NewReservationService(app.ReservationDeps{
		Hotels:       memory.NewHotelRepo(sampleHotel()),
		Reservations: repo,
		Notifier:     app.InlineNotifier{Emitter: emitter, Log: zerolog.Nop()},
		Clock:        shared.NewFixedClock(day("2025-05-20")),
		Logger:       zerolog.Nop(),
	})

	res, err := svc.Create(context.Background(), bookingRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, emitter.count())
	assert.Equal(t, 600.0, res.Reservation.TotalAmount)
	assert.Regexp(t, `^RES-[0-9A-F]{12}$`, res.Reservation.ReferenceNumber)

	stored, err := repo.GetByID(context.Background(), res.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingAdminValidation, stored.Status)
}

func TestCreate_IdempotencyKeyReplays(t *testing.T) {
	f := newFixture(t, memory.NewIdempotencyStore())
	ctx := context.Background()
	req := bookingRequest()
	req.IdempotencyKey = "abc"

	first, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Reservation.ID, second.Reservation.ID)
	list, _ := f.repo.ListByUser(ctx, 7)
	assert.Len(t, list, 1)
	assert.Len(t, f.notifier.all(), 1)

	// a failed attempt releases its key
	bad := req
	bad.IdempotencyKey = "xyz"
	bad.HotelID = 99
	_, err = f.svc.Create(ctx, bad)
	require.ErrorIs(t, err, domain.ErrNotFound)
	bad.HotelID = 1
	_, err = f.svc.Create(ctx, bad)
	require.NoError(t, err)
}

func TestCreate_IdempotencyKeyBoundToBooking(t *testing.T) {
	f := newFixture(t, memory.NewIdempotencyStore())
	ctx := context.Background()
	req := bookingRequest()
	req.IdempotencyKey = "form-1"
	first, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	changed := req
	changed.CheckIn = day("2025-08-10")
	changed.CheckOut = day("2025-08-20")
	changed.Rooms = []domain.RoomLine{{RoomTypeID: 2, Quantity: 1}}
	_, err = f.svc.Create(ctx, changed)
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyReused)

	list, _ := f.repo.ListByUser(ctx, 7)
	require.Len(t, list, 1)
	assert.Equal(t, first.Reservation.ID, list[0].ID)

	// the refusal does not release the original claim
	again, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Reservation.ID, again.Reservation.ID)
}

func TestFingerprint(t *testing.T) {
	a := bookingRequest()
	a.Rooms = []domain.RoomLine{{RoomTypeID: 1, Quantity: 2}, {RoomTypeID: 2, Quantity: 1}}
	b := a
	b.Rooms = []domain.RoomLine{{RoomTypeID: 2, Quantity: 1}, {RoomTypeID: 1, Quantity: 2}}
	b.CheckIn = a.CheckIn.Add(15 * time.Hour)
	b.SpecialRequests = ptr("quiet room")
	assert.Equal(t, app.Fingerprint(a), app.Fingerprint(b), "line order, time of day and notes do not matter")

	c := a
	c.CheckOut = day("2025-06-05")
	assert.NotEqual(t, app.Fingerprint(a), app.Fingerprint(c))
	d := a
	d.HotelID = 2
	assert.NotEqual(t, app.Fingerprint(a), app.Fingerprint(d))
}

func TestCreate_RedrawsTakenReference(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewReservationRepo()
	refs := []string{"RES-DEADBEEF", "RES-DEADBEEF", "RES-CAFEBABE"}
	next := func() string {
		r := refs[0]
		if len(refs) > 1 {
			refs = refs[1:]
		}
		return r
	}
	svc := app.NewReservationService(app.ReservationDeps{
		Hotels:       memory.NewHotelRepo(sampleHotel()),
		Reservations: repo,
		Notifier:     &recordingNotifier{},
		Clock:        shared.NewFixedClock(day("2025-05-20")),
		Reference:    next,
		Logger:       zerolog.Nop(),
	})

	a, err := svc.Create(ctx, bookingRequest())
	require.NoError(t, err)
	b, err := svc.Create(ctx, bookingRequest())
	require.NoError(t, err)
	assert.Equal(t, "RES-DEADBEEF", a.Reservation.ReferenceNumber)
	assert.Equal(t, "RES-CAFEBABE", b.Reservation.ReferenceNumber)

	// only CAFEBABE is left to draw, and it is taken
	_, err = svc.Create(ctx, bookingRequest())
	require.ErrorIs(t, err, domain.ErrDuplicateReference)
	list, _ := repo.ListByUser(ctx, 7)
	assert.Len(t, list, 2)
}

func TestCancel(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, bookingRequest())
	require.NoError(t, err)
	id := created.Reservation.ID

	_, err = f.svc.Cancel(ctx, 999, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Cancel(ctx, id, 8)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	f.clock.Advance(time.Hour)
	res, err := f.svc.Cancel(ctx, id, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelledByClient, res.Reservation.Status)
	assert.True(t, res.Reservation.UpdatedAt.After(res.Reservation.CreatedAt))
	assert.NotEmpty(t, res.Message)

	// not idempotent
	_, err = f.svc.Cancel(ctx, id, 7)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Contains(t, err.Error(), string(domain.StatusCancelledByClient))

	drafts := f.notifier.all()
	require.Len(t, drafts, 2)
	assert.Equal(t, domain.CategoryReservationCancelled, drafts[1].Category)
}

func TestCancel_CompletedIsRejectedAndUnchanged(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	staff := domain.Principal{UserID: 100, Role: domain.RoleReception}
	created, err := f.svc.Create(ctx, bookingRequest())
	require.NoError(t, err)
	id := created.Reservation.ID

	_, err = f.svc.Confirm(ctx, id, staff)
	require.NoError(t, err)
	done, err := f.svc.Complete(ctx, id, staff)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, id, 7)
	var se *domain.StateError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, domain.StatusCompleted, se.Current)
	assert.Equal(t, "reservation cannot be cancelled in status completed", err.Error())

	after, _ := f.repo.GetByID(ctx, id)
	if diff := cmp.Diff(done.Reservation, after); diff != "" {
		t.Fatalf("record changed after rejected cancel:\n%s", diff)
	}
}

func TestConfirmAndComplete_Roles(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, bookingRequest())
	id := created.Reservation.ID

	client := domain.Principal{UserID: 7, Role: domain.RoleClient}
	_, err := f.svc.Confirm(ctx, id, client)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// complete before confirm is illegal
	admin := domain.Principal{UserID: 1, Role: domain.RoleAdmin}
	_, err = f.svc.Complete(ctx, id, admin)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	res, err := f.svc.Confirm(ctx, id, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, res.Reservation.Status)

	_, err = f.svc.Confirm(ctx, id, admin)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	cats := []domain.NotificationCategory{}
	for _, d := range f.notifier.all() {
		cats = append(cats, d.Category)
	}
	assert.Equal(t, []domain.NotificationCategory{
		domain.CategoryReservationPending,
		domain.CategoryReservationConfirmed,
	}, cats)
}

func TestGetAndList(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a, _ := f.svc.Create(ctx, bookingRequest())
	f.clock.Advance(time.Minute)
	b, _ := f.svc.Create(ctx, bookingRequest())
	other := bookingRequest()
	other.UserID = 8
	_, _ = f.svc.Create(ctx, other)

	list, err := f.svc.ListForUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.Reservation.ID, list[0].ID)
	assert.Equal(t, a.Reservation.ID, list[1].ID)

	_, err = f.svc.ListForUser(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.svc.Get(ctx, a.Reservation.ID, domain.Principal{UserID: 8, Role: domain.RoleClient})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	got, err := f.svc.Get(ctx, a.Reservation.ID, domain.Principal{UserID: 2, Role: domain.RoleReception})
	require.NoError(t, err)
	assert.Equal(t, a.Reservation.ReferenceNumber, got.ReferenceNumber)
}
