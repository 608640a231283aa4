package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

// ReferenceFunc produces the public reference number of a new reservation.
type ReferenceFunc func() string

// maxReferenceAttempts bounds how often a taken reference number is redrawn.
const maxReferenceAttempts = 5

// NewReference returns references like "RES-1A2B3C4D5E6F".
func NewReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "RES-" + strings.ToUpper(id[:12])
}

// ReservationService owns reservation records: creation, status transitions
// and owner-scoped retrieval.
type ReservationService struct {
	hotels       domain.HotelRepository
	reservations domain.ReservationRepository
	notifier     domain.Notifier
	idem         domain.IdempotencyStore
	seasons      SeasonPolicy
	clock        domain.Clock
	newRef       ReferenceFunc
	log          zerolog.Logger
}

type ReservationDeps struct {
	Hotels       domain.HotelRepository
	Reservations domain.ReservationRepository
	Notifier     domain.Notifier
	Idempotency  domain.IdempotencyStore // optional
	Seasons      SeasonPolicy
	Clock        domain.Clock
	Reference    ReferenceFunc // optional, defaults to NewReference
	Logger       zerolog.Logger
}

func NewReservationService(d ReservationDeps) *ReservationService {
	if d.Reference == nil {
		d.Reference = NewReference
	}
	if d.Seasons == nil {
		d.Seasons = FixedSeason(domain.StandardSeason)
	}
	return &ReservationService{
		hotels:       d.Hotels,
		reservations: d.Reservations,
		notifier:     d.Notifier,
		idem:         d.Idempotency,
		seasons:      d.Seasons,
		clock:        d.Clock,
		newRef:       d.Reference,
		log:          d.Logger.With().Str("component", "reservations").Logger(),
	}
}

func (s *ReservationService) Create(ctx context.Context, req domain.CreateReservationRequest) (res domain.CreateResult, err error) {
	defer func() { observability.ObserveReservation("create", err) }()

	now := s.clock.Now()
	if req.UserID <= 0 {
		return domain.CreateResult{}, domain.ErrMissingFields
	}
	if err = ValidateReservation(req, now); err != nil {
		return domain.CreateResult{}, err
	}

	var fingerprint string
	if s.idem != nil && req.IdempotencyKey != "" {
		fingerprint = Fingerprint(req)
		existingID, claimed, berr := s.idem.Begin(ctx, req.UserID, req.IdempotencyKey, fingerprint)
		if berr != nil {
			return domain.CreateResult{}, berr
		}
		if !claimed {
			r, gerr := s.reservations.GetByID(ctx, existingID)
			if gerr != nil {
				return domain.CreateResult{}, fmt.Errorf("replay reservation %d: %w", existingID, gerr)
			}
			return domain.CreateResult{Reservation: r, Message: createdMessage(r), Replayed: true}, nil
		}
		defer func() {
			if err != nil {
				if rerr := s.idem.Release(context.WithoutCancel(ctx), req.UserID, req.IdempotencyKey); rerr != nil {
					s.log.Warn().Err(rerr).Msg("release idempotency key failed")
				}
			}
		}()
	}

	h, err := s.hotels.GetHotel(ctx, req.HotelID)
	if err != nil {
		return domain.CreateResult{}, err
	}
	season := s.seasons.SeasonAt(now)
	nights := domain.NightsBetween(req.CheckIn, req.CheckOut)
	total, err := quote(h, req.Rooms, season, nights)
	if err != nil {
		return domain.CreateResult{}, err
	}

	r := domain.Reservation{
		UserID:          req.UserID,
		HotelID:         req.HotelID,
		Rooms:           append([]domain.RoomLine(nil), req.Rooms...),
		CheckIn:         domain.DateOnly(req.CheckIn),
		CheckOut:        domain.DateOnly(req.CheckOut),
		SpecialRequests: req.SpecialRequests,
		BookingSource:   req.BookingSource,
		Status:          domain.StatusPendingAdminValidation,
		TotalAmount:     total,
		CreatedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}
	if r.BookingSource == "" {
		r.BookingSource = "web"
	}
	r, err = s.store(ctx, r)
	if err != nil {
		return domain.CreateResult{}, err
	}

	if s.idem != nil && req.IdempotencyKey != "" {
		if cerr := s.idem.Complete(ctx, req.UserID, req.IdempotencyKey, fingerprint, r.ID); cerr != nil {
			s.log.Warn().Err(cerr).Int64("reservation_id", r.ID).Msg("complete idempotency key failed")
		}
	}

	s.log.Info().
		Int64("reservation_id", r.ID).
		Str("reference", r.ReferenceNumber).
		Int64("user_id", r.UserID).
		Float64("total", r.TotalAmount).
		Str("season", season).
		Msg("reservation created")

	// persisted first, then notified
	s.notify(ctx, r, domain.CategoryReservationPending,
		fmt.Sprintf("Your reservation %s has been received and is awaiting validation.", r.ReferenceNumber))

	return domain.CreateResult{Reservation: r, Message: createdMessage(r)}, nil
}

// ListForUser returns the caller's reservations, newest first.
// store persists r under a fresh reference number, drawing again when the
// store reports the number as taken.
func (s *ReservationService) store(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	var err error
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		r.ReferenceNumber = s.newRef()
		var saved domain.Reservation
		saved, err = s.reservations.Create(ctx, r)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, domain.ErrDuplicateReference) {
			return domain.Reservation{}, fmt.Errorf("store reservation: %w", err)
		}
		s.log.Warn().Str("reference", r.ReferenceNumber).Int("attempt", attempt).Msg("reference number taken")
	}
	return domain.Reservation{}, fmt.Errorf("store reservation after %d attempts: %w", maxReferenceAttempts, err)
}

func (s *ReservationService) ListForUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}
	return s.reservations.ListByUser(ctx, userID)
}

func (s *ReservationService) Get(ctx context.Context, id int64, caller domain.Principal) (domain.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if r.UserID != caller.UserID && !caller.Role.Can(domain.ActionViewAny) {
		return domain.Reservation{}, domain.ErrForbidden
	}
	return r, nil
}

// Cancel moves an owned reservation to cancelled_by_client. Cancelling twice fails.
func (s *ReservationService) Cancel(ctx context.Context, id, callerID int64) (res domain.TransitionResult, err error) {
	defer func() { observability.ObserveReservation("cancel", err) }()

	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return domain.TransitionResult{}, err
	}
	if r.UserID != callerID {
		return domain.TransitionResult{}, domain.ErrForbidden
	}
	r, err = s.transition(ctx, r, domain.StatusCancelledByClient, "cancelled")
	if err != nil {
		return domain.TransitionResult{}, err
	}
	s.notify(ctx, r, domain.CategoryReservationCancelled,
		fmt.Sprintf("Your reservation %s has been cancelled.", r.ReferenceNumber))
	return domain.TransitionResult{Reservation: r, Message: "Reservation cancelled successfully"}, nil
}

func (s *ReservationService) Confirm(ctx context.Context, id int64, staff domain.Principal) (res domain.TransitionResult, err error) {
	defer func() { observability.ObserveReservation("confirm", err) }()

	if !staff.Role.Can(domain.ActionConfirm) {
		return domain.TransitionResult{}, domain.ErrForbidden
	}
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return domain.TransitionResult{}, err
	}
	r, err = s.transition(ctx, r, domain.StatusConfirmed, "confirmed")
	if err != nil {
		return domain.TransitionResult{}, err
	}
	s.notify(ctx, r, domain.CategoryReservationConfirmed,
		fmt.Sprintf("Your reservation %s has been confirmed.", r.ReferenceNumber))
	return domain.TransitionResult{Reservation: r, Message: "Reservation confirmed"}, nil
}

func (s *ReservationService) Complete(ctx context.Context, id int64, staff domain.Principal) (res domain.TransitionResult, err error) {
	defer func() { observability.ObserveReservation("complete", err) }()

	if !staff.Role.Can(domain.ActionComplete) {
		return domain.TransitionResult{}, domain.ErrForbidden
	}
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return domain.TransitionResult{}, err
	}
	r, err = s.transition(ctx, r, domain.StatusCompleted, "completed")
	if err != nil {
		return domain.TransitionResult{}, err
	}
	s.notify(ctx, r, domain.CategoryReservationCompleted,
		fmt.Sprintf("Your stay for reservation %s is complete. Thank you!", r.ReferenceNumber))
	return domain.TransitionResult{Reservation: r, Message: "Reservation completed"}, nil
}

func (s *ReservationService) transition(ctx context.Context, r domain.Reservation, to domain.ReservationStatus, action string) (domain.Reservation, error) {
	if !r.Status.CanTransitionTo(to) {
		return domain.Reservation{}, &domain.StateError{Action: action, Current: r.Status}
	}
	updated, err := s.reservations.UpdateStatus(ctx, r.ID, r.Status, to, s.clock.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			// lost a race; report what is stored now
			if cur, gerr := s.reservations.GetByID(ctx, r.ID); gerr == nil {
				return domain.Reservation{}, &domain.StateError{Action: action, Current: cur.Status}
			}
		}
		return domain.Reservation{}, err
	}
	s.log.Info().
		Int64("reservation_id", updated.ID).
		Str("from", r.Status.String()).
		Str("to", updated.Status.String()).
		Msg("reservation status changed")
	return updated, nil
}

func (s *ReservationService) notify(ctx context.Context, r domain.Reservation, cat domain.NotificationCategory, msg string) {
	if s.notifier == nil {
		return
	}
	link := fmt.Sprintf("/reservations/%d", r.ID)
	s.notifier.Notify(ctx, domain.NotificationDraft{
		UserID:   r.UserID,
		Message:  msg,
		Category: cat,
		Link:     &link,
	})
}

func createdMessage(r domain.Reservation) string {
	return fmt.Sprintf("Reservation %s created. Total amount: %.2f", r.ReferenceNumber, r.TotalAmount)
}
