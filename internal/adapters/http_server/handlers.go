package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/wire"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	Hotels        *app.QueryService
	Reservations  *app.ReservationService
	Notifications *app.NotificationService
	Auth          TokenVerifier
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/hotels", h.listHotels)
		r.Get("/hotels/{id}", h.getHotel)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(h.Auth))

			r.With(Allow(domain.ActionBook)).Post("/reservations", h.createReservation)
			r.Get("/reservations", h.listReservations)
			r.Get("/reservations/{id}", h.getReservation)
			r.With(Allow(domain.ActionCancelOwn)).Patch("/reservations/{id}/cancel", h.cancelReservation)
			r.With(Allow(domain.ActionConfirm)).Patch("/reservations/{id}/confirm", h.confirmReservation)
			r.With(Allow(domain.ActionComplete)).Patch("/reservations/{id}/complete", h.completeReservation)

			r.Get("/notifications", h.listNotifications)
			r.Get("/notifications/unread-count", h.unreadCount)
			r.Patch("/notifications/{id}/read", h.markRead)
		})
	})
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached answers 304 when If-None-Match matches the body's ETag.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "missing principal")
	}
	return p, ok
}

// ---- hotels ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	var f domain.HotelFilter
	if city := strings.TrimSpace(r.URL.Query().Get("city")); city != "" {
		f.City = &city
	}
	out, err := h.Hotels.ListHotels(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.Hotels.GetHotelDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
			return
		}
		writeError(w, r, err)
		return
	}
	writeCached(w, r, resp)
}

// ---- reservations ----

func (h *Handlers) createReservation(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var body wire.CreateReservationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	req, err := body.ToDomain(p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.IdempotencyKey = strings.TrimSpace(r.Header.Get("Idempotency-Key"))

	res, err := h.Reservations.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/v1/reservations/"+strconv.FormatInt(res.Reservation.ID, 10))
	writeJSON(w, status, wire.ReservationResponse{Message: res.Message, Reservation: wire.NewReservation(res.Reservation)})
}

func (h *Handlers) listReservations(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	out, err := h.Reservations.ListForUser(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.NewReservations(out))
}

func (h *Handlers) getReservation(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.Reservations.Get(r.Context(), id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.NewReservation(res))
}

func (h *Handlers) cancelReservation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(p domain.Principal, id int64) (domain.TransitionResult, error) {
		return h.Reservations.Cancel(r.Context(), id, p.UserID)
	})
}

func (h *Handlers) confirmReservation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(p domain.Principal, id int64) (domain.TransitionResult, error) {
		return h.Reservations.Confirm(r.Context(), id, p)
	})
}

func (h *Handlers) completeReservation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(p domain.Principal, id int64) (domain.TransitionResult, error) {
		return h.Reservations.Complete(r.Context(), id, p)
	})
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, do func(domain.Principal, int64) (domain.TransitionResult, error)) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := do(p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.ReservationResponse{Message: res.Message, Reservation: wire.NewReservation(res.Reservation)})
}

// ---- notifications ----

func (h *Handlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	out, err := h.Notifications.ListForUser(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.NewNotifications(out))
}

func (h *Handlers) unreadCount(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	n, err := h.Notifications.UnreadCount(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// never cached: the count changes with every event
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, wire.UnreadCount{Count: n})
}

func (h *Handlers) markRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.Notifications.MarkRead(r.Context(), id, p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.NewNotification(n))
}
