// Package apiclient talks to the booking REST API on behalf of one user.
package apiclient

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/adapters/wire"
	"hotel_booking/internal/domain"
)

const maxAttempts = 4

type Client struct {
	base  string
	hc    *http.Client
	token string
	rl    *rate.Limiter
}

// New builds a client. token is the bearer credential; hotel reads work without it.
func New(base, token string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		hc:    &http.Client{Timeout: 20 * time.Second},
		token: token,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- hotels ----

func (c *Client) ListHotels(ctx context.Context, city string) ([]domain.HotelSummary, error) {
	path := "/v1/hotels"
	if city != "" {
		path += "?city=" + url.QueryEscape(city)
	}
	var out []domain.HotelSummary
	if err := c.get(ctx, path, "hotels", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetHotel(ctx context.Context, id int64) (domain.HotelDetail, error) {
	var out domain.HotelDetail
	if err := c.get(ctx, fmt.Sprintf("/v1/hotels/%d", id), "hotel", &out); err != nil {
		return domain.HotelDetail{}, err
	}
	return out, nil
}

// ---- reservations ----

// CreateReservation is sent once; a failed create is never retried.
func (c *Client) CreateReservation(ctx context.Context, req domain.CreateReservationRequest) (domain.CreateResult, error) {
	hdr := http.Header{}
	if req.IdempotencyKey != "" {
		hdr.Set("Idempotency-Key", req.IdempotencyKey)
	}
	body, status, err := c.send(ctx, http.MethodPost, "/v1/reservations", "create_reservation", wire.NewCreateReservationRequest(req), hdr)
	if err != nil {
		return domain.CreateResult{}, err
	}
	msg, r, err := wire.DecodeReservationResponse(body)
	if err != nil {
		return domain.CreateResult{}, err
	}
	res, err := r.ToDomain()
	if err != nil {
		return domain.CreateResult{}, err
	}
	return domain.CreateResult{Reservation: res, Message: msg, Replayed: status == http.StatusOK}, nil
}

func (c *Client) ListReservations(ctx context.Context) ([]domain.Reservation, error) {
	var raw []wire.Reservation
	if err := c.get(ctx, "/v1/reservations", "reservations", &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Reservation, 0, len(raw))
	for _, r := range raw {
		d, err := r.ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (c *Client) CancelReservation(ctx context.Context, id int64) (domain.TransitionResult, error) {
	return c.transition(ctx, id, "cancel")
}

func (c *Client) ConfirmReservation(ctx context.Context, id int64) (domain.TransitionResult, error) {
	return c.transition(ctx, id, "confirm")
}

func (c *Client) CompleteReservation(ctx context.Context, id int64) (domain.TransitionResult, error) {
	return c.transition(ctx, id, "complete")
}

func (c *Client) transition(ctx context.Context, id int64, action string) (domain.TransitionResult, error) {
	body, _, err := c.send(ctx, http.MethodPatch, fmt.Sprintf("/v1/reservations/%d/%s", id, action), action+"_reservation", nil, nil)
	if err != nil {
		return domain.TransitionResult{}, err
	}
	msg, r, err := wire.DecodeReservationResponse(body)
	if err != nil {
		return domain.TransitionResult{}, err
	}
	res, err := r.ToDomain()
	if err != nil {
		return domain.TransitionResult{}, err
	}
	return domain.TransitionResult{Reservation: res, Message: msg}, nil
}

// ---- notifications ----

func (c *Client) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	var raw []wire.Notification
	if err := c.get(ctx, "/v1/notifications", "notifications", &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(raw))
	for _, n := range raw {
		out = append(out, domain.Notification{
			ID:        int64(n.ID),
			UserID:    int64(n.UserID),
			Message:   n.Message,
			Category:  domain.NotificationCategory(n.Category),
			Link:      n.Link,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return out, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out wire.UnreadCount
	if err := c.get(ctx, "/v1/notifications/unread-count", "unread_count", &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// ---- Internals ----

// APIError is a non-2xx answer. Error returns the server's detail verbatim.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("remote %d", e.Status)
}

var ErrUnauthorized = errors.New("unauthorized")

func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusBadRequest:
		return target == domain.ErrInvalidRequest
	case http.StatusUnauthorized:
		return target == ErrUnauthorized
	case http.StatusForbidden:
		return target == domain.ErrForbidden
	case http.StatusNotFound:
		return target == domain.ErrNotFound
	case http.StatusConflict:
		return target == domain.ErrInvalidState
	default:
		return false
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "hotel-booking-cli/1.0")
	return req, nil
}

// send performs a single non-idempotent request and returns the raw body.
func (c *Client) send(ctx context.Context, method, path, endpoint string, in any, hdr http.Header) ([]byte, int, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, 0, err
	}
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, 0, err
		}
		payload = b
	}
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return nil, 0, err
	}
	for k, v := range hdr {
		req.Header[k] = v
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("booking_api", endpoint, 0, time.Since(start))
		return nil, 0, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("booking_api", endpoint, resp.StatusCode, time.Since(start))

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode >= 300 {
		return nil, resp.StatusCode, problemError(resp.StatusCode, b)
	}
	return b, resp.StatusCode, nil
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, path, endpoint string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := c.newRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("booking_api", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("booking_api", endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			wait := retryAfter(resp)
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = problemError(resp.StatusCode, b)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return problemError(resp.StatusCode, b)
		}
	}
	return lastErr
}

func problemError(status int, body []byte) error {
	var p wire.Problem
	if err := json.Unmarshal(body, &p); err == nil && p.Detail != "" {
		return &APIError{Status: status, Detail: p.Detail}
	}
	return &APIError{Status: status, Detail: strings.TrimSpace(string(body))}
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 100ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 100 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
