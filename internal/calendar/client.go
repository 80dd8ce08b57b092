package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"divebook/pkg/client"
	"divebook/pkg/config"
	"divebook/pkg/logger"
	"divebook/pkg/model"
)

// ReserveRequest is the outbound reservation sent to the calendar
// provider. The request token doubles as the provider-side idempotency
// key, so a retried commit never double-books upstream.
type ReserveRequest struct {
	RequestToken string `json:"request_token"`
	SlotID       string `json:"slot_id"`
	BookingType  string `json:"booking_type"`
	Participants int    `json:"participants"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
}

type ReserveResult struct {
	ExternalRef string `json:"external_ref"`
	SlotID      string `json:"slot_id"`
	Status      string `json:"status"`
}

// Outcome classifies a provider failure. Transient failures may be
// retried with the same token; permanent failures never will succeed.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeTransient
	OutcomePermanent
)

// ProviderError carries the classification alongside the underlying
// failure so the coordinator can decide between release and reject.
type ProviderError struct {
	Outcome Outcome
	Status  int
	Reason  string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calendar provider: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("calendar provider: %s", e.Reason)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Transient() bool {
	return e.Outcome == OutcomeTransient
}

// Provider is the calendar adapter the coordinator talks to.
type Provider interface {
	Reserve(ctx context.Context, req ReserveRequest) (*ReserveResult, error)
	CancelReservation(ctx context.Context, externalRef string) error
	FetchSlots(ctx context.Context, bookingType string, from, to time.Time) ([]*model.Slot, error)
	GetSlot(ctx context.Context, slotID string) (*model.Slot, error)
}

type httpProvider struct {
	http    *client.HttpClient
	apiKey  string
	backoff BackoffPolicy
	log     *logger.Logger
}

func NewHTTPProvider(cfg *config.Config) Provider {
	return &httpProvider{
		http:   client.NewHttpClient(cfg.CalendarBaseURL, cfg.CalendarTimeout),
		apiKey: cfg.CalendarAPIKey,
		backoff: BackoffPolicy{
			Base:        cfg.CalendarBackoffBase,
			Cap:         cfg.CalendarBackoffCap,
			MaxAttempts: cfg.CalendarMaxAttempts,
		},
		log: cfg.Log.Component("calendar"),
	}
}

func (p *httpProvider) headers(idempotencyKey string) map[string]string {
	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	return headers
}

// Reserve books the slot with the provider, retrying transient failures
// within the backoff budget. The returned error is always a
// *ProviderError when the provider was reached and refused.
func (p *httpProvider) Reserve(ctx context.Context, req ReserveRequest) (*ReserveResult, error) {
	var lastErr *ProviderError

	for attempt := 1; ; attempt++ {
		resp, err := p.http.POST(ctx, "/v1/reservations", req, p.headers(req.RequestToken))
		if err != nil {
			lastErr = &ProviderError{Outcome: OutcomeTransient, Reason: "request failed", Err: err}
		} else {
			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				var result ReserveResult
				if decodeErr := resp.DecodeJSON(&result); decodeErr != nil {
					return nil, &ProviderError{Outcome: OutcomeTransient, Status: resp.StatusCode, Reason: "malformed reserve response", Err: decodeErr}
				}
				return &result, nil
			default:
				lastErr = classifyStatus(resp)
				if lastErr.Outcome == OutcomePermanent {
					return nil, lastErr
				}
			}
		}

		delay, ok := p.backoff.Delay(attempt)
		if !ok {
			return nil, lastErr
		}

		p.log.Warn("retrying provider reserve",
			"slot_id", req.SlotID,
			"attempt", attempt,
			"delay", delay.String(),
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, &ProviderError{Outcome: OutcomeTransient, Reason: "context cancelled", Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
}

// CancelReservation releases a provider-side booking. A 404 or 410 means
// the booking is already gone, which cancellation treats as success.
func (p *httpProvider) CancelReservation(ctx context.Context, externalRef string) error {
	var lastErr *ProviderError

	for attempt := 1; ; attempt++ {
		resp, err := p.http.DELETE(ctx, "/v1/reservations/"+url.PathEscape(externalRef), p.headers(""))
		if err != nil {
			lastErr = &ProviderError{Outcome: OutcomeTransient, Reason: "request failed", Err: err}
		} else {
			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return nil
			case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
				return nil
			default:
				lastErr = classifyStatus(resp)
				if lastErr.Outcome == OutcomePermanent {
					return lastErr
				}
			}
		}

		delay, ok := p.backoff.Delay(attempt)
		if !ok {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return &ProviderError{Outcome: OutcomeTransient, Reason: "context cancelled", Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
}

type slotsResponse struct {
	Slots []*model.Slot `json:"slots"`
}

// FetchSlots pulls the provider's slot windows for the range. Transient
// failures are retried within the backoff budget; the snapshot layer
// decides what to serve when all attempts fail.
func (p *httpProvider) FetchSlots(ctx context.Context, bookingType string, from, to time.Time) ([]*model.Slot, error) {
	query := url.Values{}
	if bookingType != "" {
		query.Set("booking_type", bookingType)
	}
	query.Set("from", from.UTC().Format(time.RFC3339))
	query.Set("to", to.UTC().Format(time.RFC3339))
	path := "/v1/slots?" + query.Encode()

	var lastErr *ProviderError

	for attempt := 1; ; attempt++ {
		resp, err := p.http.GET(ctx, path, p.headers(""))
		if err != nil {
			lastErr = &ProviderError{Outcome: OutcomeTransient, Reason: "request failed", Err: err}
		} else {
			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				var payload slotsResponse
				if decodeErr := resp.DecodeJSON(&payload); decodeErr != nil {
					return nil, &ProviderError{Outcome: OutcomeTransient, Status: resp.StatusCode, Reason: "malformed slots response", Err: decodeErr}
				}
				return payload.Slots, nil
			default:
				lastErr = classifyStatus(resp)
				if lastErr.Outcome == OutcomePermanent {
					return nil, lastErr
				}
			}
		}

		delay, ok := p.backoff.Delay(attempt)
		if !ok {
			return nil, lastErr
		}

		p.log.Warn("retrying provider slot fetch",
			"attempt", attempt,
			"delay", delay.String(),
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, &ProviderError{Outcome: OutcomeTransient, Reason: "context cancelled", Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
}

// GetSlot fetches one slot definition by ID. A 404 is permanent.
func (p *httpProvider) GetSlot(ctx context.Context, slotID string) (*model.Slot, error) {
	var lastErr *ProviderError

	for attempt := 1; ; attempt++ {
		resp, err := p.http.GET(ctx, "/v1/slots/"+url.PathEscape(slotID), p.headers(""))
		if err != nil {
			lastErr = &ProviderError{Outcome: OutcomeTransient, Reason: "request failed", Err: err}
		} else {
			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				var slot model.Slot
				if decodeErr := resp.DecodeJSON(&slot); decodeErr != nil {
					return nil, &ProviderError{Outcome: OutcomeTransient, Status: resp.StatusCode, Reason: "malformed slot response", Err: decodeErr}
				}
				return &slot, nil
			default:
				lastErr = classifyStatus(resp)
				if lastErr.Outcome == OutcomePermanent {
					return nil, lastErr
				}
			}
		}

		delay, ok := p.backoff.Delay(attempt)
		if !ok {
			return nil, lastErr
		}

		select {
		case <-ctx.Done():
			return nil, &ProviderError{Outcome: OutcomeTransient, Reason: "context cancelled", Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
}

// classifyStatus maps a non-2xx provider response to transient or
// permanent. 429 and 5xx are transient; every other 4xx is a definitive
// refusal.
func classifyStatus(resp *client.Response) *ProviderError {
	reason := client.GetErrorMessage(resp)

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &ProviderError{
			Outcome: OutcomeTransient,
			Status:  resp.StatusCode,
			Reason:  reason,
		}
	}

	return &ProviderError{
		Outcome: OutcomePermanent,
		Status:  resp.StatusCode,
		Reason:  reason,
	}
}
