package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"divebook/pkg/client"
	"divebook/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
}

func testProvider(baseURL string, maxAttempts int) *httpProvider {
	return &httpProvider{
		http: client.NewHttpClient(baseURL, 2*time.Second),
		backoff: BackoffPolicy{
			Base:        time.Millisecond,
			Cap:         5 * time.Millisecond,
			MaxAttempts: maxAttempts,
		},
		log: testLogger(),
	}
}

func TestReserveSuccess(t *testing.T) {
	var gotIdempotencyKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/reservations" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotIdempotencyKey = r.Header.Get("Idempotency-Key")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"external_ref":"prov-123","slot_id":"slot-1","status":"confirmed"}`))
	}))
	defer server.Close()

	provider := testProvider(server.URL, 3)
	result, err := provider.Reserve(context.Background(), ReserveRequest{
		RequestToken: "req-abc12345",
		SlotID:       "slot-1",
		BookingType:  "dive",
		Participants: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExternalRef != "prov-123" {
		t.Errorf("external ref = %q, want prov-123", result.ExternalRef)
	}
	if gotIdempotencyKey != "req-abc12345" {
		t.Errorf("Idempotency-Key header = %q, want the request token", gotIdempotencyKey)
	}
}

func TestReserveRetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"external_ref":"prov-456","slot_id":"slot-1","status":"confirmed"}`))
	}))
	defer server.Close()

	provider := testProvider(server.URL, 4)
	result, err := provider.Reserve(context.Background(), ReserveRequest{
		RequestToken: "req-retry123",
		SlotID:       "slot-1",
		Participants: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if result.ExternalRef != "prov-456" {
		t.Errorf("external ref = %q, want prov-456", result.ExternalRef)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("provider called %d times, want 3", got)
	}
}

func TestReserveExhaustsRetryBudget(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	provider := testProvider(server.URL, 3)
	_, err := provider.Reserve(context.Background(), ReserveRequest{
		RequestToken: "req-fail1234",
		SlotID:       "slot-1",
		Participants: 1,
	})

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ProviderError, got %T: %v", err, err)
	}
	if !providerErr.Transient() {
		t.Error("expected transient classification for 502")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("provider called %d times, want 3", got)
	}
}

func TestReservePermanentFailureDoesNotRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"slot no longer offered"}`))
	}))
	defer server.Close()

	provider := testProvider(server.URL, 4)
	_, err := provider.Reserve(context.Background(), ReserveRequest{
		RequestToken: "req-gone1234",
		SlotID:       "slot-1",
		Participants: 1,
	})

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ProviderError, got %T: %v", err, err)
	}
	if providerErr.Transient() {
		t.Error("expected permanent classification for 422")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("provider called %d times, want 1 (no retries)", got)
	}
}

func TestReserveRateLimitedIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := testProvider(server.URL, 2)
	_, err := provider.Reserve(context.Background(), ReserveRequest{
		RequestToken: "req-limited1",
		SlotID:       "slot-1",
		Participants: 1,
	})

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ProviderError, got %T: %v", err, err)
	}
	if !providerErr.Transient() {
		t.Error("expected transient classification for 429")
	}
}

func TestCancelReservationGoneIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method: %s", r.Method)
		}
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	provider := testProvider(server.URL, 3)
	if err := provider.CancelReservation(context.Background(), "prov-123"); err != nil {
		t.Errorf("expected 410 to count as cancelled, got: %v", err)
	}
}

func TestFetchSlotsParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("booking_type"); got != "dive" {
			t.Errorf("booking_type query = %q, want dive", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"slots":[
			{"id":"slot-1","booking_type":"dive","capacity":8,"reserved":0},
			{"id":"slot-2","booking_type":"dive","capacity":4,"reserved":0}
		]}`))
	}))
	defer server.Close()

	provider := testProvider(server.URL, 3)
	from := time.Now()
	slots, err := provider.FetchSlots(context.Background(), "dive", from, from.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("got %d slots, want 2", len(slots))
	}
	if slots[0].ID != "slot-1" || slots[0].Capacity != 8 {
		t.Errorf("unexpected first slot: %+v", slots[0])
	}
}

func TestReserveContextCancellationStopsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := testProvider(server.URL, 10)
	provider.backoff.Base = 200 * time.Millisecond
	provider.backoff.Cap = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := provider.Reserve(ctx, ReserveRequest{
		RequestToken: "req-cancel12",
		SlotID:       "slot-1",
		Participants: 1,
	})
	if err == nil {
		t.Fatal("expected error after context cancellation")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("retries continued past cancellation, took %s", elapsed)
	}
}
