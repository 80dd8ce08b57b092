package kafka

import (
	"context"
	"errors"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	transient := errors.New("dial tcp: connection refused")
	permanent := errors.New("schema mismatch")

	tests := []struct {
		name           string
		err            error
		currentRetries int
		maxRetries     int
		want           bool
	}{
		{"transient below budget", transient, 0, 3, true},
		{"transient at budget", transient, 3, 3, false},
		{"transient past budget", transient, 4, 3, false},
		{"permanent", permanent, 0, 3, false},
		{"nil error", nil, 0, 3, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldRetry(tc.err, tc.currentRetries, tc.maxRetries); got != tc.want {
				t.Errorf("ShouldRetry(%v, %d, %d) = %v, want %v",
					tc.err, tc.currentRetries, tc.maxRetries, got, tc.want)
			}
		})
	}
}

func testMessage() Message {
	return Message{
		Key:     "slot-1",
		Value:   []byte(`{}`),
		Headers: map[string]string{},
	}
}

func TestProcessMessagePermanentErrorNotRetried(t *testing.T) {
	calls := 0
	consumer := &Consumer{
		handler: func(ctx context.Context, msg Message) error {
			calls++
			return errors.New("unknown event type")
		},
		maxRetries: 3,
	}

	err := consumer.processMessage(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected the handler error to surface")
	}
	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
}

func TestProcessMessageRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	consumer := &Consumer{
		handler: func(ctx context.Context, msg Message) error {
			calls++
			if calls == 1 {
				return errors.New("write: broken pipe")
			}
			return nil
		},
		maxRetries: 2,
	}

	msg := testMessage()
	if err := consumer.processMessage(context.Background(), msg); err != nil {
		t.Fatalf("processMessage failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("handler called %d times, want 2", calls)
	}
}

func TestProcessMessageExhaustsRetryBudget(t *testing.T) {
	calls := 0
	consumer := &Consumer{
		handler: func(ctx context.Context, msg Message) error {
			calls++
			return errors.New("i/o timeout")
		},
		maxRetries: 1,
	}

	err := consumer.processMessage(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected the handler error to surface after exhaustion")
	}
	if calls != 2 {
		t.Errorf("handler called %d times, want initial attempt plus 1 retry", calls)
	}
}

func TestProcessMessageHonorsCarriedRetryCount(t *testing.T) {
	calls := 0
	consumer := &Consumer{
		handler: func(ctx context.Context, msg Message) error {
			calls++
			return errors.New("connection reset by peer")
		},
		maxRetries: 2,
	}

	msg := testMessage()
	msg.Headers[HeaderRetryCount] = "2"

	err := consumer.processMessage(context.Background(), msg)
	if err == nil {
		t.Fatal("expected the handler error to surface")
	}
	if calls != 1 {
		t.Errorf("handler called %d times, want 1 when the retry budget is already spent", calls)
	}
}

func TestProcessMessageStopsRetryingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	consumer := &Consumer{
		handler: func(ctx context.Context, msg Message) error {
			calls++
			cancel()
			return errors.New("deadline exceeded")
		},
		maxRetries: 5,
	}

	err := consumer.processMessage(ctx, testMessage())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
}
