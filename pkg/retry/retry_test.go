package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errGateway = errors.New("gateway unavailable")

func fastConfig(maxRetries int) Config {
	return Config{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errGateway
		}
		return nil
	}, fastConfig(5))

	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDo_ReturnsLastError(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		return errGateway
	}, fastConfig(3))

	if !errors.Is(err, errGateway) {
		t.Errorf("err = %v, want %v", err, errGateway)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDo_RetryIfStopsEarly(t *testing.T) {
	cfg := fastConfig(5)
	cfg.RetryIf = func(error) bool { return false }

	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		return errGateway
	}, cfg)

	if !errors.Is(err, errGateway) {
		t.Errorf("err = %v, want %v", err, errGateway)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 when RetryIf rejects the error", attempts)
	}
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, func() error {
		attempts++
		return errGateway
	}, fastConfig(5))

	if err == nil {
		t.Fatal("Do must not succeed with a cancelled context")
	}
	if attempts > 1 {
		t.Errorf("attempts = %d, want at most 1 after cancel", attempts)
	}
}

func TestDo_OnRetryCallback(t *testing.T) {
	cfg := fastConfig(3)
	var reported []int
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		reported = append(reported, attempt)
	}

	Do(context.Background(), func() error { return errGateway }, cfg)

	// Колбэк вызывается перед каждым повтором, но не после последней попытки
	if len(reported) != 2 || reported[0] != 1 || reported[1] != 2 {
		t.Errorf("reported = %v, want [1 2]", reported)
	}
}

func TestCalculateDelay(t *testing.T) {
	cfg := Config{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}
	cfg.validate()

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"first retry", 0, 100 * time.Millisecond},
		{"second retry", 1, 200 * time.Millisecond},
		{"third retry", 2, 400 * time.Millisecond},
		{"capped at max", 10, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.calculateDelay(tt.attempt); got != tt.want {
				t.Errorf("calculateDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestRetryIfNotContext(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network error", errGateway, true},
		{"cancelled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"wrapped cancelled", errors.Join(errGateway, context.Canceled), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RetryIfNotContext(tt.err); got != tt.want {
				t.Errorf("RetryIfNotContext(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
