package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func fastConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", cfg.MaxRetries)
	}
	if cfg.InitialDelay != 100*time.Millisecond {
		t.Errorf("expected InitialDelay=100ms, got %v", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 5*time.Second {
		t.Errorf("expected MaxDelay=5s, got %v", cfg.MaxDelay)
	}
	if cfg.Multiplier != 2.0 {
		t.Errorf("expected Multiplier=2.0, got %f", cfg.Multiplier)
	}
}

func TestDoWithResult_Success(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(), func() (string, error) {
		calls++
		return "pool", nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "pool" {
		t.Errorf("expected result 'pool', got %q", got)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoWithResult_SuccessAfterRetries(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("dial tcp: connection refused")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoWithResult_MaxRetriesExhausted(t *testing.T) {
	calls := 0
	_, err := DoWithResult(context.Background(), fastConfig(), func() (int, error) {
		calls++
		return 0, errors.New("i/o timeout")
	})
	if err == nil || !strings.Contains(err.Error(), "i/o timeout") {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls (1 + 3 retries), got %d", calls)
	}
}

func TestDoWithResult_NonRetryableReturnsImmediately(t *testing.T) {
	calls := 0
	_, err := DoWithResult(context.Background(), fastConfig(), func() (int, error) {
		calls++
		return 0, errors.New(`password authentication failed for user "listings"`)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoWithResult_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig()
	cfg.InitialDelay = time.Second
	cfg.MaxDelay = time.Second

	calls := 0
	_, err := DoWithResult(ctx, cfg, func() (int, error) {
		calls++
		cancel()
		return 0, errors.New("connection reset by peer")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoWithResult_RepeatedErrorEscalates(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxRetries = 10
	cfg.MaxSameErrorType = 2

	calls := 0
	_, err := DoWithResult(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, errors.New("database is locked")
	})
	if err == nil || !strings.Contains(err.Error(), "type=locked") {
		t.Errorf("expected escalation error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDoIfRetryable_NilConfig(t *testing.T) {
	calls := 0
	err := DoIfRetryable(context.Background(), nil, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoIfRetryable_Permanent(t *testing.T) {
	calls := 0
	err := DoIfRetryable(context.Background(), fastConfig(), func() error {
		calls++
		return Permanent(errors.New("connection refused"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{"postgres starting", errors.New("FATAL: the database system is starting up (SQLSTATE 57P03)"), true},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"too many clients", errors.New("sorry, too many clients already"), true},
		{"bad password", errors.New("login failed for user 'sa'"), false},
		{"missing table", errors.New(`relation "properties" does not exist`), false},
		{"context cancelled", context.Canceled, false},
		{"deadline wrapped", errors.Join(errors.New("ping"), context.DeadlineExceeded), false},
		{"permanent", Permanent(errors.New("timeout")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
