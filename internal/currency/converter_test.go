package currency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finledger/internal/core"
)

type stubSource struct {
	calls atomic.Int32
	table RateTable
	err   error
	delay time.Duration
}

func (s *stubSource) Latest(ctx context.Context, base string) (RateTable, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return RateTable{}, ctx.Err()
		}
	}
	if s.err != nil {
		return RateTable{}, s.err
	}
	return s.table, nil
}

func usdTable() RateTable {
	return RateTable{
		Base: "USD",
		Rates: map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(1),
			"EUR": decimal.RequireFromString("0.90"),
			"GBP": decimal.RequireFromString("0.80"),
			"JPY": decimal.RequireFromString("150"),
			"BAD": decimal.Zero,
		},
	}
}

func TestConvertIdentityDoesNotFetch(t *testing.T) {
	src := &stubSource{err: errors.New("must not be called")}
	c := NewConverter(src, Options{Base: "USD", CacheTTL: time.Hour})

	for _, code := range []string{"USD", "EUR", "JPY"} {
		amt := core.MustAmount("123.45")
		if got := c.Convert(context.Background(), amt, code, code); got != amt {
			t.Errorf("Convert(%s->%s) = %v, want %v", code, code, got, amt)
		}
	}
	if n := src.calls.Load(); n != 0 {
		t.Fatalf("rate source called %d times", n)
	}
}

func TestConvertThroughBase(t *testing.T) {
	c := NewConverter(&stubSource{table: usdTable()}, Options{Base: "USD", CacheTTL: time.Hour})
	ctx := context.Background()

	tests := []struct {
		amount   string
		from, to string
		want     string
	}{
		{"100", "USD", "EUR", "90.00"},
		{"90", "EUR", "USD", "100.00"},
		{"90", "EUR", "GBP", "80.00"},
		{"10", "EUR", "JPY", "1666.67"},
		{"1", "JPY", "USD", "0.01"},
	}
	for _, tt := range tests {
		got := c.Convert(ctx, core.MustAmount(tt.amount), tt.from, tt.to)
		if got.String() != tt.want {
			t.Errorf("Convert(%s %s->%s) = %s, want %s", tt.amount, tt.from, tt.to, got, tt.want)
		}
	}
}

func TestConvertFallbackOnSourceError(t *testing.T) {
	c := NewConverter(&stubSource{err: errors.New("connection refused")}, Options{Base: "USD", CacheTTL: time.Hour})
	amt := core.MustAmount("100")

	if got := c.Convert(context.Background(), amt, "USD", "EUR"); got != amt {
		t.Fatalf("expected unconverted amount, got %v", got)
	}
	if _, err := c.TryConvert(context.Background(), amt, "USD", "EUR"); !errors.Is(err, ErrConversionUnavailable) {
		t.Fatalf("expected ErrConversionUnavailable, got %v", err)
	}
}

func TestConvertFallbackOnUnknownOrZeroRate(t *testing.T) {
	c := NewConverter(&stubSource{table: usdTable()}, Options{Base: "USD", CacheTTL: time.Hour})
	amt := core.MustAmount("100")

	for _, to := range []string{"CHF", "BAD"} {
		if got := c.Convert(context.Background(), amt, "USD", to); got != amt {
			t.Errorf("USD->%s: expected unconverted amount, got %v", to, got)
		}
	}
}

func TestConvertFallbackOnTimeout(t *testing.T) {
	src := &stubSource{table: usdTable(), delay: time.Second}
	c := NewConverter(src, Options{Base: "USD", Timeout: 20 * time.Millisecond, CacheTTL: time.Hour})
	amt := core.MustAmount("100")

	start := time.Now()
	got := c.Convert(context.Background(), amt, "USD", "EUR")
	if got != amt {
		t.Fatalf("expected unconverted amount, got %v", got)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("conversion blocked for %v", elapsed)
	}
}

func TestRatesAreCachedAndShared(t *testing.T) {
	src := &stubSource{table: usdTable(), delay: 20 * time.Millisecond}
	c := NewConverter(src, Options{Base: "USD", CacheTTL: time.Hour})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Convert(context.Background(), core.MustAmount("1"), "USD", "EUR")
		}()
	}
	wg.Wait()
	c.Convert(context.Background(), core.MustAmount("1"), "EUR", "GBP")

	if n := src.calls.Load(); n != 1 {
		t.Fatalf("rate source called %d times, want 1", n)
	}
}

func TestRatesRejectsWrongBase(t *testing.T) {
	table := usdTable()
	table.Base = "EUR"
	c := NewConverter(&stubSource{table: table}, Options{Base: "USD", CacheTTL: time.Hour})

	if _, err := c.Rates(context.Background()); !errors.Is(err, ErrConversionUnavailable) {
		t.Fatalf("expected ErrConversionUnavailable, got %v", err)
	}
}
