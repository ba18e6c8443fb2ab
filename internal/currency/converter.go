// Package currency converts amounts between ISO currency codes using a rate
// table expressed relative to a single base currency.
//
// Conversion is best effort: when rates cannot be obtained the amount is
// returned unchanged and the failure is logged. Ledger writes never wait on
// or fail because of the rate source.
package currency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"finledger/internal/cache"
	"finledger/internal/core"
	applog "finledger/internal/log"
)

// ErrConversionUnavailable signals that a conversion could not be computed.
// It never leaves this package through Convert.
var ErrConversionUnavailable = errors.New("conversion unavailable")

// RateTable maps currency codes to their value relative to Base (Base itself is 1).
type RateTable struct {
	Base      string
	Rates     map[string]decimal.Decimal
	FetchedAt time.Time
}

// Rate returns the rate for code, or false when unknown or unusable.
func (t RateTable) Rate(code string) (decimal.Decimal, bool) {
	if code == t.Base {
		return decimal.NewFromInt(1), true
	}
	r, ok := t.Rates[code]
	if !ok || !r.IsPositive() {
		return decimal.Zero, false
	}
	return r, true
}

// RateSource fetches a rate table for a base currency.
type RateSource interface {
	Latest(ctx context.Context, base string) (RateTable, error)
}

// Converter wraps a RateSource with caching, a bounded timeout, and the
// fallback policy.
type Converter struct {
	source  RateSource
	base    string
	timeout time.Duration
	tables  *cache.LRUCache[RateTable]
	group   singleflight.Group
	logger  *applog.Logger
}

type Options struct {
	Base     string
	Timeout  time.Duration
	CacheTTL time.Duration
}

func NewConverter(source RateSource, opts Options) *Converter {
	if opts.Base == "" {
		opts.Base = core.FallbackCurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Converter{
		source:  source,
		base:    opts.Base,
		timeout: opts.Timeout,
		tables:  cache.NewLRUCache[RateTable](4, opts.CacheTTL),
		logger:  applog.Default(applog.ComponentCurrency),
	}
}

// Cache exposes the rate table cache so the process can register it for
// periodic eviction.
func (c *Converter) Cache() *cache.LRUCache[RateTable] {
	return c.tables
}

// Convert converts amount from one currency to another, rounded to cents.
// Identical codes short-circuit without touching the rate source. Any failure
// returns amount unchanged.
func (c *Converter) Convert(ctx context.Context, amount core.Money, from, to string) core.Money {
	if from == to {
		return amount
	}
	out, err := c.TryConvert(ctx, amount, from, to)
	if err != nil {
		applog.FromContext(ctx, applog.ComponentCurrency).WarnContext(ctx, "Currency conversion failed, keeping original amount",
			applog.FieldFrom, from,
			applog.FieldTo, to,
			applog.FieldAmountCents, amount.Cents,
			applog.FieldError, err)
		return amount
	}
	return out
}

// TryConvert is Convert without the fallback. Errors wrap ErrConversionUnavailable.
func (c *Converter) TryConvert(ctx context.Context, amount core.Money, from, to string) (core.Money, error) {
	if from == to {
		return amount, nil
	}
	table, err := c.Rates(ctx)
	if err != nil {
		return amount, err
	}
	rateFrom, ok := table.Rate(from)
	if !ok {
		return amount, fmt.Errorf("%w: no rate for %s", ErrConversionUnavailable, from)
	}
	rateTo, ok := table.Rate(to)
	if !ok {
		return amount, fmt.Errorf("%w: no rate for %s", ErrConversionUnavailable, to)
	}
	converted, err := core.FromDecimal(amount.Decimal().Div(rateFrom).Mul(rateTo))
	if err != nil {
		return amount, fmt.Errorf("%w: %v", ErrConversionUnavailable, err)
	}
	return converted, nil
}

// Rates returns the current rate table, fetching it when the cache is cold.
// Concurrent misses share a single fetch.
func (c *Converter) Rates(ctx context.Context) (RateTable, error) {
	if t, ok := c.tables.Get(c.base); ok {
		return t, nil
	}
	v, err, _ := c.group.Do(c.base, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		t, err := c.source.Latest(fetchCtx, c.base)
		if err != nil {
			return RateTable{}, err
		}
		if t.Base != c.base {
			return RateTable{}, fmt.Errorf("rate table base %q, want %q", t.Base, c.base)
		}
		c.tables.Set(c.base, t)
		c.logger.Info("Fetched exchange rates", "base", t.Base, "currencies", len(t.Rates))
		return t, nil
	})
	if err != nil {
		return RateTable{}, fmt.Errorf("%w: %v", ErrConversionUnavailable, err)
	}
	return v.(RateTable), nil
}
