package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finledger/internal/amqp"
	"finledger/internal/core"
	"finledger/internal/storage"
)

// fixedRates converts through USD with a static table. Unknown codes keep
// the amount unchanged, like the real converter's fallback.
type fixedRates map[string]string

func (f fixedRates) Convert(_ context.Context, amount core.Money, from, to string) core.Money {
	if from == to {
		return amount
	}
	rf, okFrom := f.rate(from)
	rt, okTo := f.rate(to)
	if !okFrom || !okTo {
		return amount
	}
	out, err := core.FromDecimal(amount.Decimal().Div(rf).Mul(rt))
	if err != nil {
		return amount
	}
	return out
}

func (f fixedRates) rate(code string) (decimal.Decimal, bool) {
	if code == "USD" {
		return decimal.NewFromInt(1), true
	}
	s, ok := f[code]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.RequireFromString(s), true
}

type publishedEvent struct {
	Type    amqp.EventType
	UserID  int64
	Payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, typ amqp.EventType, userID int64, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: typ, UserID: userID, Payload: payload})
	return nil
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) count(typ amqp.EventType) int {
	n := 0
	for _, t := range p.types() {
		if t == typ {
			n++
		}
	}
	return n
}

var testNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store  *storage.SQLiteRepository
	ledger *LedgerService
	holds  *HoldManager
	rules  *RecurringProcessor
	budget *BudgetTracker
	events *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	events := &recordingPublisher{}
	ledger := NewLedgerService(store, fixedRates{"EUR": "0.90", "GBP": "0.80"},
		WithEvents(events),
		WithClock(func() time.Time { return testNow }),
	)
	return &fixture{
		store:  store,
		ledger: ledger,
		holds:  NewHoldManager(ledger),
		rules:  NewRecurringProcessor(ledger),
		budget: NewBudgetTracker(ledger),
		events: events,
	}
}

func (f *fixture) wallet(t *testing.T, user int64, name, currency string) core.Wallet {
	t.Helper()
	w, err := f.ledger.CreateWallet(context.Background(), user, name, currency)
	if err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}
	return w
}

func (f *fixture) record(t *testing.T, w core.Wallet, typ core.TxType, amount, description string) core.Transaction {
	t.Helper()
	tx, err := f.ledger.RecordTransaction(context.Background(), RecordParams{
		UserID:      w.UserID,
		WalletID:    &w.ID,
		Type:        typ,
		Amount:      core.MustAmount(amount),
		Currency:    w.Currency,
		Description: description,
	})
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	return tx
}

func (f *fixture) balance(t *testing.T, w core.Wallet) string {
	t.Helper()
	got, err := f.ledger.GetWallet(context.Background(), w.UserID, w.ID)
	if err != nil {
		t.Fatalf("GetWallet: %v", err)
	}
	return got.Balance.String()
}

func (f *fixture) assertConsistent(t *testing.T, user int64) {
	t.Helper()
	drift, err := f.ledger.Reconcile(context.Background(), user)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	for _, d := range drift {
		if !d.Consistent() {
			t.Errorf("wallet %d drifted: cached %s, derived %s", d.WalletID, d.Cached, d.Derived())
		}
	}
}
