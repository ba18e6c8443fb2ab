package services

import (
	"context"
	"fmt"
	"strings"

	"finledger/internal/amqp"
	"finledger/internal/core"
	applog "finledger/internal/log"
)

const holdEntryPrefix = "From hold: "

// HoldManager drives the hold lifecycle: active, then exactly one of
// resolved-to-income, resolved-to-outcome or removed.
type HoldManager struct {
	ledger *LedgerService
}

func NewHoldManager(ledger *LedgerService) *HoldManager {
	return &HoldManager{ledger: ledger}
}

type CreateHoldParams struct {
	UserID         int64
	Amount         core.Money
	Description    string
	Currency       string
	SourceWalletID *int64
	Tags           []string
}

// CreateHold earmarks funds. A wallet-sourced hold is converted into the
// wallet currency and debited from the wallet in the same atomic unit.
func (m *HoldManager) CreateHold(ctx context.Context, p CreateHoldParams) (core.Hold, error) {
	if err := p.Amount.Validate(); err != nil {
		return core.Hold{}, err
	}
	code, err := parseCurrency(p.Currency)
	if err != nil {
		return core.Hold{}, err
	}

	h := core.Hold{
		UserID:      p.UserID,
		Amount:      p.Amount,
		Description: strings.TrimSpace(p.Description),
		Tags:        cleanTags(p.Tags),
		Currency:    code,
		CreatedAt:   m.ledger.now(),
	}

	if p.SourceWalletID != nil {
		w, err := m.ledger.store.GetWallet(ctx, p.UserID, *p.SourceWalletID)
		if err != nil {
			return core.Hold{}, err
		}
		h.SourceWalletID = &w.ID
		h.Amount = m.ledger.convert(ctx, p.Amount, code, w.Currency)
		h.Currency = w.Currency
		if h.Amount.GreaterThan(w.Balance) {
			return core.Hold{}, core.ErrInsufficientFunds
		}
	}

	if err := h.Validate(); err != nil {
		return core.Hold{}, err
	}

	saved, err := m.ledger.store.CreateHold(ctx, h)
	if err != nil {
		return core.Hold{}, err
	}

	publish(ctx, m.ledger.events, amqp.EventHoldCreated, saved.UserID, holdEvent(saved, nil))
	return saved, nil
}

// ResolveToIncome closes the hold with an income entry. A wallet-sourced
// hold hands its earmark back to the source wallet; otherwise the income
// goes to the default wallet, or stays wallet-less when there is none.
func (m *HoldManager) ResolveToIncome(ctx context.Context, userID, holdID int64) (core.Transaction, error) {
	return m.resolve(ctx, userID, holdID, core.HoldResolvedIncome, core.Income)
}

// ResolveToOutcome closes the hold with an outcome entry. A wallet-sourced
// hold was already debited at creation, so the entry is bookkeeping only.
func (m *HoldManager) ResolveToOutcome(ctx context.Context, userID, holdID int64) (core.Transaction, error) {
	return m.resolve(ctx, userID, holdID, core.HoldResolvedOutcome, core.Outcome)
}

func (m *HoldManager) resolve(ctx context.Context, userID, holdID int64, status core.HoldStatus, kind core.TxType) (core.Transaction, error) {
	h, err := m.ledger.store.GetActiveHold(ctx, userID, holdID)
	if err != nil {
		return core.Transaction{}, err
	}

	entry := core.Transaction{
		UserID:      userID,
		Type:        kind,
		Amount:      kind.Sign(h.Amount),
		Currency:    h.Currency,
		Description: holdEntryPrefix + h.Description,
		CategoryID:  m.ledger.detectCategory(ctx, kind, h.Description),
	}

	if h.SourceWalletID == nil {
		w, err := m.ledger.store.DefaultWallet(ctx, userID)
		switch {
		case err == nil:
			entry.WalletID = &w.ID
			entry.Amount = kind.Sign(m.ledger.convert(ctx, h.Amount, h.Currency, w.Currency))
			entry.Currency = w.Currency
		case isNotFound(err):
			applog.FromContext(ctx, applog.ComponentHolds).InfoContext(ctx, "No default wallet, recording wallet-less entry",
				applog.FieldHoldID, h.ID,
				applog.FieldUserID, userID)
		default:
			return core.Transaction{}, err
		}
	}

	settled, tx, err := m.ledger.store.SettleHold(ctx, userID, holdID, status, &entry, m.ledger.now())
	if err != nil {
		return core.Transaction{}, err
	}
	if tx == nil {
		return core.Transaction{}, fmt.Errorf("settle hold %d: no entry written", holdID)
	}

	publish(ctx, m.ledger.events, amqp.EventHoldResolved, userID, holdEvent(settled, tx))
	return *tx, nil
}

// RemoveHold discards the hold and returns any earmark to its source wallet.
// No transaction is recorded.
func (m *HoldManager) RemoveHold(ctx context.Context, userID, holdID int64) error {
	settled, _, err := m.ledger.store.SettleHold(ctx, userID, holdID, core.HoldRemoved, nil, m.ledger.now())
	if err != nil {
		return err
	}
	publish(ctx, m.ledger.events, amqp.EventHoldRemoved, userID, holdEvent(settled, nil))
	return nil
}

func (m *HoldManager) RenameHold(ctx context.Context, userID, holdID int64, description string) (core.Hold, error) {
	h, err := m.ledger.store.GetActiveHold(ctx, userID, holdID)
	if err != nil {
		return core.Hold{}, err
	}
	h.Description = strings.TrimSpace(description)
	if err := h.Validate(); err != nil {
		return core.Hold{}, err
	}
	if err := m.ledger.store.UpdateHoldMeta(ctx, h); err != nil {
		return core.Hold{}, err
	}
	return h, nil
}

// TagHold replaces the hold's tag annotations.
func (m *HoldManager) TagHold(ctx context.Context, userID, holdID int64, tags []string) (core.Hold, error) {
	h, err := m.ledger.store.GetActiveHold(ctx, userID, holdID)
	if err != nil {
		return core.Hold{}, err
	}
	h.Tags = cleanTags(tags)
	if err := m.ledger.store.UpdateHoldMeta(ctx, h); err != nil {
		return core.Hold{}, err
	}
	return h, nil
}

// ListHolds returns the user's active holds.
func (m *HoldManager) ListHolds(ctx context.Context, userID int64) ([]core.Hold, error) {
	return m.ledger.store.ListActiveHolds(ctx, userID)
}

func cleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func holdEvent(h core.Hold, tx *core.Transaction) HoldEvent {
	e := HoldEvent{
		HoldID:         h.ID,
		Status:         h.Status,
		Amount:         h.Amount.String(),
		Currency:       h.Currency,
		Description:    h.Description,
		SourceWalletID: h.SourceWalletID,
	}
	if tx != nil {
		e.Transaction = transactionEvent(*tx)
	}
	return e
}
