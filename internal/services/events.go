package services

import (
	"context"

	"finledger/internal/amqp"
	"finledger/internal/core"
	applog "finledger/internal/log"
)

// CurrencyConverter converts an amount between currency codes. It never
// fails: an unavailable rate yields the amount unchanged.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount core.Money, from, to string) core.Money
}

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	Publish(ctx context.Context, typ amqp.EventType, userID int64, payload any) error
}

// Event payloads. Amounts are rendered as two-place decimal strings.
type (
	TransactionEvent struct {
		TransactionID int64       `json:"transaction_id"`
		WalletID      *int64      `json:"wallet_id,omitempty"`
		Type          core.TxType `json:"type"`
		Amount        string      `json:"amount"`
		Currency      string      `json:"currency"`
		Description   string      `json:"description,omitempty"`
		CategoryID    *int64      `json:"category_id,omitempty"`
		HoldID        *int64      `json:"hold_id,omitempty"`
	}

	TransferEvent struct {
		FromWalletID int64  `json:"from_wallet_id"`
		ToWalletID   int64  `json:"to_wallet_id"`
		Debit        string `json:"debit"`
		DebitCcy     string `json:"debit_currency"`
		Credit       string `json:"credit"`
		CreditCcy    string `json:"credit_currency"`
	}

	HoldEvent struct {
		HoldID         int64             `json:"hold_id"`
		Status         core.HoldStatus   `json:"status"`
		Amount         string            `json:"amount"`
		Currency       string            `json:"currency"`
		Description    string            `json:"description"`
		SourceWalletID *int64            `json:"source_wallet_id,omitempty"`
		Transaction    *TransactionEvent `json:"transaction,omitempty"`
	}

	RecurringEvent struct {
		RuleID      int64             `json:"rule_id"`
		Day         string            `json:"day"`
		Reason      string            `json:"reason,omitempty"`
		Transaction *TransactionEvent `json:"transaction,omitempty"`
	}

	BudgetReportEvent struct {
		Year  int               `json:"year"`
		Month int               `json:"month"`
		Lines []BudgetLineEvent `json:"lines"`
	}

	BudgetLineEvent struct {
		Category   string  `json:"category"`
		Currency   string  `json:"currency"`
		Budgeted   string  `json:"budgeted"`
		Spent      string  `json:"spent"`
		Remaining  string  `json:"remaining"`
		Percentage float64 `json:"percentage"`
	}
)

func transactionEvent(t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		TransactionID: t.ID,
		WalletID:      t.WalletID,
		Type:          t.Type,
		Amount:        t.Amount.String(),
		Currency:      t.Currency,
		Description:   t.Description,
		CategoryID:    t.CategoryID,
		HoldID:        t.HoldID,
	}
}

func budgetReportEvent(r core.BudgetReport) BudgetReportEvent {
	e := BudgetReportEvent{Year: r.Year, Month: r.Month, Lines: make([]BudgetLineEvent, 0, len(r.Lines))}
	for _, l := range r.Lines {
		e.Lines = append(e.Lines, BudgetLineEvent{
			Category:   l.Category,
			Currency:   l.Currency,
			Budgeted:   l.Budgeted.String(),
			Spent:      l.Spent.String(),
			Remaining:  l.Remaining.String(),
			Percentage: l.Percentage,
		})
	}
	return e
}

// publish sends an event when a broker is configured. Publishing never fails
// the ledger operation that triggered it.
func publish(ctx context.Context, events EventPublisher, typ amqp.EventType, userID int64, payload any) {
	logger := applog.FromContext(ctx, applog.ComponentAMQP)
	if events == nil {
		logger.WarnContext(ctx, "AMQP client not available, skipping event", applog.FieldEventType, typ)
		return
	}
	if err := events.Publish(ctx, typ, userID, payload); err != nil {
		logger.ErrorContext(ctx, "Failed to publish ledger event",
			applog.FieldEventType, typ,
			applog.FieldUserID, userID,
			applog.FieldError, err)
	}
}
