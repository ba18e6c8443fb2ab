package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finledger/internal/amqp"
	"finledger/internal/core"
	applog "finledger/internal/log"
)

// RecurringProcessor materializes recurring rules into the ledger once per
// calendar day and manages the rules themselves.
type RecurringProcessor struct {
	ledger *LedgerService
}

func NewRecurringProcessor(ledger *LedgerService) *RecurringProcessor {
	return &RecurringProcessor{ledger: ledger}
}

type RuleParams struct {
	UserID      int64
	Type        core.TxType
	Amount      core.Money
	Description string
	Currency    string
	DayOfMonth  int
}

// SetRecurringRule creates an active rule.
func (p *RecurringProcessor) SetRecurringRule(ctx context.Context, rp RuleParams) (core.RecurringRule, error) {
	code, err := parseCurrency(rp.Currency)
	if err != nil {
		return core.RecurringRule{}, err
	}
	rule := core.RecurringRule{
		UserID:      rp.UserID,
		Type:        rp.Type,
		Amount:      rp.Amount,
		Description: strings.TrimSpace(rp.Description),
		Currency:    code,
		DayOfMonth:  rp.DayOfMonth,
		Active:      true,
	}
	if err := rule.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	if _, err := p.ledger.EnsureUser(ctx, rp.UserID); err != nil {
		return core.RecurringRule{}, err
	}
	return p.ledger.store.CreateRecurringRule(ctx, rule)
}

// RuleEdit holds the fields an in-place edit may change. Nil leaves a field
// untouched.
type RuleEdit struct {
	Amount      *core.Money
	DayOfMonth  *int
	Description *string
}

func (p *RecurringProcessor) EditRecurringRule(ctx context.Context, userID, ruleID int64, edit RuleEdit) (core.RecurringRule, error) {
	rule, err := p.ledger.store.GetRecurringRule(ctx, userID, ruleID)
	if err != nil {
		return core.RecurringRule{}, err
	}
	if edit.Amount != nil {
		rule.Amount = *edit.Amount
	}
	if edit.DayOfMonth != nil {
		rule.DayOfMonth = *edit.DayOfMonth
	}
	if edit.Description != nil {
		rule.Description = strings.TrimSpace(*edit.Description)
	}
	if err := rule.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	if err := p.ledger.store.UpdateRecurringRule(ctx, rule); err != nil {
		return core.RecurringRule{}, err
	}
	return rule, nil
}

func (p *RecurringProcessor) SetRecurringRuleActive(ctx context.Context, userID, ruleID int64, active bool) error {
	rule, err := p.ledger.store.GetRecurringRule(ctx, userID, ruleID)
	if err != nil {
		return err
	}
	rule.Active = active
	return p.ledger.store.UpdateRecurringRule(ctx, rule)
}

func (p *RecurringProcessor) RemoveRecurringRule(ctx context.Context, userID, ruleID int64) error {
	return p.ledger.store.DeleteRecurringRule(ctx, userID, ruleID)
}

func (p *RecurringProcessor) ListRecurringRules(ctx context.Context, userID int64) ([]core.RecurringRule, error) {
	return p.ledger.store.ListRecurringRules(ctx, userID)
}

// ProcessResult counts what one tick did.
type ProcessResult struct {
	Checked int
	Applied int
	Skipped int
	Failed  int
}

// ProcessDueRules applies every active rule due on now's calendar day in the
// ledger timezone. Rules are processed independently: one failure is logged
// and counted, the rest still run. Running twice on the same day applies
// each rule at most once.
func (p *RecurringProcessor) ProcessDueRules(ctx context.Context, now time.Time) (ProcessResult, error) {
	if p.ledger == nil || p.ledger.store == nil {
		return ProcessResult{}, fmt.Errorf("processor not properly initialized")
	}

	logger := applog.FromContext(ctx, applog.ComponentScheduler)
	today := core.DateOf(now.In(p.ledger.location))

	rules, err := p.ledger.store.ListActiveRecurringRules(ctx)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("failed to get active recurring rules: %w", err)
	}

	logger.InfoContext(ctx, "Processing recurring rules",
		"total_active", len(rules),
		"processing_date", today.String())

	var res ProcessResult
	for _, rule := range rules {
		if !rule.DueOn(today) {
			continue
		}
		res.Checked++

		applied, err := p.apply(ctx, rule, today, now)
		switch {
		case err != nil:
			res.Failed++
			logger.ErrorContext(ctx, "Failed to apply recurring rule",
				applog.FieldRuleID, rule.ID,
				applog.FieldUserID, rule.UserID,
				applog.FieldError, err)
		case applied:
			res.Applied++
		default:
			res.Skipped++
		}
	}

	logger.InfoContext(ctx, "Recurring rule processing complete",
		"applied", res.Applied,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"total_checked", res.Checked)

	return res, nil
}

func (p *RecurringProcessor) apply(ctx context.Context, rule core.RecurringRule, today core.Date, now time.Time) (bool, error) {
	logger := applog.FromContext(ctx, applog.ComponentScheduler)
	w, err := p.ledger.store.DefaultWallet(ctx, rule.UserID)
	if isNotFound(err) {
		logger.InfoContext(ctx, "Skipping recurring rule, user has no default wallet",
			applog.FieldRuleID, rule.ID,
			applog.FieldUserID, rule.UserID)
		publish(ctx, p.ledger.events, amqp.EventRecurringSkipped, rule.UserID, RecurringEvent{
			RuleID: rule.ID,
			Day:    today.String(),
			Reason: "no default wallet",
		})
		return false, nil
	}
	if err != nil {
		return false, err
	}

	amount := p.ledger.convert(ctx, rule.Amount, rule.Currency, w.Currency)
	if amount.IsZero() {
		return false, fmt.Errorf("%w: rule %d rounds to zero in %s", core.ErrInvalidAmount, rule.ID, w.Currency)
	}

	entry := core.Transaction{
		UserID:      rule.UserID,
		WalletID:    &w.ID,
		Type:        rule.Type,
		Amount:      rule.Type.Sign(amount),
		Currency:    w.Currency,
		Description: rule.Description,
		CategoryID:  p.ledger.detectCategory(ctx, rule.Type, rule.Description),
		CreatedAt:   now,
	}

	saved, applied, err := p.ledger.store.ApplyRecurringRule(ctx, rule.ID, today, entry)
	if err != nil {
		return false, err
	}
	if !applied {
		logger.InfoContext(ctx, "Recurring rule already applied today",
			applog.FieldRuleID, rule.ID,
			"day", today.String())
		return false, nil
	}

	logger.InfoContext(ctx, "Created transaction from recurring rule",
		applog.FieldRuleID, rule.ID,
		applog.FieldTxID, saved.ID,
		applog.FieldAmountCents, saved.Amount.Cents,
		applog.FieldCurrency, saved.Currency)

	publish(ctx, p.ledger.events, amqp.EventRecurringApplied, rule.UserID, RecurringEvent{
		RuleID:      rule.ID,
		Day:         today.String(),
		Transaction: transactionEvent(saved),
	})
	return true, nil
}
