package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"finledger/internal/core"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 20 * time.Millisecond
	busyTimeoutMillis    = 5000
)

// SQLiteRepository is the ledger store. Every balance mutation and the row
// write it belongs to run inside one BEGIN IMMEDIATE transaction.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries

	retryAttempts int
	retryBackoff  time.Duration
}

type Option func(*SQLiteRepository)

// WithRetryAttempts bounds how many times an atomic unit is tried when
// SQLite reports the database as busy or locked.
func WithRetryAttempts(n int) Option {
	return func(r *SQLiteRepository) {
		if n > 0 {
			r.retryAttempts = n
		}
	}
}

func WithRetryBackoff(d time.Duration) Option {
	return func(r *SQLiteRepository) {
		if d > 0 {
			r.retryBackoff = d
		}
	}
}

func dsn(path string) string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate",
		path, busyTimeoutMillis)
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:            db,
		queries:       New(db),
		retryAttempts: defaultRetryAttempts,
		retryBackoff:  defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(repo)
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn as one atomic unit, retrying with backoff while SQLite is
// busy. Exhausted retries surface core.ErrConcurrencyConflict.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = r.runTx(ctx, fn)
		if err == nil || !isBusy(err) {
			return err
		}
		if attempt >= r.retryAttempts {
			break
		}
		slog.WarnContext(ctx, "SQLite busy, retrying atomic unit",
			"attempt", attempt,
			"error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.retryBackoff << (attempt - 1)):
		}
	}
	return fmt.Errorf("%w: %v", core.ErrConcurrencyConflict, err)
}

func (r *SQLiteRepository) runTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(r.queries.WithTx(tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// ---- users ----

// EnsureUser creates the settings row on first interaction and returns it.
func (r *SQLiteRepository) EnsureUser(ctx context.Context, userID int64, defaultCurrency string) (core.UserSettings, error) {
	var s core.UserSettings
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.EnsureUserSettings(ctx, userID, defaultCurrency, time.Now()); err != nil {
			return err
		}
		var err error
		s, err = q.GetUserSettings(ctx, userID)
		return err
	})
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("ensure user %d: %w", userID, err)
	}
	return s, nil
}

func (r *SQLiteRepository) GetUserSettings(ctx context.Context, userID int64) (core.UserSettings, error) {
	s, err := r.queries.GetUserSettings(ctx, userID)
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("get user settings: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) SetDisplayCurrency(ctx context.Context, userID int64, currency string) error {
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.EnsureUserSettings(ctx, userID, currency, time.Now()); err != nil {
			return err
		}
		_, err := q.UpdateUserCurrency(ctx, userID, currency)
		return err
	})
	if err != nil {
		return fmt.Errorf("set display currency: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]int64, error) {
	ids, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}

// ---- categories ----

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	cats, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (r *SQLiteRepository) GetCategoryByName(ctx context.Context, name string) (core.Category, error) {
	c, err := r.queries.GetCategoryByName(ctx, name)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %q: %w", name, err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c, err := r.queries.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

// ---- wallets ----

// CreateWallet inserts a wallet. The first wallet of a user becomes the default.
func (r *SQLiteRepository) CreateWallet(ctx context.Context, w core.Wallet) (core.Wallet, error) {
	var created core.Wallet
	err := r.withTx(ctx, func(q *Queries) error {
		n, err := q.CountWallets(ctx, w.UserID)
		if err != nil {
			return err
		}
		w.IsDefault = n == 0
		created, err = q.CreateWallet(ctx, w)
		return err
	})
	if err != nil {
		return core.Wallet{}, fmt.Errorf("create wallet: %w", err)
	}

	slog.InfoContext(ctx, "Wallet created",
		"wallet_id", created.ID,
		"user_id", created.UserID,
		"currency", created.Currency,
		"is_default", created.IsDefault)
	return created, nil
}

func (r *SQLiteRepository) GetWallet(ctx context.Context, userID, id int64) (core.Wallet, error) {
	w, err := r.queries.GetWallet(ctx, userID, id)
	if err != nil {
		return core.Wallet{}, fmt.Errorf("get wallet %d: %w", id, err)
	}
	return w, nil
}

func (r *SQLiteRepository) DefaultWallet(ctx context.Context, userID int64) (core.Wallet, error) {
	w, err := r.queries.GetDefaultWallet(ctx, userID)
	if err != nil {
		return core.Wallet{}, fmt.Errorf("get default wallet: %w", err)
	}
	return w, nil
}

func (r *SQLiteRepository) ListWallets(ctx context.Context, userID int64) ([]core.Wallet, error) {
	ws, err := r.queries.ListWallets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return ws, nil
}

// SetDefaultWallet clears the previous default and marks walletID, atomically.
func (r *SQLiteRepository) SetDefaultWallet(ctx context.Context, userID, walletID int64) error {
	err := r.withTx(ctx, func(q *Queries) error {
		if _, err := q.GetWallet(ctx, userID, walletID); err != nil {
			return err
		}
		if err := q.ClearDefaultWallet(ctx, userID); err != nil {
			return err
		}
		n, err := q.MarkDefaultWallet(ctx, userID, walletID)
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set default wallet %d: %w", walletID, err)
	}
	return nil
}

// ---- transactions ----

// RecordTransaction inserts t and, when it references a wallet, applies its
// signed amount to the wallet balance. t.Currency must already match the
// wallet currency.
func (r *SQLiteRepository) RecordTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	var saved core.Transaction
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		saved, err = insertWithBalance(ctx, q, t)
		return err
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", saved.ID,
		"user_id", saved.UserID,
		"type", saved.Type,
		"amount_cents", saved.Amount.Cents,
		"currency", saved.Currency)
	return saved, nil
}

func insertWithBalance(ctx context.Context, q *Queries, t core.Transaction) (core.Transaction, error) {
	if t.WalletID != nil {
		w, err := q.GetWallet(ctx, t.UserID, *t.WalletID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("wallet %d: %w", *t.WalletID, err)
		}
		if w.Currency != t.Currency {
			return core.Transaction{}, fmt.Errorf("%w: transaction in %s on %s wallet", core.ErrInvalidCurrency, t.Currency, w.Currency)
		}
	}
	saved, err := q.InsertTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	if saved.WalletID != nil {
		if err := q.AddWalletBalance(ctx, *saved.WalletID, saved.Amount); err != nil {
			return core.Transaction{}, err
		}
	}
	return saved, nil
}

// DeleteTransaction removes a row and reverses its balance effect.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	var deleted core.Transaction
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		deleted, err = q.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}
		if deleted.WalletID != nil {
			if err := q.AddWalletBalance(ctx, *deleted.WalletID, deleted.Amount.Neg()); err != nil {
				return err
			}
		}
		return q.DeleteTransaction(ctx, id)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction deleted",
		"id", id,
		"user_id", userID,
		"amount_cents", deleted.Amount.Cents)
	return deleted, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	txs, err := r.queries.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Transfer writes both legs and both balance updates in one atomic unit.
// Wallet rows are updated in ascending id order.
func (r *SQLiteRepository) Transfer(ctx context.Context, p TransferParams) (core.Transaction, core.Transaction, error) {
	if p.FromID == p.ToID {
		return core.Transaction{}, core.Transaction{}, fmt.Errorf("%w: transfer to the same wallet", core.ErrInvalidInput)
	}

	var debit, credit core.Transaction
	err := r.withTx(ctx, func(q *Queries) error {
		from, err := q.GetWallet(ctx, p.UserID, p.FromID)
		if err != nil {
			return fmt.Errorf("source wallet: %w", err)
		}
		to, err := q.GetWallet(ctx, p.UserID, p.ToID)
		if err != nil {
			return fmt.Errorf("target wallet: %w", err)
		}
		if p.Debit.GreaterThan(from.Balance) {
			return core.ErrInsufficientFunds
		}

		debit, err = q.InsertTransaction(ctx, core.Transaction{
			UserID:      p.UserID,
			WalletID:    &from.ID,
			Type:        core.Transfer,
			Amount:      p.Debit.Abs().Neg(),
			Description: p.Description,
			Currency:    from.Currency,
			CreatedAt:   p.At,
		})
		if err != nil {
			return err
		}
		credit, err = q.InsertTransaction(ctx, core.Transaction{
			UserID:      p.UserID,
			WalletID:    &to.ID,
			Type:        core.Transfer,
			Amount:      p.Credit.Abs(),
			Description: p.Description,
			Currency:    to.Currency,
			CreatedAt:   p.At,
		})
		if err != nil {
			return err
		}

		deltas := map[int64]core.Money{
			from.ID: debit.Amount,
			to.ID:   credit.Amount,
		}
		ids := []int64{from.ID, to.ID}
		slices.Sort(ids)
		for _, id := range ids {
			if err := q.AddWalletBalance(ctx, id, deltas[id]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, core.Transaction{}, fmt.Errorf("transfer: %w", err)
	}

	slog.InfoContext(ctx, "Transfer completed",
		"user_id", p.UserID,
		"from_wallet", p.FromID,
		"to_wallet", p.ToID,
		"debit_cents", debit.Amount.Cents,
		"credit_cents", credit.Amount.Cents)
	return debit, credit, nil
}

// TotalsByType sums all non-transfer transactions per type and currency.
func (r *SQLiteRepository) TotalsByType(ctx context.Context, userID int64) ([]TypeTotal, error) {
	totals, err := r.queries.TotalsByType(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("totals by type: %w", err)
	}
	return totals, nil
}

func (r *SQLiteRepository) OutcomeByCategory(ctx context.Context, userID int64, from, to time.Time) ([]CategoryTotal, error) {
	totals, err := r.queries.OutcomeByCategory(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("outcome by category: %w", err)
	}
	return totals, nil
}

// WalletDrift returns cached versus derived balances for every wallet.
func (r *SQLiteRepository) WalletDrift(ctx context.Context, userID int64) ([]WalletDrift, error) {
	drift, err := r.queries.WalletDrift(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("wallet drift: %w", err)
	}
	return drift, nil
}

// ---- holds ----

// CreateHold inserts h and, when it is wallet-sourced, debits the wallet in
// the same atomic unit. h.Currency must match the source wallet currency.
func (r *SQLiteRepository) CreateHold(ctx context.Context, h core.Hold) (core.Hold, error) {
	var saved core.Hold
	err := r.withTx(ctx, func(q *Queries) error {
		if h.SourceWalletID != nil {
			w, err := q.GetWallet(ctx, h.UserID, *h.SourceWalletID)
			if err != nil {
				return fmt.Errorf("source wallet: %w", err)
			}
			if w.Currency != h.Currency {
				return fmt.Errorf("%w: hold in %s on %s wallet", core.ErrInvalidCurrency, h.Currency, w.Currency)
			}
			if h.Amount.GreaterThan(w.Balance) {
				return core.ErrInsufficientFunds
			}
			if err := q.AddWalletBalance(ctx, w.ID, h.Amount.Neg()); err != nil {
				return err
			}
		}
		var err error
		saved, err = q.InsertHold(ctx, h)
		return err
	})
	if err != nil {
		return core.Hold{}, fmt.Errorf("create hold: %w", err)
	}

	slog.InfoContext(ctx, "Hold created",
		"hold_id", saved.ID,
		"user_id", saved.UserID,
		"amount_cents", saved.Amount.Cents,
		"currency", saved.Currency)
	return saved, nil
}

func (r *SQLiteRepository) GetActiveHold(ctx context.Context, userID, id int64) (core.Hold, error) {
	h, err := r.queries.GetActiveHold(ctx, userID, id)
	if err != nil {
		return core.Hold{}, fmt.Errorf("get hold %d: %w", id, err)
	}
	return h, nil
}

func (r *SQLiteRepository) ListActiveHolds(ctx context.Context, userID int64) ([]core.Hold, error) {
	hs, err := r.queries.ListActiveHolds(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list holds: %w", err)
	}
	return hs, nil
}

func (r *SQLiteRepository) ActiveHoldTotals(ctx context.Context, userID int64) ([]CurrencyTotal, error) {
	totals, err := r.queries.ActiveHoldTotals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("active hold totals: %w", err)
	}
	return totals, nil
}

// UpdateHoldMeta rewrites description and tags of an active hold.
func (r *SQLiteRepository) UpdateHoldMeta(ctx context.Context, h core.Hold) error {
	err := r.withTx(ctx, func(q *Queries) error {
		n, err := q.UpdateHoldMeta(ctx, h)
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update hold %d: %w", h.ID, err)
	}
	return nil
}

// SettleHold moves an active hold to a terminal status in one atomic unit.
//
//   - HoldRemoved: the earmark goes back to the source wallet, no entry.
//   - HoldResolvedOutcome: entry is written. For a wallet-sourced hold the
//     entry is pinned to the source wallet and not applied to its balance,
//     because the earmark already debited it.
//   - HoldResolvedIncome: entry is written. For a wallet-sourced hold the
//     earmark goes back to the source wallet and the entry carries no wallet.
//
// For holds without a source wallet the entry is applied like any other
// transaction on entry.WalletID.
func (r *SQLiteRepository) SettleHold(ctx context.Context, userID, holdID int64, status core.HoldStatus, entry *core.Transaction, at time.Time) (core.Hold, *core.Transaction, error) {
	var (
		hold  core.Hold
		saved *core.Transaction
	)
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		hold, err = q.GetActiveHold(ctx, userID, holdID)
		if err != nil {
			return err
		}
		src := hold.SourceWalletID

		switch status {
		case core.HoldRemoved:
			if src != nil {
				if err := q.AddWalletBalance(ctx, *src, hold.Amount); err != nil {
					return err
				}
			}

		case core.HoldResolvedOutcome, core.HoldResolvedIncome:
			if entry == nil {
				return fmt.Errorf("%w: settlement entry required", core.ErrInvalidInput)
			}
			e := *entry
			e.UserID = userID
			e.HoldID = &hold.ID
			e.CreatedAt = at

			var t core.Transaction
			switch {
			case src == nil:
				t, err = insertWithBalance(ctx, q, e)
			case status == core.HoldResolvedOutcome:
				e.WalletID = src
				e.Currency = hold.Currency
				e.Amount = hold.Amount.Neg()
				t, err = q.InsertTransaction(ctx, e)
			default:
				if err := q.AddWalletBalance(ctx, *src, hold.Amount); err != nil {
					return err
				}
				e.WalletID = nil
				e.Currency = hold.Currency
				e.Amount = hold.Amount
				t, err = q.InsertTransaction(ctx, e)
			}
			if err != nil {
				return err
			}
			saved = &t

		default:
			return fmt.Errorf("%w: cannot settle hold to %q", core.ErrInvalidInput, status)
		}

		n, err := q.CloseHold(ctx, hold.ID, status, at)
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return core.Hold{}, nil, fmt.Errorf("settle hold %d: %w", holdID, err)
	}

	hold.Status = status
	hold.ResolvedAt = &at
	slog.InfoContext(ctx, "Hold settled",
		"hold_id", hold.ID,
		"user_id", userID,
		"status", status)
	return hold, saved, nil
}

// ---- recurring rules ----

func (r *SQLiteRepository) CreateRecurringRule(ctx context.Context, rule core.RecurringRule) (core.RecurringRule, error) {
	var saved core.RecurringRule
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		saved, err = q.InsertRecurringRule(ctx, rule, time.Now())
		return err
	})
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("create recurring rule: %w", err)
	}
	return saved, nil
}

func (r *SQLiteRepository) GetRecurringRule(ctx context.Context, userID, id int64) (core.RecurringRule, error) {
	rule, err := r.queries.GetRecurringRule(ctx, userID, id)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("get recurring rule %d: %w", id, err)
	}
	return rule, nil
}

// UpdateRecurringRule edits amount, description, currency, day and active
// flag in place.
func (r *SQLiteRepository) UpdateRecurringRule(ctx context.Context, rule core.RecurringRule) error {
	err := r.withTx(ctx, func(q *Queries) error {
		n, err := q.UpdateRecurringRule(ctx, rule)
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update recurring rule %d: %w", rule.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteRecurringRule(ctx context.Context, userID, id int64) error {
	err := r.withTx(ctx, func(q *Queries) error {
		n, err := q.DeleteRecurringRule(ctx, userID, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete recurring rule %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListRecurringRules(ctx context.Context, userID int64) ([]core.RecurringRule, error) {
	rules, err := r.queries.ListRecurringRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring rules: %w", err)
	}
	return rules, nil
}

func (r *SQLiteRepository) ListActiveRecurringRules(ctx context.Context) ([]core.RecurringRule, error) {
	rules, err := r.queries.ListActiveRecurringRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active recurring rules: %w", err)
	}
	return rules, nil
}

// ApplyRecurringRule marks the rule applied for day, inserts entry and
// updates the wallet balance as one atomic unit. It reports false without
// writing anything when the rule was already applied that day.
func (r *SQLiteRepository) ApplyRecurringRule(ctx context.Context, ruleID int64, day core.Date, entry core.Transaction) (core.Transaction, bool, error) {
	var (
		saved   core.Transaction
		applied bool
	)
	err := r.withTx(ctx, func(q *Queries) error {
		n, err := q.MarkRuleApplied(ctx, ruleID, day)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		saved, err = insertWithBalance(ctx, q, entry)
		if err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return core.Transaction{}, false, fmt.Errorf("apply recurring rule %d: %w", ruleID, err)
	}
	return saved, applied, nil
}

// ---- budgets ----

// UpsertBudget replaces the budget for (user, category, month, year).
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	var saved core.Budget
	err := r.withTx(ctx, func(q *Queries) error {
		if _, err := q.GetCategory(ctx, b.CategoryID); err != nil {
			return fmt.Errorf("category %d: %w", b.CategoryID, err)
		}
		var err error
		saved, err = q.UpsertBudget(ctx, b)
		return err
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	return saved, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64, month, year int) ([]core.Budget, error) {
	bs, err := r.queries.ListBudgets(ctx, userID, month, year)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return bs, nil
}

func (r *SQLiteRepository) ListBudgetUsers(ctx context.Context, month, year int) ([]int64, error) {
	ids, err := r.queries.ListBudgetUsers(ctx, month, year)
	if err != nil {
		return nil, fmt.Errorf("list budget users: %w", err)
	}
	return ids, nil
}
