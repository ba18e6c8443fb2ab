package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finledger/internal/core"
)

// notFound maps sql.ErrNoRows to core.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

// ---- user settings ----

const ensureUserSettings = `-- name: EnsureUserSettings :exec
INSERT INTO user_settings (user_id, default_currency, created_at)
VALUES (?, ?, ?)
ON CONFLICT(user_id) DO NOTHING
`

func (q *Queries) EnsureUserSettings(ctx context.Context, userID int64, currency string, at time.Time) error {
	_, err := q.db.ExecContext(ctx, ensureUserSettings, userID, currency, unixNano(at))
	return err
}

const getUserSettings = `-- name: GetUserSettings :one
SELECT user_id, default_currency FROM user_settings WHERE user_id = ?
`

func (q *Queries) GetUserSettings(ctx context.Context, userID int64) (core.UserSettings, error) {
	var s core.UserSettings
	err := q.db.QueryRowContext(ctx, getUserSettings, userID).Scan(&s.UserID, &s.DefaultCurrency)
	return s, notFound(err)
}

const updateUserCurrency = `-- name: UpdateUserCurrency :execrows
UPDATE user_settings SET default_currency = ? WHERE user_id = ?
`

func (q *Queries) UpdateUserCurrency(ctx context.Context, userID int64, currency string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUserCurrency, currency, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---- categories ----

const listCategories = `-- name: ListCategories :many
SELECT id, name, kind FROM categories ORDER BY kind, id
`

func (q *Queries) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const getCategoryByName = `-- name: GetCategoryByName :one
SELECT id, name, kind FROM categories WHERE name = ? COLLATE NOCASE
`

func (q *Queries) GetCategoryByName(ctx context.Context, name string) (core.Category, error) {
	var c core.Category
	err := q.db.QueryRowContext(ctx, getCategoryByName, name).Scan(&c.ID, &c.Name, &c.Kind)
	return c, notFound(err)
}

const getCategory = `-- name: GetCategory :one
SELECT id, name, kind FROM categories WHERE id = ?
`

func (q *Queries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := q.db.QueryRowContext(ctx, getCategory, id).Scan(&c.ID, &c.Name, &c.Kind)
	return c, notFound(err)
}

// ---- wallets ----

const walletColumns = `id, user_id, name, currency, balance_cents, is_default, created_at`

func scanWallet(s rowScanner) (core.Wallet, error) {
	var (
		w       core.Wallet
		created int64
	)
	if err := s.Scan(&w.ID, &w.UserID, &w.Name, &w.Currency, &w.Balance.Cents, &w.IsDefault, &created); err != nil {
		return core.Wallet{}, err
	}
	w.CreatedAt = fromUnixNano(created)
	return w, nil
}

const createWallet = `-- name: CreateWallet :one
INSERT INTO wallets (user_id, name, currency, balance_cents, is_default, created_at)
VALUES (?, ?, ?, 0, ?, ?)
RETURNING ` + walletColumns

func (q *Queries) CreateWallet(ctx context.Context, w core.Wallet) (core.Wallet, error) {
	return scanWallet(q.db.QueryRowContext(ctx, createWallet, w.UserID, w.Name, w.Currency, w.IsDefault, unixNano(w.CreatedAt)))
}

const countWallets = `-- name: CountWallets :one
SELECT COUNT(*) FROM wallets WHERE user_id = ?
`

func (q *Queries) CountWallets(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countWallets, userID).Scan(&n)
	return n, err
}

const getWallet = `-- name: GetWallet :one
SELECT ` + walletColumns + ` FROM wallets WHERE user_id = ? AND id = ?
`

func (q *Queries) GetWallet(ctx context.Context, userID, id int64) (core.Wallet, error) {
	w, err := scanWallet(q.db.QueryRowContext(ctx, getWallet, userID, id))
	return w, notFound(err)
}

const getDefaultWallet = `-- name: GetDefaultWallet :one
SELECT ` + walletColumns + ` FROM wallets WHERE user_id = ? AND is_default = 1
`

func (q *Queries) GetDefaultWallet(ctx context.Context, userID int64) (core.Wallet, error) {
	w, err := scanWallet(q.db.QueryRowContext(ctx, getDefaultWallet, userID))
	return w, notFound(err)
}

const listWallets = `-- name: ListWallets :many
SELECT ` + walletColumns + ` FROM wallets WHERE user_id = ? ORDER BY id
`

func (q *Queries) ListWallets(ctx context.Context, userID int64) ([]core.Wallet, error) {
	rows, err := q.db.QueryContext(ctx, listWallets, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []core.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

const clearDefaultWallet = `-- name: ClearDefaultWallet :exec
UPDATE wallets SET is_default = 0 WHERE user_id = ? AND is_default = 1
`

func (q *Queries) ClearDefaultWallet(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, clearDefaultWallet, userID)
	return err
}

const markDefaultWallet = `-- name: MarkDefaultWallet :execrows
UPDATE wallets SET is_default = 1 WHERE user_id = ? AND id = ?
`

func (q *Queries) MarkDefaultWallet(ctx context.Context, userID, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markDefaultWallet, userID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const addWalletBalance = `-- name: AddWalletBalance :exec
UPDATE wallets SET balance_cents = balance_cents + ? WHERE id = ?
`

func (q *Queries) AddWalletBalance(ctx context.Context, id int64, delta core.Money) error {
	res, err := q.db.ExecContext(ctx, addWalletBalance, delta.Cents, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ---- transactions ----

const transactionColumns = `id, user_id, wallet_id, type, amount_cents, description, currency, category_id, hold_id, created_at`

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var walletID, catID, holdID sql.NullInt64
	var created int64
	if err := s.Scan(&t.ID, &t.UserID, &walletID, &t.Type, &t.Amount.Cents, &t.Description, &t.Currency, &catID, &holdID, &created); err != nil {
		return core.Transaction{}, err
	}
	t.WalletID = idPtr(walletID)
	t.CategoryID = idPtr(catID)
	t.HoldID = idPtr(holdID)
	t.CreatedAt = fromUnixNano(created)
	return t, nil
}

const insertTransaction = `-- name: InsertTransaction :one
INSERT INTO transactions (user_id, wallet_id, type, amount_cents, description, currency, category_id, hold_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

func (q *Queries) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, insertTransaction,
		t.UserID,
		nullID(t.WalletID),
		string(t.Type),
		t.Amount.Cents,
		t.Description,
		t.Currency,
		nullID(t.CategoryID),
		nullID(t.HoldID),
		unixNano(t.CreatedAt),
	))
}

const getTransaction = `-- name: GetTransaction :one
SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ? AND id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := scanTransaction(q.db.QueryRowContext(ctx, getTransaction, userID, id))
	return t, notFound(err)
}

const deleteTransaction = `-- name: DeleteTransaction :exec
DELETE FROM transactions WHERE id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTransaction, id)
	return err
}

const listTransactions = `-- name: ListTransactions :many
SELECT ` + transactionColumns + ` FROM transactions
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`

func (q *Queries) ListTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const totalsByType = `-- name: TotalsByType :many
SELECT type, currency, SUM(amount_cents)
FROM transactions
WHERE user_id = ? AND type <> 'transfer'
GROUP BY type, currency
ORDER BY type, currency
`

func (q *Queries) TotalsByType(ctx context.Context, userID int64) ([]TypeTotal, error) {
	rows, err := q.db.QueryContext(ctx, totalsByType, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TypeTotal
	for rows.Next() {
		var t TypeTotal
		if err := rows.Scan(&t.Type, &t.Currency, &t.Amount.Cents); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const outcomeByCategory = `-- name: OutcomeByCategory :many
SELECT t.category_id, COALESCE(c.name, ''), t.currency, SUM(t.amount_cents)
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id
WHERE t.user_id = ? AND t.type = 'outcome' AND t.created_at >= ? AND t.created_at < ?
GROUP BY t.category_id, t.currency
ORDER BY SUM(t.amount_cents) ASC
`

// OutcomeByCategory sums outcome rows in [from, to). Amounts are negative.
func (q *Queries) OutcomeByCategory(ctx context.Context, userID int64, from, to time.Time) ([]CategoryTotal, error) {
	rows, err := q.db.QueryContext(ctx, outcomeByCategory, userID, unixNano(from), unixNano(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryTotal
	for rows.Next() {
		var (
			c     CategoryTotal
			catID sql.NullInt64
		)
		if err := rows.Scan(&catID, &c.Name, &c.Currency, &c.Amount.Cents); err != nil {
			return nil, err
		}
		c.CategoryID = idPtr(catID)
		items = append(items, c)
	}
	return items, rows.Err()
}

// ---- holds ----

const holdColumns = `id, user_id, amount_cents, description, tags, currency, source_wallet_id, status, created_at, resolved_at`

func scanHold(s rowScanner) (core.Hold, error) {
	var (
		h        core.Hold
		tags     string
		sourceID sql.NullInt64
		created  int64
		resolved sql.NullInt64
	)
	if err := s.Scan(&h.ID, &h.UserID, &h.Amount.Cents, &h.Description, &tags, &h.Currency, &sourceID, &h.Status, &created, &resolved); err != nil {
		return core.Hold{}, err
	}
	decoded, err := decodeTags(tags)
	if err != nil {
		return core.Hold{}, fmt.Errorf("decode tags of hold %d: %w", h.ID, err)
	}
	h.Tags = decoded
	h.SourceWalletID = idPtr(sourceID)
	h.CreatedAt = fromUnixNano(created)
	if resolved.Valid {
		t := fromUnixNano(resolved.Int64)
		h.ResolvedAt = &t
	}
	return h, nil
}

const insertHold = `-- name: InsertHold :one
INSERT INTO holds (user_id, amount_cents, description, tags, currency, source_wallet_id, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, 'active', ?)
RETURNING ` + holdColumns

func (q *Queries) InsertHold(ctx context.Context, h core.Hold) (core.Hold, error) {
	tags, err := encodeTags(h.Tags)
	if err != nil {
		return core.Hold{}, err
	}
	return scanHold(q.db.QueryRowContext(ctx, insertHold,
		h.UserID, h.Amount.Cents, h.Description, tags, h.Currency, nullID(h.SourceWalletID), unixNano(h.CreatedAt)))
}

const getActiveHold = `-- name: GetActiveHold :one
SELECT ` + holdColumns + ` FROM holds WHERE user_id = ? AND id = ? AND status = 'active'
`

func (q *Queries) GetActiveHold(ctx context.Context, userID, id int64) (core.Hold, error) {
	h, err := scanHold(q.db.QueryRowContext(ctx, getActiveHold, userID, id))
	return h, notFound(err)
}

const listActiveHolds = `-- name: ListActiveHolds :many
SELECT ` + holdColumns + ` FROM holds WHERE user_id = ? AND status = 'active' ORDER BY id
`

func (q *Queries) ListActiveHolds(ctx context.Context, userID int64) ([]core.Hold, error) {
	rows, err := q.db.QueryContext(ctx, listActiveHolds, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []core.Hold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}

const closeHold = `-- name: CloseHold :execrows
UPDATE holds SET status = ?, resolved_at = ? WHERE id = ? AND status = 'active'
`

func (q *Queries) CloseHold(ctx context.Context, id int64, status core.HoldStatus, at time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, closeHold, string(status), unixNano(at), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateHoldMeta = `-- name: UpdateHoldMeta :execrows
UPDATE holds SET description = ?, tags = ? WHERE user_id = ? AND id = ? AND status = 'active'
`

func (q *Queries) UpdateHoldMeta(ctx context.Context, h core.Hold) (int64, error) {
	tags, err := encodeTags(h.Tags)
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, updateHoldMeta, h.Description, tags, h.UserID, h.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const activeHoldTotals = `-- name: ActiveHoldTotals :many
SELECT currency, SUM(amount_cents) FROM holds
WHERE user_id = ? AND status = 'active'
GROUP BY currency
ORDER BY currency
`

func (q *Queries) ActiveHoldTotals(ctx context.Context, userID int64) ([]CurrencyTotal, error) {
	rows, err := q.db.QueryContext(ctx, activeHoldTotals, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CurrencyTotal
	for rows.Next() {
		var c CurrencyTotal
		if err := rows.Scan(&c.Currency, &c.Amount.Cents); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const walletDrift = `-- name: WalletDrift :many
SELECT w.id, w.name, w.currency, w.balance_cents,
       COALESCE((SELECT SUM(t.amount_cents) FROM transactions t WHERE t.wallet_id = w.id), 0),
       COALESCE((SELECT SUM(h.amount_cents) FROM holds h WHERE h.source_wallet_id = w.id AND h.status = 'active'), 0)
FROM wallets w
WHERE w.user_id = ?
ORDER BY w.id
`

func (q *Queries) WalletDrift(ctx context.Context, userID int64) ([]WalletDrift, error) {
	rows, err := q.db.QueryContext(ctx, walletDrift, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WalletDrift
	for rows.Next() {
		var d WalletDrift
		if err := rows.Scan(&d.WalletID, &d.Name, &d.Currency, &d.Cached.Cents, &d.Transactions.Cents, &d.ActiveHolds.Cents); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// ---- recurring rules ----

const ruleColumns = `id, user_id, type, amount_cents, description, currency, day_of_month, active, last_applied_on`

func scanRule(s rowScanner) (core.RecurringRule, error) {
	var (
		r    core.RecurringRule
		last sql.NullString
	)
	if err := s.Scan(&r.ID, &r.UserID, &r.Type, &r.Amount.Cents, &r.Description, &r.Currency, &r.DayOfMonth, &r.Active, &last); err != nil {
		return core.RecurringRule{}, err
	}
	d, err := parseDate(last)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("parse last_applied_on of rule %d: %w", r.ID, err)
	}
	r.LastAppliedOn = d
	return r, nil
}

const insertRecurringRule = `-- name: InsertRecurringRule :one
INSERT INTO recurring_rules (user_id, type, amount_cents, description, currency, day_of_month, active, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + ruleColumns

func (q *Queries) InsertRecurringRule(ctx context.Context, r core.RecurringRule, at time.Time) (core.RecurringRule, error) {
	return scanRule(q.db.QueryRowContext(ctx, insertRecurringRule,
		r.UserID, string(r.Type), r.Amount.Cents, r.Description, r.Currency, r.DayOfMonth, r.Active, unixNano(at)))
}

const getRecurringRule = `-- name: GetRecurringRule :one
SELECT ` + ruleColumns + ` FROM recurring_rules WHERE user_id = ? AND id = ?
`

func (q *Queries) GetRecurringRule(ctx context.Context, userID, id int64) (core.RecurringRule, error) {
	r, err := scanRule(q.db.QueryRowContext(ctx, getRecurringRule, userID, id))
	return r, notFound(err)
}

const updateRecurringRule = `-- name: UpdateRecurringRule :execrows
UPDATE recurring_rules
SET amount_cents = ?, description = ?, currency = ?, day_of_month = ?, active = ?
WHERE user_id = ? AND id = ?
`

func (q *Queries) UpdateRecurringRule(ctx context.Context, r core.RecurringRule) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateRecurringRule,
		r.Amount.Cents, r.Description, r.Currency, r.DayOfMonth, r.Active, r.UserID, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteRecurringRule = `-- name: DeleteRecurringRule :execrows
DELETE FROM recurring_rules WHERE user_id = ? AND id = ?
`

func (q *Queries) DeleteRecurringRule(ctx context.Context, userID, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteRecurringRule, userID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listRecurringRules = `-- name: ListRecurringRules :many
SELECT ` + ruleColumns + ` FROM recurring_rules WHERE user_id = ? ORDER BY day_of_month, id
`

const listActiveRecurringRules = `-- name: ListActiveRecurringRules :many
SELECT ` + ruleColumns + ` FROM recurring_rules WHERE active = 1 ORDER BY user_id, id
`

func (q *Queries) ListRecurringRules(ctx context.Context, userID int64) ([]core.RecurringRule, error) {
	return q.queryRules(ctx, listRecurringRules, userID)
}

func (q *Queries) ListActiveRecurringRules(ctx context.Context) ([]core.RecurringRule, error) {
	return q.queryRules(ctx, listActiveRecurringRules)
}

func (q *Queries) queryRules(ctx context.Context, query string, args ...any) ([]core.RecurringRule, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []core.RecurringRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const markRuleApplied = `-- name: MarkRuleApplied :execrows
UPDATE recurring_rules SET last_applied_on = ?
WHERE id = ? AND active = 1 AND (last_applied_on IS NULL OR last_applied_on <> ?)
`

// MarkRuleApplied sets last_applied_on and reports whether the row changed.
// Zero rows means the rule was already applied that day or is gone/inactive.
func (q *Queries) MarkRuleApplied(ctx context.Context, id int64, day core.Date) (int64, error) {
	res, err := q.db.ExecContext(ctx, markRuleApplied, nullDate(day), id, day.String())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---- budgets ----

const budgetColumns = `id, user_id, category_id, amount_cents, currency, month, year`

func scanBudget(s rowScanner) (core.Budget, error) {
	var b core.Budget
	err := s.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount.Cents, &b.Currency, &b.Month, &b.Year)
	return b, err
}

const upsertBudget = `-- name: UpsertBudget :one
INSERT INTO budgets (user_id, category_id, amount_cents, currency, month, year)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id, category_id, month, year)
DO UPDATE SET amount_cents = excluded.amount_cents, currency = excluded.currency
RETURNING ` + budgetColumns

func (q *Queries) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	return scanBudget(q.db.QueryRowContext(ctx, upsertBudget, b.UserID, b.CategoryID, b.Amount.Cents, b.Currency, b.Month, b.Year))
}

const listBudgets = `-- name: ListBudgets :many
SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ? AND month = ? AND year = ? ORDER BY category_id
`

func (q *Queries) ListBudgets(ctx context.Context, userID int64, month, year int) ([]core.Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, userID, month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const listBudgetUsers = `-- name: ListBudgetUsers :many
SELECT DISTINCT user_id FROM budgets WHERE month = ? AND year = ? ORDER BY user_id
`

func (q *Queries) ListBudgetUsers(ctx context.Context, month, year int) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listBudgetUsers, month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	return items, rows.Err()
}

const listUsers = `-- name: ListUsers :many
SELECT user_id FROM user_settings ORDER BY user_id
`

func (q *Queries) ListUsers(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	return items, rows.Err()
}
