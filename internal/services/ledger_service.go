package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"finledger/internal/amqp"
	"finledger/internal/core"
	applog "finledger/internal/log"
	"finledger/internal/storage"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 500
)

// LedgerService orchestrates ledger operations over the SQLite store. It is
// the one place where amounts are converted into wallet currencies, always
// before the store opens its atomic unit.
type LedgerService struct {
	store     *storage.SQLiteRepository
	converter CurrencyConverter
	events    EventPublisher

	defaultCurrency string
	location        *time.Location
	now             func() time.Time
}

type Option func(*LedgerService)

// WithEvents publishes ledger events through p. A nil publisher disables
// publishing.
func WithEvents(p EventPublisher) Option {
	return func(s *LedgerService) { s.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

// WithLocation sets the timezone used for calendar days and months.
func WithLocation(loc *time.Location) Option {
	return func(s *LedgerService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithDefaultCurrency sets the display currency of new users.
func WithDefaultCurrency(code string) Option {
	return func(s *LedgerService) {
		if code != "" {
			s.defaultCurrency = code
		}
	}
}

func NewLedgerService(store *storage.SQLiteRepository, converter CurrencyConverter, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:           store,
		converter:       converter,
		defaultCurrency: core.FallbackCurrency,
		location:        time.UTC,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the timezone calendar computations run in.
func (s *LedgerService) Location() *time.Location {
	return s.location
}

func (s *LedgerService) logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx, applog.ComponentLedger)
}

func (s *LedgerService) convert(ctx context.Context, amount core.Money, from, to string) core.Money {
	if from == to || s.converter == nil {
		return amount
	}
	return s.converter.Convert(ctx, amount, from, to)
}

func parseCurrency(code string) (string, error) {
	code = core.NormalizeCurrency(code)
	if err := core.ValidateCurrency(code); err != nil {
		return "", err
	}
	return code, nil
}

// ---- users ----

func (s *LedgerService) EnsureUser(ctx context.Context, userID int64) (core.UserSettings, error) {
	return s.store.EnsureUser(ctx, userID, s.defaultCurrency)
}

func (s *LedgerService) SetDisplayCurrency(ctx context.Context, userID int64, currency string) error {
	code, err := parseCurrency(currency)
	if err != nil {
		return err
	}
	return s.store.SetDisplayCurrency(ctx, userID, code)
}

// ---- wallets ----

func (s *LedgerService) CreateWallet(ctx context.Context, userID int64, name, currency string) (core.Wallet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Wallet{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, core.ErrEmptyName)
	}
	code, err := parseCurrency(currency)
	if err != nil {
		return core.Wallet{}, err
	}
	w := core.Wallet{UserID: userID, Name: name, Currency: code, CreatedAt: s.now()}
	if err := w.Validate(); err != nil {
		return core.Wallet{}, err
	}
	if _, err := s.EnsureUser(ctx, userID); err != nil {
		return core.Wallet{}, err
	}
	return s.store.CreateWallet(ctx, w)
}

func (s *LedgerService) ListWallets(ctx context.Context, userID int64) ([]core.Wallet, error) {
	return s.store.ListWallets(ctx, userID)
}

func (s *LedgerService) GetWallet(ctx context.Context, userID, walletID int64) (core.Wallet, error) {
	return s.store.GetWallet(ctx, userID, walletID)
}

func (s *LedgerService) DefaultWallet(ctx context.Context, userID int64) (core.Wallet, error) {
	return s.store.DefaultWallet(ctx, userID)
}

func (s *LedgerService) SetDefaultWallet(ctx context.Context, userID, walletID int64) error {
	return s.store.SetDefaultWallet(ctx, userID, walletID)
}

// ---- transactions ----

// RecordParams describes a manual income or outcome. Amount is the positive
// magnitude; the sign follows Type.
type RecordParams struct {
	UserID      int64
	WalletID    *int64
	Type        core.TxType
	Amount      core.Money
	Currency    string
	Description string
	CategoryID  *int64
}

// RecordTransaction stores a manual entry. With a wallet the amount is
// converted into the wallet currency and applied to its balance. Without a
// category one is detected from the description.
func (s *LedgerService) RecordTransaction(ctx context.Context, p RecordParams) (core.Transaction, error) {
	if p.Type != core.Income && p.Type != core.Outcome {
		return core.Transaction{}, fmt.Errorf("%w: record supports income and outcome, got %q", core.ErrInvalidInput, p.Type)
	}
	if err := p.Amount.Validate(); err != nil {
		return core.Transaction{}, err
	}
	code, err := parseCurrency(p.Currency)
	if err != nil {
		return core.Transaction{}, err
	}

	if p.CategoryID != nil {
		cat, err := s.store.GetCategory(ctx, *p.CategoryID)
		if err != nil {
			return core.Transaction{}, err
		}
		if cat.Kind != p.Type {
			return core.Transaction{}, fmt.Errorf("%w: category %s is for %s entries", core.ErrInvalidInput, cat.Name, cat.Kind)
		}
	}

	t := core.Transaction{
		UserID:      p.UserID,
		Type:        p.Type,
		Amount:      p.Type.Sign(p.Amount),
		Currency:    code,
		Description: strings.TrimSpace(p.Description),
		CategoryID:  p.CategoryID,
		CreatedAt:   s.now(),
	}

	if p.WalletID != nil {
		w, err := s.store.GetWallet(ctx, p.UserID, *p.WalletID)
		if err != nil {
			return core.Transaction{}, err
		}
		t.WalletID = &w.ID
		t.Amount = p.Type.Sign(s.convert(ctx, p.Amount, code, w.Currency))
		t.Currency = w.Currency
		if t.Amount.IsZero() {
			return core.Transaction{}, fmt.Errorf("%w: rounds to zero in %s", core.ErrInvalidAmount, w.Currency)
		}
	}

	if t.CategoryID == nil {
		t.CategoryID = s.detectCategory(ctx, p.Type, t.Description)
	}

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.RecordTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	publish(ctx, s.events, amqp.EventTransactionRecorded, saved.UserID, transactionEvent(saved))
	return saved, nil
}

// detectCategory resolves a keyword match to a seeded category id. No match
// leaves the category empty.
func (s *LedgerService) detectCategory(ctx context.Context, kind core.TxType, description string) *int64 {
	name := core.DetectCategory(kind, description)
	if name == "" {
		return nil
	}
	cat, err := s.store.GetCategoryByName(ctx, name)
	if err != nil {
		s.logger(ctx).WarnContext(ctx, "Detected category missing from store",
			applog.FieldCategory, name,
			applog.FieldError, err)
		return nil
	}
	return &cat.ID
}

// DeleteTransaction removes a row and reverses its balance effect.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id int64) error {
	deleted, err := s.store.DeleteTransaction(ctx, userID, id)
	if err != nil {
		return err
	}
	publish(ctx, s.events, amqp.EventTransactionDeleted, userID, transactionEvent(deleted))
	return nil
}

// Transfer moves amount, expressed in the source wallet currency, between
// two wallets of the same user.
func (s *LedgerService) Transfer(ctx context.Context, userID, fromID, toID int64, amount core.Money, description string) (core.Transaction, core.Transaction, error) {
	if err := amount.Validate(); err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}
	if fromID == toID {
		return core.Transaction{}, core.Transaction{}, fmt.Errorf("%w: transfer to the same wallet", core.ErrInvalidInput)
	}

	from, err := s.store.GetWallet(ctx, userID, fromID)
	if err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}
	to, err := s.store.GetWallet(ctx, userID, toID)
	if err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}
	if amount.GreaterThan(from.Balance) {
		return core.Transaction{}, core.Transaction{}, core.ErrInsufficientFunds
	}

	credit := s.convert(ctx, amount, from.Currency, to.Currency)
	if credit.IsZero() {
		return core.Transaction{}, core.Transaction{}, fmt.Errorf("%w: rounds to zero in %s", core.ErrInvalidAmount, to.Currency)
	}
	if description = strings.TrimSpace(description); description == "" {
		description = fmt.Sprintf("Transfer %s -> %s", from.Name, to.Name)
	}

	debitTx, creditTx, err := s.store.Transfer(ctx, storage.TransferParams{
		UserID:      userID,
		FromID:      from.ID,
		ToID:        to.ID,
		Debit:       amount,
		Credit:      credit,
		Description: description,
		At:          s.now(),
	})
	if err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}

	publish(ctx, s.events, amqp.EventTransferCompleted, userID, TransferEvent{
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Debit:        debitTx.Amount.String(),
		DebitCcy:     debitTx.Currency,
		Credit:       creditTx.Amount.String(),
		CreditCcy:    creditTx.Currency,
	})
	return debitTx, creditTx, nil
}

// GetTransactionHistory returns the newest entries first. A non-positive
// limit means 10; limits above 500 are capped.
func (s *LedgerService) GetTransactionHistory(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	return s.store.ListTransactions(ctx, userID, limit)
}

// ---- read model ----

// GetBalanceSnapshot builds the display read model: wallet balances, totals
// converted into the user's display currency, and this month's spending by
// category.
func (s *LedgerService) GetBalanceSnapshot(ctx context.Context, userID int64) (core.BalanceSnapshot, error) {
	settings, err := s.EnsureUser(ctx, userID)
	if err != nil {
		return core.BalanceSnapshot{}, err
	}
	display := settings.DefaultCurrency
	now := s.now().In(s.location)

	snap := core.BalanceSnapshot{
		UserID:   userID,
		Currency: display,
		TakenAt:  now,
		Year:     now.Year(),
		Month:    int(now.Month()),
	}

	wallets, err := s.store.ListWallets(ctx, userID)
	if err != nil {
		return core.BalanceSnapshot{}, err
	}
	for _, w := range wallets {
		snap.Wallets = append(snap.Wallets, core.WalletBalance{
			WalletID:  w.ID,
			Name:      w.Name,
			Currency:  w.Currency,
			Balance:   w.Balance,
			IsDefault: w.IsDefault,
		})
	}

	totals, err := s.store.TotalsByType(ctx, userID)
	if err != nil {
		return core.BalanceSnapshot{}, err
	}
	for _, t := range totals {
		converted := s.convert(ctx, t.Amount.Abs(), t.Currency, display)
		switch t.Type {
		case core.Income:
			snap.TotalIncome = snap.TotalIncome.Add(converted)
		case core.Outcome:
			snap.TotalOutcome = snap.TotalOutcome.Add(converted)
		}
	}

	holds, err := s.store.ActiveHoldTotals(ctx, userID)
	if err != nil {
		return core.BalanceSnapshot{}, err
	}
	for _, h := range holds {
		snap.TotalHolds = snap.TotalHolds.Add(s.convert(ctx, h.Amount, h.Currency, display))
	}

	from, to := monthBounds(now)
	byCategory, err := s.store.OutcomeByCategory(ctx, userID, from, to)
	if err != nil {
		return core.BalanceSnapshot{}, err
	}
	snap.ByCategory = s.mergeCategories(ctx, byCategory, display)

	return snap, nil
}

// mergeCategories folds per-currency rows into one positive amount per
// category, largest first.
func (s *LedgerService) mergeCategories(ctx context.Context, rows []storage.CategoryTotal, display string) []core.CategoryAmount {
	idx := map[int64]int{}
	var out []core.CategoryAmount
	for _, r := range rows {
		var id int64
		name := r.Name
		if r.CategoryID != nil {
			id = *r.CategoryID
		}
		if name == "" {
			name = "Uncategorized"
		}
		amount := s.convert(ctx, r.Amount.Abs(), r.Currency, display)
		if i, ok := idx[id]; ok {
			out[i].Amount = out[i].Amount.Add(amount)
			continue
		}
		idx[id] = len(out)
		out = append(out, core.CategoryAmount{CategoryID: id, Name: name, Amount: amount})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	return out
}

// Reconcile compares cached wallet balances with Σ transactions − Σ active
// holds and logs every wallet that drifted.
func (s *LedgerService) Reconcile(ctx context.Context, userID int64) ([]storage.WalletDrift, error) {
	drift, err := s.store.WalletDrift(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, d := range drift {
		if !d.Consistent() {
			s.logger(ctx).WarnContext(ctx, "Wallet balance drift detected",
				applog.FieldWalletID, d.WalletID,
				"cached", d.Cached.String(),
				"derived", d.Derived().String())
		}
	}
	return drift, nil
}

// ListUsers returns every user with a settings row.
func (s *LedgerService) ListUsers(ctx context.Context) ([]int64, error) {
	return s.store.ListUsers(ctx)
}

// monthBounds returns [first day of t's month, first day of next month) in
// t's location.
func monthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// isNotFound reports the sentinel through any wrapping.
func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
