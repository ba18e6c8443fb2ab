package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income   TxType = "income"
	Outcome  TxType = "outcome"
	Transfer TxType = "transfer"
)

const (
	HoldActive          HoldStatus = "active"
	HoldResolvedIncome  HoldStatus = "resolved_income"
	HoldResolvedOutcome HoldStatus = "resolved_outcome"
	HoldRemoved         HoldStatus = "removed"
)

// FallbackCurrency is used for users that never picked a display currency.
const FallbackCurrency = "USD"

const maxDescriptionLen = 200

type (
	TxType     string
	HoldStatus string

	Date struct {
		time.Time
	}

	Wallet struct {
		ID        int64
		UserID    int64
		Name      string
		Currency  string
		Balance   Money
		IsDefault bool
		CreatedAt time.Time
	}

	Transaction struct {
		ID          int64
		UserID      int64
		WalletID    *int64 // nil for wallet-less entries
		Type        TxType
		Amount      Money // signed
		Description string
		Currency    string
		CategoryID  *int64
		HoldID      *int64 // set on the bookkeeping row of a wallet-sourced hold resolved to outcome
		CreatedAt   time.Time
	}

	Hold struct {
		ID             int64
		UserID         int64
		Amount         Money
		Description    string
		Tags           []string
		Currency       string
		SourceWalletID *int64
		Status         HoldStatus
		CreatedAt      time.Time
		ResolvedAt     *time.Time
	}

	RecurringRule struct {
		ID            int64
		UserID        int64
		Type          TxType
		Amount        Money
		Description   string
		Currency      string
		DayOfMonth    int
		Active        bool
		LastAppliedOn Date // zero until first application
	}

	Budget struct {
		ID         int64
		UserID     int64
		CategoryID int64
		Amount     Money
		Currency   string
		Month      int
		Year       int
	}

	Category struct {
		ID   int64
		Name string
		Kind TxType
	}

	UserSettings struct {
		UserID          int64
		DefaultCurrency string
	}
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidCurrency     = errors.New("invalid currency")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
)

// Sign returns the signed amount for the transaction type. Outcomes are
// negative, everything else keeps the magnitude's sign.
func (t TxType) Sign(m Money) Money {
	if t == Outcome {
		return m.Abs().Neg()
	}
	return m.Abs()
}

func (t TxType) Validate() error {
	switch t {
	case Income, Outcome, Transfer:
		return nil
	}
	return errors.New("invalid transaction type: " + string(t))
}

func (s HoldStatus) Terminal() bool {
	return s != HoldActive
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// SameDay reports whether both dates fall on the same calendar day.
func (d Date) SameDay(o Date) bool {
	return !d.IsZero() && !o.IsZero() && d.String() == o.String()
}

func validDescription(s string) error {
	if len(s) > maxDescriptionLen {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (w Wallet) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return ErrEmptyName
	}
	return ValidateCurrency(w.Currency)
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return errors.Join(ErrInvalidInput, err)
	}
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if err := validDescription(t.Description); err != nil {
		return errors.Join(ErrInvalidInput, err)
	}
	return ValidateCurrency(t.Currency)
}

func (h Hold) Validate() error {
	if err := h.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(h.Description) == "" {
		return ErrEmptyDescription
	}
	if err := validDescription(h.Description); err != nil {
		return errors.Join(ErrInvalidInput, err)
	}
	return ValidateCurrency(h.Currency)
}

func (r RecurringRule) Validate() error {
	if r.Type != Income && r.Type != Outcome {
		return errors.Join(ErrInvalidInput, errors.New("recurring rule must be income or outcome"))
	}
	if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	if err := validDescription(r.Description); err != nil {
		return errors.Join(ErrInvalidInput, err)
	}
	return ValidateCurrency(r.Currency)
}

// DueOn reports whether the rule fires on the given calendar day. A day of
// month past the end of a short month fires on that month's last day.
func (r RecurringRule) DueOn(day Date) bool {
	if !r.Active {
		return false
	}
	lastDay := time.Date(day.Year(), day.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	target := r.DayOfMonth
	if target > lastDay {
		target = lastDay
	}
	return day.Day() == target && !r.LastAppliedOn.SameDay(day)
}

func (b Budget) Validate() error {
	if b.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1970 {
		return errors.Join(ErrInvalidInput, errors.New("invalid year"))
	}
	return ValidateCurrency(b.Currency)
}
