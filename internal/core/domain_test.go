package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateOfKeepsLocalCalendarDay(t *testing.T) {
	msk := time.FixedZone("MSK", 3*3600)
	// 22:30 UTC on the 14th is already the 15th in Moscow
	now := time.Date(2025, 3, 14, 22, 30, 0, 0, time.UTC).In(msk)
	if got := DateOf(now).String(); got != "2025-03-15" {
		t.Fatalf("DateOf = %s, want 2025-03-15", got)
	}
}

func TestTxTypeSign(t *testing.T) {
	amt := MustAmount("50")
	if got := Outcome.Sign(amt); got.Cents != -5000 {
		t.Errorf("outcome sign = %d", got.Cents)
	}
	if got := Outcome.Sign(amt.Neg()); got.Cents != -5000 {
		t.Errorf("outcome sign of negative = %d", got.Cents)
	}
	if got := Income.Sign(amt.Neg()); got.Cents != 5000 {
		t.Errorf("income sign = %d", got.Cents)
	}
}

func TestWalletValidate(t *testing.T) {
	if err := (Wallet{Name: "Cash", Currency: "USD"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Wallet{Name: " ", Currency: "USD"}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := (Wallet{Name: "Cash", Currency: "???"}).Validate(); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Type: Outcome, Amount: MustAmount("-1"), Currency: "EUR"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zero := good
	zero.Amount = Money{}
	if err := zero.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	badType := good
	badType.Type = "refund"
	if err := badType.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRecurringRuleValidate(t *testing.T) {
	good := RecurringRule{Type: Outcome, Amount: MustAmount("100"), Description: "Rent", Currency: "USD", DayOfMonth: 15, Active: true}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for name, mutate := range map[string]func(*RecurringRule){
		"day zero":     func(r *RecurringRule) { r.DayOfMonth = 0 },
		"day 32":       func(r *RecurringRule) { r.DayOfMonth = 32 },
		"transfer":     func(r *RecurringRule) { r.Type = Transfer },
		"zero amount":  func(r *RecurringRule) { r.Amount = Money{} },
		"no desc":      func(r *RecurringRule) { r.Description = "" },
		"bad currency": func(r *RecurringRule) { r.Currency = "" },
	} {
		r := good
		mutate(&r)
		if err := r.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRecurringRuleDueOn(t *testing.T) {
	tests := []struct {
		name string
		rule RecurringRule
		day  Date
		want bool
	}{
		{
			name: "matching day",
			rule: RecurringRule{DayOfMonth: 15, Active: true},
			day:  NewDate(2025, 4, 15),
			want: true,
		},
		{
			name: "other day",
			rule: RecurringRule{DayOfMonth: 15, Active: true},
			day:  NewDate(2025, 4, 16),
			want: false,
		},
		{
			name: "inactive",
			rule: RecurringRule{DayOfMonth: 15},
			day:  NewDate(2025, 4, 15),
			want: false,
		},
		{
			name: "already applied today",
			rule: RecurringRule{DayOfMonth: 15, Active: true, LastAppliedOn: NewDate(2025, 4, 15)},
			day:  NewDate(2025, 4, 15),
			want: false,
		},
		{
			name: "applied last month",
			rule: RecurringRule{DayOfMonth: 15, Active: true, LastAppliedOn: NewDate(2025, 3, 15)},
			day:  NewDate(2025, 4, 15),
			want: true,
		},
		{
			name: "day 31 fires on 30th of April",
			rule: RecurringRule{DayOfMonth: 31, Active: true},
			day:  NewDate(2025, 4, 30),
			want: true,
		},
		{
			name: "day 30 fires on 28th of February",
			rule: RecurringRule{DayOfMonth: 30, Active: true},
			day:  NewDate(2025, 2, 28),
			want: true,
		},
		{
			name: "day 29 in leap February is the 29th",
			rule: RecurringRule{DayOfMonth: 29, Active: true},
			day:  NewDate(2024, 2, 28),
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.DueOn(tt.day); got != tt.want {
				t.Errorf("DueOn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	b := Budget{Amount: Money{}, Currency: "EUR", Month: 3, Year: 2025}
	if err := b.Validate(); err != nil {
		t.Fatalf("zero budget should be allowed: %v", err)
	}
	b.Month = 13
	if err := b.Validate(); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}
