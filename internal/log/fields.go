package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldUserID      = "user_id"
	FieldWalletID    = "wallet_id"
	FieldTxID        = "transaction_id"
	FieldHoldID      = "hold_id"
	FieldRuleID      = "rule_id"
	FieldAmountCents = "amount_cents"
	FieldCurrency    = "currency"
	FieldFrom        = "from_currency"
	FieldTo          = "to_currency"
	FieldCategory    = "category"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldAttempt     = "attempt"
	FieldJob         = "job"
	FieldEventType   = "event_type"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentLedger    = "ledger"
	ComponentHolds     = "holds"
	ComponentStorage   = "storage"
	ComponentCurrency  = "currency"
	ComponentScheduler = "scheduler"
	ComponentBudget    = "budget"
	ComponentAMQP      = "amqp"
	ComponentSheets    = "sheets"
	ComponentWorker    = "worker"
	ComponentCLI       = "cli"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRecord   = "record"
	OpDelete   = "delete"
	OpTransfer = "transfer"
	OpResolve  = "resolve"
	OpConvert  = "convert"
	OpApply    = "apply"
	OpReport   = "report"
	OpExport   = "export"
	OpPublish  = "publish"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithUser adds the owning user
func (f LogFields) WithUser(userID int64) LogFields {
	f[FieldUserID] = userID
	return f
}

// WithAmount adds amount and currency fields
func (f LogFields) WithAmount(cents int64, currency string) LogFields {
	f[FieldAmountCents] = cents
	f[FieldCurrency] = currency
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
