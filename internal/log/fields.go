package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldMethod      = "method"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldPeriod      = "period"
	FieldAmount      = "amount"
	FieldBalance     = "balance"
	FieldSavings     = "savings_balance"
	FieldTransaction = "transaction_id"
	FieldBackend     = "backend"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentGRPC       = "grpc"
	ComponentLedger     = "ledger"
	ComponentSettlement = "settlement"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
)

// Operations defines standard operation names
const (
	OpClose    = "close"
	OpReopen   = "reopen"
	OpRescue   = "rescue"
	OpAdjust   = "adjust"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpMigrate  = "migrate"
	OpPublish  = "publish"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithPeriod(period string) LogFields {
	f[FieldPeriod] = period
	return f
}

// WithAmount stores amounts as decimal strings so no precision is lost in JSON output
func (f LogFields) WithAmount(amount string) LogFields {
	f[FieldAmount] = amount
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}
