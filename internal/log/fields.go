package log

// Field names shared by every structured log line.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldStep          = "step"
	FieldAccountID     = "account_id"
	FieldTransactionID = "transaction_id"
	FieldSpendingType  = "spending_type"
	FieldAmount        = "amount"
	FieldBalance       = "balance"
	FieldMessageID     = "message_id"
	FieldSheetsRef     = "sheets_ref"
)

const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
	ComponentCLI     = "cli"
)

const (
	OpCreate   = "create"
	OpRead     = "read"
	OpList     = "list"
	OpApply    = "apply"
	OpRefresh  = "refresh"
	OpMirror   = "mirror"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields builds the key/value pairs of a log line.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError records err's message. A nil err adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(kind string) LogFields {
	f[FieldErrorType] = kind
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the fields identifying a ledger write.
func (f LogFields) WithTransaction(accountID, transactionID int64, spendingType, amount string) LogFields {
	f[FieldAccountID] = accountID
	f[FieldTransactionID] = transactionID
	f[FieldSpendingType] = spendingType
	f[FieldAmount] = amount
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields for slog.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
