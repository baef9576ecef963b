package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldID          = "id"
	FieldDate        = "date"
	FieldCategory    = "category"
	FieldPolicy      = "policy"
	FieldDescription = "description"
	FieldAmountCents = "amount_cents"
	FieldReport      = "report"
	FieldRows        = "rows"
	FieldBackend     = "backend"
	FieldDBPath      = "db_path"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentSession = "session"
	ComponentStorage = "storage"
	ComponentBackend = "backend"
	ComponentConfig  = "config"
)

// Operations defines standard operation names
const (
	OpAddExpense  = "add_expense"
	OpAddIncome   = "add_income"
	OpUndoExpense = "undo_expense"
	OpUndoIncome  = "undo_income"
	OpReport      = "report"
	OpAdmin       = "admin"
	OpStartup     = "startup"
	OpShutdown    = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeParse      = "parse_error"
	ErrorTypeValidation = "validation_error"
	ErrorTypeNotFound   = "not_found_error"
	ErrorTypeStorage    = "storage_error"
	ErrorTypeInternal   = "internal_error"
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

// WithErrorType adds the error category field
func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(category, policy string, amountCents int64) LogFields {
	f[FieldCategory] = category
	f[FieldPolicy] = policy
	f[FieldAmountCents] = amountCents
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
