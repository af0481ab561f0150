package log

import "context"

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogTransactionChanged logs a committed create or update
func (sl *StructuredLogger) LogTransactionChanged(ctx context.Context, op, id, desc string, amountCents int64, category, date string) {
	fields := NewFields().
		WithTransaction(id, desc, amountCents, category, date).
		WithOperation(op)

	sl.logger.InfoContext(ctx, "Transaction saved", fields.ToSlice()...)
}

// LogBulk logs a committed bulk operation (import, replace, clear)
func (sl *StructuredLogger) LogBulk(ctx context.Context, op string, count int) {
	fields := NewFields().
		WithOperation(op).
		WithCount(count)

	sl.logger.InfoContext(ctx, bulkMessage(op), fields.ToSlice()...)
}

func bulkMessage(op string) string {
	switch op {
	case OpImport:
		return "Transactions imported"
	case OpReplace:
		return "Transactions replaced"
	case OpClear:
		return "Transactions cleared"
	default:
		return "Bulk change committed"
	}
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, errorType string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithErrorType(errorType).
		WithOperation(operation)

	sl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}

// LogWarn logs a recoverable problem with structured context
func (sl *StructuredLogger) LogWarn(ctx context.Context, msg string, err error, operation string) {
	fields := NewFields().
		WithError(err).
		WithOperation(operation)

	sl.logger.WarnContext(ctx, msg, fields.ToSlice()...)
}
