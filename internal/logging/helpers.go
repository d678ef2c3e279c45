package logging

// Package-level helpers so call sites read as logging.Engine(...)
// instead of logging.Get(logging.CategoryEngine).Info(...).

// Engine logs engine activity at info level.
func Engine(format string, args ...interface{}) {
	Get(CategoryEngine).Info(format, args...)
}

// EngineDebug logs engine activity at debug level.
func EngineDebug(format string, args ...interface{}) {
	Get(CategoryEngine).Debug(format, args...)
}

// Turns logs reducer/reconciler activity at info level.
func Turns(format string, args ...interface{}) {
	Get(CategoryTurns).Info(format, args...)
}

// TurnsDebug logs reducer/reconciler activity at debug level.
func TurnsDebug(format string, args ...interface{}) {
	Get(CategoryTurns).Debug(format, args...)
}

// Ledger logs legacy transcript activity at info level.
func Ledger(format string, args ...interface{}) {
	Get(CategoryLedger).Info(format, args...)
}

// History logs snapshot fetch activity at info level.
func History(format string, args ...interface{}) {
	Get(CategoryHistory).Info(format, args...)
}

// HistoryWarn logs snapshot fetch problems.
func HistoryWarn(format string, args ...interface{}) {
	Get(CategoryHistory).Warn(format, args...)
}

// Transport logs push channel activity at info level.
func Transport(format string, args ...interface{}) {
	Get(CategoryTransport).Info(format, args...)
}

// TransportWarn logs push channel problems.
func TransportWarn(format string, args ...interface{}) {
	Get(CategoryTransport).Warn(format, args...)
}

// Store logs turn cache activity at info level.
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs turn cache activity at debug level.
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}
