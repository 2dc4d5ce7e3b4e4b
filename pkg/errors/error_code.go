package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidQuantity      ErrorCode = 102
	ErrCodeInvalidPrice         ErrorCode = 103
	ErrCodeInvalidTradeRecord   ErrorCode = 104
	ErrCodeMissingParameter     ErrorCode = 105

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 203

	// Strategy errors (300-399)
	ErrCodeStrategyNotImplemented ErrorCode = 300
	ErrCodeStrategyConfigError    ErrorCode = 301
	ErrCodeStrategyRuntimeError   ErrorCode = 302

	// Trading errors (400-499)
	ErrCodeInsufficientFunds    ErrorCode = 400
	ErrCodeInsufficientPosition ErrorCode = 401
	ErrCodeExecutionFailed      ErrorCode = 402
	ErrCodePositionNotFound     ErrorCode = 403

	// Backtest errors (500-599)
	ErrCodeBacktestStateNil      ErrorCode = 500
	ErrCodeBacktestInitFailed    ErrorCode = 501
	ErrCodeBacktestConfigError   ErrorCode = 502
	ErrCodeBacktestNoStrategies  ErrorCode = 503
	ErrCodeBacktestNoDatasource  ErrorCode = 504
	ErrCodeBacktestNoResultsDir  ErrorCode = 505
)
