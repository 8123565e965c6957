package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidPeriod        ErrorCode = 102
	ErrCodeInvalidKind          ErrorCode = 103
	ErrCodeInvalidSource        ErrorCode = 104
	ErrCodeInvalidThreshold     ErrorCode = 105
	ErrCodeInvalidWeights       ErrorCode = 106
	ErrCodeInvalidRule          ErrorCode = 107
	ErrCodeMismatchedIndex      ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110
	ErrCodeEmptyInput           ErrorCode = 111
	ErrCodeInvalidStopLoss      ErrorCode = 112
	ErrCodeInvalidTakeProfit    ErrorCode = 113
	ErrCodeDuplicateSymbol      ErrorCode = 114

	// Data quality errors (200-299)
	ErrCodeDataNotFound      ErrorCode = 200
	ErrCodeMissingColumn     ErrorCode = 201
	ErrCodeNonFiniteValue    ErrorCode = 202
	ErrCodeInsufficientData  ErrorCode = 203
	ErrCodeUnorderedDates    ErrorCode = 204
	ErrCodeInvalidBar        ErrorCode = 205
	ErrCodeQueryFailed       ErrorCode = 206
	ErrCodeDataParseFailed   ErrorCode = 207
	ErrCodeEmptyEquityCurve  ErrorCode = 208
	ErrCodeDataSourceFailure ErrorCode = 209

	// Computation errors (300-399)
	ErrCodeIndicatorNotFound    ErrorCode = 300
	ErrCodeIndicatorCalculation ErrorCode = 301
	ErrCodeNonFiniteResult      ErrorCode = 302
	ErrCodeMetricCalculation    ErrorCode = 303

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError  ErrorCode = 400
	ErrCodeUnsupportedStrategy  ErrorCode = 401
	ErrCodeStrategyRuntimeError ErrorCode = 402

	// Simulation errors (600-699)
	ErrCodeBacktestStateNil     ErrorCode = 600
	ErrCodeUnfundableOrder      ErrorCode = 601
	ErrCodeInsufficientCash     ErrorCode = 602
	ErrCodePositionCapExceeded  ErrorCode = 603
	ErrCodeInvalidTransition    ErrorCode = 604
	ErrCodeLedgerMismatch       ErrorCode = 605
	ErrCodeBacktestNoStrategies ErrorCode = 606
	ErrCodeBacktestNoSeries     ErrorCode = 607
	ErrCodeBacktestNoResultsDir ErrorCode = 608
	ErrCodeBacktestWriteFailed  ErrorCode = 609

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800
)
