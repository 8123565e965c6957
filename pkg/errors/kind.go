package errors

import "errors"

// Kind groups error codes into the four failure classes surfaced to callers.
type Kind string

const (
	KindUnknown     Kind = "unknown"
	KindValidation  Kind = "validation"
	KindDataQuality Kind = "data_quality"
	KindComputation Kind = "computation"
	KindSimulation  Kind = "simulation"
)

// Kind returns the failure class of the error code.
func (c ErrorCode) Kind() Kind {
	switch {
	case c >= 100 && c < 200, c >= 400 && c < 500:
		return KindValidation
	case c >= 200 && c < 300:
		return KindDataQuality
	case c >= 300 && c < 400:
		return KindComputation
	case c >= 600 && c < 700:
		return KindSimulation
	default:
		return KindUnknown
	}
}

// KindOf returns the failure class of err.
// InsufficientDataError and ComputationError are classified without a code lookup.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var insufficient *InsufficientDataError
	if errors.As(err, &insufficient) {
		return KindDataQuality
	}

	var computation *ComputationError
	if errors.As(err, &computation) {
		return KindComputation
	}

	return GetCode(err).Kind()
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

func IsDataQuality(err error) bool {
	return KindOf(err) == KindDataQuality
}

func IsComputation(err error) bool {
	return KindOf(err) == KindComputation
}

func IsSimulation(err error) bool {
	return KindOf(err) == KindSimulation
}
