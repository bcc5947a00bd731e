package usecase

import "errors"

var (
	// ErrNoData is returned when no price history is stored for a ticker.
	ErrNoData = errors.New("no price data")
	// ErrInsufficientHistory is returned when history is too short for the operation.
	ErrInsufficientHistory = errors.New("insufficient price history")
	// ErrNoEvaluation is returned when a ticker has never been evaluated.
	ErrNoEvaluation = errors.New("no evaluation stored")
	// ErrStaleEvaluation is returned when the latest evaluation is older than the allowed age.
	ErrStaleEvaluation = errors.New("evaluation is stale")
)
