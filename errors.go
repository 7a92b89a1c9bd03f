package reduce

import "errors"

// Launch precondition errors. They are detected before anything runs.
var (
	// ErrInvalidGroupSize indicates a group size that is zero or negative.
	ErrInvalidGroupSize = errors.New("reduce: group size must be positive")

	// ErrRaggedInput indicates an input length that is not a multiple of the
	// group size. Use WithZeroPadding to pad the final group instead.
	ErrRaggedInput = errors.New("reduce: input length is not a multiple of the group size")

	// ErrNilCell indicates Launch was given no global accumulator.
	ErrNilCell = errors.New("reduce: global accumulator must not be nil")
)
