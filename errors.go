package matmul

import "errors"

// Every sentinel is prefixed with "matmul: ". Call sites add context with
// fmt.Errorf("ctx: %w", ErrX); callers match with errors.Is.
var (
	// ErrDimensionMismatch is returned when operand shapes are incompatible,
	// e.g. A.Cols != B.Rows, or Strassen receives a non-square operand.
	ErrDimensionMismatch = errors.New("matmul: dimension mismatch")

	// ErrInvalidParameter is returned for non-positive sizes, block sizes,
	// iteration counts, or malformed sweep parameters.
	ErrInvalidParameter = errors.New("matmul: invalid parameter")

	// ErrOutOfRange is the value carried by the panic raised from At and Set
	// when an index lies outside the matrix shape.
	ErrOutOfRange = errors.New("matmul: index out of range")
)
