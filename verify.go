package matmul

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// OracleName labels discrepancies against the gonum reference product.
const OracleName = "gonum mat.Dense.Mul"

// GonumMultiply computes A × B with gonum as an implementation independent
// of every kernel in this package.
func GonumMultiply(a, b *Matrix) (*Matrix, error) {
	if err := validateMulShape(a, b); err != nil {
		return nil, fmt.Errorf("gonum: %w", err)
	}
	// gonum rejects zero-length dimensions; the product is all zeros anyway.
	if a.Rows == 0 || a.Cols == 0 || b.Cols == 0 {
		return NewMatrix(a.Rows, b.Cols), nil
	}

	var c mat.Dense
	c.Mul(mat.NewDense(a.Rows, a.Cols, a.Data), mat.NewDense(b.Rows, b.Cols, b.Data))
	return NewMatrixFromFlat(c.RawMatrix().Data, a.Rows, b.Cols), nil
}

// CrossValidate multiplies a and b with every kernel and reports each one
// whose result differs from MultiplyNaive by more than tolerance. The naive
// result itself is checked against GonumMultiply. Strassen is run padded when
// the operands are not square.
func CrossValidate(ctx context.Context, a, b *Matrix, tolerance float64, opts ...Option) ([]Discrepancy, error) {
	reference, err := MultiplyNaive(a, b)
	if err != nil {
		return nil, err
	}

	var discrepancies []Discrepancy
	check := func(name string, got *Matrix) {
		if !got.Equal(reference, tolerance) {
			discrepancies = append(discrepancies, Discrepancy{
				Name:       name,
				MaxAbsDiff: got.MaxAbsDiff(reference),
				Tolerance:  tolerance,
			})
		}
	}

	oracle, err := GonumMultiply(a, b)
	if err != nil {
		return nil, err
	}
	check(OracleName, oracle)

	for _, kernel := range AllKernels()[1:] {
		var got *Matrix
		if kernel == StrassenKernel && (!a.IsSquare() || !b.IsSquare()) {
			got, err = StrassenPadded(a, b)
		} else {
			got, err = Multiply(ctx, a, b, kernel, opts...)
		}
		if err != nil {
			return nil, fmt.Errorf("cross-validate %s: %w", kernel, err)
		}
		check(kernel.String(), got)
	}
	return discrepancies, nil
}
