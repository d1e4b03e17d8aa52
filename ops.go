package matmul

import (
	"fmt"
	"math"
)

// Add performs element-wise addition into a fresh matrix: C = A + B.
func Add(a, b *Matrix) (*Matrix, error) {
	if err := validateSameShape(a, b); err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	return matAdd(a, b), nil
}

// Sub performs element-wise subtraction into a fresh matrix: C = A - B.
func Sub(a, b *Matrix) (*Matrix, error) {
	if err := validateSameShape(a, b); err != nil {
		return nil, fmt.Errorf("sub: %w", err)
	}
	return matSub(a, b), nil
}

// Scale multiplies all elements by a scalar.
func Scale(m *Matrix, scalar float64) *Matrix {
	result := NewMatrix(m.Rows, m.Cols)
	for i, v := range m.Data {
		result.Data[i] = v * scalar
	}
	return result
}

// Sum returns the sum of all elements.
func Sum(m *Matrix) float64 {
	sum := 0.0
	for _, v := range m.Data {
		sum += v
	}
	return sum
}

// Norm computes the Frobenius norm of the matrix.
func Norm(m *Matrix) float64 {
	sum := 0.0
	for _, v := range m.Data {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// matAdd adds two equally shaped matrices element-wise.
func matAdd(a, b *Matrix) *Matrix {
	result := NewMatrix(a.Rows, a.Cols)
	for i := range a.Data {
		result.Data[i] = a.Data[i] + b.Data[i]
	}
	return result
}

// matSub subtracts two equally shaped matrices element-wise.
func matSub(a, b *Matrix) *Matrix {
	result := NewMatrix(a.Rows, a.Cols)
	for i := range a.Data {
		result.Data[i] = a.Data[i] - b.Data[i]
	}
	return result
}

func validateSameShape(a, b *Matrix) error {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, a.Rows, a.Cols, b.Rows, b.Cols)
	}
	return nil
}

func validateMulShape(a, b *Matrix) error {
	if a.Rows < 0 || a.Cols < 0 || b.Rows < 0 || b.Cols < 0 {
		return fmt.Errorf("%w: negative dimension in A(%dx%d) × B(%dx%d)", ErrInvalidParameter, a.Rows, a.Cols, b.Rows, b.Cols)
	}
	if a.Cols != b.Rows {
		return fmt.Errorf("%w: A(%dx%d) × B(%dx%d)", ErrDimensionMismatch, a.Rows, a.Cols, b.Rows, b.Cols)
	}
	return nil
}
