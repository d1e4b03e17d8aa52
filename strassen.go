package matmul

import (
	"fmt"
	"math/bits"
)

// StrassenThreshold is the size at or below which Strassen falls back to
// MultiplyNaive. The recursion overhead dominates for small matrices.
const StrassenThreshold = 64

// Strassen implements Strassen's algorithm for matrix multiplication.
// Time complexity: O(n^2.807) instead of O(n^3).
//
// Both operands must be square with A.Cols == B.Rows. When n <= StrassenThreshold
// or n is not a power of two the result is exactly MultiplyNaive(a, b).
//
// The algorithm uses 7 multiplications instead of 8 for 2x2 blocks:
//
// For A = [A11 A12; A21 A22] and B = [B11 B12; B21 B22]:
//
//	M1 = (A11 + A22)(B11 + B22)
//	M2 = (A21 + A22)B11
//	M3 = A11(B12 - B22)
//	M4 = A22(B21 - B11)
//	M5 = (A11 + A12)B22
//	M6 = (A21 - A11)(B11 + B12)
//	M7 = (A12 - A22)(B21 + B22)
//
//	C11 = M1 + M4 - M5 + M7
//	C12 = M3 + M5
//	C21 = M2 + M4
//	C22 = M1 - M2 + M3 + M6
//
// Additions are reordered relative to the naive kernel, so results agree
// only within floating-point tolerance.
func Strassen(a, b *Matrix) (*Matrix, error) {
	if err := validateMulShape(a, b); err != nil {
		return nil, fmt.Errorf("strassen: %w", err)
	}
	if !a.IsSquare() || !b.IsSquare() {
		return nil, fmt.Errorf("strassen: %w: requires square operands, got A(%dx%d) B(%dx%d)",
			ErrDimensionMismatch, a.Rows, a.Cols, b.Rows, b.Cols)
	}
	return strassenRecursive(a, b), nil
}

// StrassenPadded multiplies arbitrary compatible matrices by zero-padding both
// operands to the next power of two, running Strassen, and extracting the
// top-left M×N block.
func StrassenPadded(a, b *Matrix) (*Matrix, error) {
	if err := validateMulShape(a, b); err != nil {
		return nil, fmt.Errorf("strassen padded: %w", err)
	}

	n := nextPowerOf2(max(a.Rows, a.Cols, b.Cols))
	cPadded := strassenRecursive(padMatrix(a, n), padMatrix(b, n))
	return extractSubmatrix(cPadded, a.Rows, b.Cols), nil
}

// strassenRecursive assumes a and b are square and equally sized.
func strassenRecursive(a, b *Matrix) *Matrix {
	n := a.Rows

	if n <= StrassenThreshold || !isPowerOf2(n) {
		c := NewMatrix(n, n)
		naiveRows(a, b, c.Data, 0, n)
		return c
	}

	half := n / 2
	a11, a12, a21, a22 := splitQuadrants(a, half)
	b11, b12, b21, b22 := splitQuadrants(b, half)

	m1 := strassenRecursive(matAdd(a11, a22), matAdd(b11, b22))
	m2 := strassenRecursive(matAdd(a21, a22), b11)
	m3 := strassenRecursive(a11, matSub(b12, b22))
	m4 := strassenRecursive(a22, matSub(b21, b11))
	m5 := strassenRecursive(matAdd(a11, a12), b22)
	m6 := strassenRecursive(matSub(a21, a11), matAdd(b11, b12))
	m7 := strassenRecursive(matSub(a12, a22), matAdd(b21, b22))

	c11 := matAdd(matSub(matAdd(m1, m4), m5), m7)
	c12 := matAdd(m3, m5)
	c21 := matAdd(m2, m4)
	c22 := matAdd(matSub(matAdd(m1, m3), m2), m6)

	return combineQuadrants(c11, c12, c21, c22)
}

// splitQuadrants copies the four half×half quadrants of m into fresh matrices.
func splitQuadrants(m *Matrix, half int) (q11, q12, q21, q22 *Matrix) {
	return getSubmatrix(m, 0, 0, half),
		getSubmatrix(m, 0, half, half),
		getSubmatrix(m, half, 0, half),
		getSubmatrix(m, half, half, half)
}

// getSubmatrix extracts a square submatrix of given size starting at (rowStart, colStart).
func getSubmatrix(m *Matrix, rowStart, colStart, size int) *Matrix {
	result := NewMatrix(size, size)
	for i := 0; i < size; i++ {
		src := (rowStart+i)*m.Cols + colStart
		copy(result.Data[i*size:(i+1)*size], m.Data[src:src+size])
	}
	return result
}

// padMatrix pads a matrix to n×n with zeros.
func padMatrix(m *Matrix, n int) *Matrix {
	if m.Rows == n && m.Cols == n {
		return m.Clone()
	}
	result := NewMatrix(n, n)
	for i := 0; i < m.Rows; i++ {
		copy(result.Data[i*n:i*n+m.Cols], m.Data[i*m.Cols:(i+1)*m.Cols])
	}
	return result
}

// extractSubmatrix extracts a submatrix of specified dimensions from the top-left corner.
func extractSubmatrix(m *Matrix, rows, cols int) *Matrix {
	result := NewMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		copy(result.Data[i*cols:(i+1)*cols], m.Data[i*m.Cols:i*m.Cols+cols])
	}
	return result
}

// combineQuadrants combines four quadrants into a single matrix.
func combineQuadrants(c11, c12, c21, c22 *Matrix) *Matrix {
	half := c11.Rows
	n := half * 2
	result := NewMatrix(n, n)

	for i := 0; i < half; i++ {
		copy(result.Data[i*n:i*n+half], c11.Data[i*half:(i+1)*half])
		copy(result.Data[i*n+half:(i+1)*n], c12.Data[i*half:(i+1)*half])
		copy(result.Data[(i+half)*n:(i+half)*n+half], c21.Data[i*half:(i+1)*half])
		copy(result.Data[(i+half)*n+half:(i+half+1)*n], c22.Data[i*half:(i+1)*half])
	}
	return result
}

func isPowerOf2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// nextPowerOf2 returns the smallest power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
