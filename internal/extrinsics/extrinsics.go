// Package extrinsics holds the rigid transform between two streams and the
// contract of the calibration graph that stores them.
//
// The graph itself (pairwise calibrated edges and path composition) lives
// outside this module; devices only query it through Graph.
package extrinsics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/devsync/internal/stream"
)

// ErrNotHomogeneous is returned when a matrix is not a 4x4 rigid transform.
var ErrNotHomogeneous = errors.New("matrix is not a 4x4 homogeneous transform")

// Graph resolves the transform from one stream's frame to another's.
type Graph interface {
	// TryFetchExtrinsics returns the transform taking points in from's
	// coordinate frame into to's, or false when no calibrated path exists.
	TryFetchExtrinsics(from, to stream.Stream) (Transform, bool)
}

// Transform is a rigid transform. Rotation is a 3x3 matrix stored
// column-major and Translation is in meters.
type Transform struct {
	Rotation    [9]float64
	Translation [3]float64
}

// Identity returns the transform that leaves points unchanged.
func Identity() Transform {
	return Transform{Rotation: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// at returns rotation element (row, col).
func (t Transform) at(row, col int) float64 {
	return t.Rotation[col*3+row]
}

// Apply maps a point through the transform.
func (t Transform) Apply(x, y, z float64) (float64, float64, float64) {
	return t.at(0, 0)*x + t.at(0, 1)*y + t.at(0, 2)*z + t.Translation[0],
		t.at(1, 0)*x + t.at(1, 1)*y + t.at(1, 2)*z + t.Translation[1],
		t.at(2, 0)*x + t.at(2, 1)*y + t.at(2, 2)*z + t.Translation[2]
}

// Matrix returns the transform as a 4x4 homogeneous matrix.
func (t Transform) Matrix() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, t.at(r, c))
		}
		m.Set(r, 3, t.Translation[r])
	}
	m.Set(3, 3, 1)
	return m
}

// FromMatrix converts a 4x4 homogeneous matrix into a Transform.
func FromMatrix(m mat.Matrix) (Transform, error) {
	rows, cols := m.Dims()
	if rows != 4 || cols != 4 {
		return Transform{}, fmt.Errorf("%w: got %dx%d", ErrNotHomogeneous, rows, cols)
	}
	if m.At(3, 0) != 0 || m.At(3, 1) != 0 || m.At(3, 2) != 0 || math.Abs(m.At(3, 3)-1) > 1e-9 {
		return Transform{}, fmt.Errorf("%w: last row is not [0 0 0 1]", ErrNotHomogeneous)
	}
	var t Transform
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			t.Rotation[c*3+r] = m.At(r, c)
		}
		t.Translation[r] = m.At(r, 3)
	}
	return t, nil
}

// Then returns the transform that applies t first and next second.
func (t Transform) Then(next Transform) Transform {
	var product mat.Dense
	product.Mul(next.Matrix(), t.Matrix())
	out, err := FromMatrix(&product)
	if err != nil {
		// Products of homogeneous matrices keep the [0 0 0 1] row.
		panic(err)
	}
	return out
}

// Inverse returns the transform that undoes t.
func (t Transform) Inverse() (Transform, error) {
	var inv mat.Dense
	if err := inv.Inverse(t.Matrix()); err != nil {
		return Transform{}, fmt.Errorf("invert transform: %w", err)
	}
	return FromMatrix(&inv)
}

// IsRigid reports whether the rotation part is orthonormal with
// determinant 1, within tol.
func (t Transform) IsRigid(tol float64) bool {
	r := mat.NewDense(3, 3, nil)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			r.Set(row, col, t.at(row, col))
		}
	}
	if math.Abs(mat.Det(r)-1) > tol {
		return false
	}
	var rtr mat.Dense
	rtr.Mul(r.T(), r)
	eye := mat.NewDiagDense(3, []float64{1, 1, 1})
	return mat.EqualApprox(&rtr, eye, tol)
}

// ApproxEqual reports whether every element of t and o differs by at most tol.
func (t Transform) ApproxEqual(o Transform, tol float64) bool {
	return mat.EqualApprox(t.Matrix(), o.Matrix(), tol)
}
