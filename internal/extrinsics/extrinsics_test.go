package extrinsics

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const tol = 1e-9

// rotZ returns a rotation of deg degrees about Z followed by translation t.
func rotZ(deg float64, t [3]float64) Transform {
	rad := deg * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	// column-major
	return Transform{
		Rotation:    [9]float64{c, s, 0, -s, c, 0, 0, 0, 1},
		Translation: t,
	}
}

func TestIdentity_Apply(t *testing.T) {
	x, y, z := Identity().Apply(1, 2, 3)
	if x != 1 || y != 2 || z != 3 {
		t.Errorf("Identity().Apply = (%v, %v, %v)", x, y, z)
	}
}

func TestApply_RotationAndTranslation(t *testing.T) {
	tr := rotZ(90, [3]float64{0.05, 0, 0})
	x, y, z := tr.Apply(1, 0, 0)
	if math.Abs(x-0.05) > tol || math.Abs(y-1) > tol || z != 0 {
		t.Errorf("Apply(1,0,0) = (%v, %v, %v), want (0.05, 1, 0)", x, y, z)
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	tr := rotZ(30, [3]float64{0.1, -0.2, 0.3})
	back, err := FromMatrix(tr.Matrix())
	if err != nil {
		t.Fatalf("FromMatrix: %v", err)
	}
	if !back.ApproxEqual(tr, tol) {
		t.Errorf("round trip changed transform: %+v vs %+v", back, tr)
	}
}

func TestFromMatrix_Rejects(t *testing.T) {
	if _, err := FromMatrix(mat.NewDense(3, 3, nil)); !errors.Is(err, ErrNotHomogeneous) {
		t.Errorf("3x3 matrix: err = %v, want ErrNotHomogeneous", err)
	}
	m := Identity().Matrix()
	m.Set(3, 0, 1)
	if _, err := FromMatrix(m); !errors.Is(err, ErrNotHomogeneous) {
		t.Errorf("bad last row: err = %v, want ErrNotHomogeneous", err)
	}
}

func TestThen_ComposesInOrder(t *testing.T) {
	a := rotZ(90, [3]float64{1, 0, 0})
	b := rotZ(0, [3]float64{0, 0, 2})

	x, y, z := a.Then(b).Apply(1, 0, 0)
	ax, ay, az := a.Apply(1, 0, 0)
	wx, wy, wz := b.Apply(ax, ay, az)

	if math.Abs(x-wx) > tol || math.Abs(y-wy) > tol || math.Abs(z-wz) > tol {
		t.Errorf("Then = (%v,%v,%v), want (%v,%v,%v)", x, y, z, wx, wy, wz)
	}
}

func TestInverse(t *testing.T) {
	tr := rotZ(45, [3]float64{0.015, 0.002, -0.001})
	inv, err := tr.Inverse()
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	if !tr.Then(inv).ApproxEqual(Identity(), 1e-9) {
		t.Errorf("t.Then(t⁻¹) is not identity: %+v", tr.Then(inv))
	}
}

func TestInverse_Singular(t *testing.T) {
	var zero Transform
	if _, err := zero.Inverse(); err == nil {
		t.Error("expected error inverting a singular transform")
	}
}

func TestIsRigid(t *testing.T) {
	if !rotZ(17, [3]float64{1, 2, 3}).IsRigid(1e-6) {
		t.Error("rotation should be rigid")
	}
	scaled := Identity()
	scaled.Rotation[0] = 2
	if scaled.IsRigid(1e-6) {
		t.Error("scaled matrix should not be rigid")
	}
}
