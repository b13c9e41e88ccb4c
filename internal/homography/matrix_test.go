package homography

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }
func inf() float64 { return math.Inf(1) }

func TestMatrix4_ColumnMajorLayout(t *testing.T) {
	var v [16]float64
	for i := range v {
		v[i] = float64(i)
	}
	m := FromRowMajor(v)

	assert.InDelta(t, 6.0, m.At(1, 2), 0)
	assert.InDelta(t, 6.0, m[2*4+1], 0)
	assert.InDelta(t, 3.0, m.At(0, 3), 0)
	assert.Equal(t, v, m.RowMajor())
	assert.Equal(t, FromRowMajor(v), m.Transpose().Transpose())
	assert.InDelta(t, m.At(1, 2), m.Transpose().At(2, 1), 0)

	m.Set(3, 0, -1)
	assert.InDelta(t, -1.0, m[3], 0)
}

func TestMatrix4_H3RoundTrip(t *testing.T) {
	h := [9]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	assert.Equal(t, h, FromH3(h).H3())
}

func TestMatrix4_Mul(t *testing.T) {
	a := FromH3([9]float64{2, 0, 1, 0, 3, 2, 0, 0, 1})
	assert.Equal(t, a, a.Mul(Identity()))
	assert.Equal(t, a, Identity().Mul(a))

	sq := a.Mul(a)
	// Scale then translate twice: x' = 4x + 3, y' = 9y + 8.
	x, y, _, w := sq.MulVec4(1, 1, 0, 1)
	assert.InDelta(t, 7.0, x/w, 1e-15)
	assert.InDelta(t, 17.0, y/w, 1e-15)
}

func TestMatrix4_Determinant(t *testing.T) {
	assert.InDelta(t, 1.0, Identity().Determinant(), 0)
	assert.InDelta(t, 6.0, FromH3([9]float64{2, 0, 5, 0, 3, -1, 0, 0, 1}).Determinant(), 1e-12)
	assert.InDelta(t, 0.0, Matrix4{}.Determinant(), 0)
}

func TestMatrix4_Inverse(t *testing.T) {
	m, err := Estimate(square100, skewed)
	require.NoError(t, err)

	inv, err := m.Inverse()
	require.NoError(t, err)
	assert.True(t, m.Mul(inv).ApproxEqual(Identity(), 1e-12))
	assert.True(t, inv.Mul(m).ApproxEqual(Identity(), 1e-12))
	assert.InDelta(t, 1.0, m.Determinant()*inv.Determinant(), 1e-9)
}

func TestMatrix4_InverseSingular(t *testing.T) {
	_, err := Matrix4{}.Inverse()
	assert.ErrorIs(t, err, ErrSingular)

	bad := Identity()
	bad[5] = nan()
	_, err = bad.Inverse()
	assert.ErrorIs(t, err, ErrSingular)
}

func TestMatrix4_Normalized(t *testing.T) {
	m := FromH3([9]float64{2, 0, 4, 0, 2, 6, 0, 0, 2})
	n := m.Normalized()
	assert.Equal(t, FromH3([9]float64{1, 0, 2, 0, 1, 3, 0, 0, 1}), n)

	var zero Matrix4
	assert.Equal(t, zero, zero.Normalized())
}

func TestMatrix4_IsFinite(t *testing.T) {
	assert.True(t, Identity().IsFinite())
	m := Identity()
	m[15] = inf()
	assert.False(t, m.IsFinite())
}

func TestMatrix4_String(t *testing.T) {
	assert.Equal(t, "[1 0 0 0]\n[0 1 0 0]\n[0 0 1 0]\n[0 0 0 1]", Identity().String())
}
