// qp_test.go --  This file is part of goRISB project.
// The goRISB Authors, 2024
//
//	goRISB is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------
package risb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestHQP(t *testing.T) {
	R := mat.NewDense(2, 2, []float64{0.9, 0.1, 0.1, 0.8})
	lambda := mat.NewDense(2, 2, []float64{0.2, -0.05, -0.05, -0.1})
	h0k := []*mat.Dense{
		mat.NewDense(2, 2, []float64{-1, 0.3, 0.3, 0.5}),
		mat.NewDense(2, 2, []float64{2, 0, 0, -2}),
	}
	eig, vec, err := HQP(R, lambda, h0k)
	require.NoError(t, err)
	require.Len(t, vec, 2)
	r, c := eig.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)

	for k, h0 := range h0k {
		var h mat.Dense
		h.Mul(R, h0)
		h.Mul(&h, R.T())
		h.Add(&h, lambda)

		assert.LessOrEqual(t, eig.At(k, 0), eig.At(k, 1), "ascending")
		// h v_n = e_n v_n
		for n := 0; n < 2; n++ {
			v := vec[k].ColView(n)
			var hv mat.VecDense
			hv.MulVec(&h, v)
			for i := 0; i < 2; i++ {
				assert.InDelta(t, eig.At(k, n)*v.AtVec(i), hv.AtVec(i), 1e-12)
			}
		}
	}

	_, _, err = HQP(R, lambda, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestRhoQPAndKineticEnergy(t *testing.T) {
	vec := []*mat.Dense{identity(2), identity(2)}
	wks := mat.NewDense(2, 2, []float64{0.5, 0, 0.25, 0.1})
	rho := RhoQP(vec, wks)
	assert.True(t, mat.EqualApprox(mat.NewDense(2, 2, []float64{0.75, 0, 0, 0.1}), rho, 1e-15))

	R := identity(2)
	h0k := []*mat.Dense{
		mat.NewDense(2, 2, []float64{-1, 0, 0, 1}),
		mat.NewDense(2, 2, []float64{-2, 0, 0, 2}),
	}
	ke := KineticEnergy(H0R(R, h0k, vec), vec, wks)
	// sum_k h0_k diag(w_k)
	assert.True(t, mat.EqualApprox(mat.NewDense(2, 2, []float64{-1, 0, 0, 0.2}), ke, 1e-15))
}

// TestHybridizationD_Scalar is ke / sqrt(rho(1-rho)).
func TestHybridizationD_Scalar(t *testing.T) {
	D, err := HybridizationD(mat.NewDense(1, 1, []float64{0.19618454}), mat.NewDense(1, 1, []float64{-0.13447044}))
	require.NoError(t, err)
	assert.InDelta(t, -0.33862284815908383, D.At(0, 0), 1e-12)

	_, err = HybridizationD(mat.NewDense(1, 1, []float64{1}), mat.NewDense(1, 1, []float64{-0.1}))
	assert.ErrorIs(t, err, ErrSingular, "a filled level has no hybridization")
}

func TestLambdaC_Scalar(t *testing.T) {
	lc, err := LambdaC(
		mat.NewDense(1, 1, []float64{0.19618454}),
		identity(1),
		mat.NewDense(1, 1, []float64{0.5}),
		mat.NewDense(1, 1, []float64{-0.33862285}),
	)
	require.NoError(t, err)
	assert.InDelta(t, 0.018138135818154377, lc.At(0, 0), 1e-12)
}

// TestLambdaFromEmbedding_InvertsLambdaC evaluates both maps on the same density.
func TestLambdaFromEmbedding_InvertsLambdaC(t *testing.T) {
	rho := mat.NewDense(2, 2, []float64{0.4, 0.1, 0.1, 0.3})
	R := mat.NewDense(2, 2, []float64{0.8, 0.05, 0.02, 0.7})
	lambda := mat.NewDense(2, 2, []float64{0.3, -0.1, -0.1, 0.2})
	D := mat.NewDense(2, 2, []float64{-0.3, 0.01, 0.02, -0.25})

	lc, err := LambdaC(rho, R, lambda, D)
	require.NoError(t, err)
	back, err := LambdaFromEmbedding(R, D, lc, rho)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(lambda, back, 1e-12))
}

// TestRFromEmbedding_ZeroesF1 checks that the new R solves the first root equation.
func TestRFromEmbedding_ZeroesF1(t *testing.T) {
	rhoF := mat.NewDense(2, 2, []float64{0.5, -0.1999913941210893, -0.1999913941210893, 0.5})
	rhoCF := mat.NewDense(2, 2, []float64{0.42326519677453511, 0.01, -0.02, 0.42326519677453511})

	R, err := RFromEmbedding(rhoCF, rhoF)
	require.NoError(t, err)
	f1, err := F1(rhoCF, rhoF, R)
	require.NoError(t, err)
	assert.InDelta(t, 0, mat.Norm(f1, 2), 1e-12)

	// one-band atom
	R, err = RFromEmbedding(mat.NewDense(1, 1, []float64{0.4681588161332029}), mat.NewDense(1, 1, []float64{0.5}))
	require.NoError(t, err)
	assert.InDelta(t, 2*0.4681588161332029, R.At(0, 0), 1e-14)
}

func TestF2(t *testing.T) {
	rhoF := mat.NewDense(2, 2, []float64{0.5, 0.1, 0.1, 0.4})
	rhoQP := mat.NewDense(2, 2, []float64{0.45, 0.2, 0.0, 0.4})
	f2 := F2(rhoF, rhoQP)
	assert.True(t, mat.EqualApprox(mat.NewDense(2, 2, []float64{0.05, 0.1, -0.1, 0}), f2, 1e-15))
}

func TestMatrixFunctions(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{2, 1, 1, 2})
	sq, err := MatrixSqrt(a)
	require.NoError(t, err)
	var back mat.Dense
	back.Mul(sq, sq)
	assert.True(t, mat.EqualApprox(a, &back, 1e-12))

	inv, err := MatrixSqrtInverse(a)
	require.NoError(t, err)
	back.Mul(inv, sq)
	assert.True(t, mat.EqualApprox(identity(2), &back, 1e-12))

	// tiny negative eigenvalues from round-off are clipped
	sq, err = MatrixSqrt(mat.NewDense(2, 2, []float64{-1e-14, 0, 0, 4}))
	require.NoError(t, err)
	assert.InDelta(t, 0, sq.At(0, 0), 1e-15)
	assert.InDelta(t, 2, sq.At(1, 1), 1e-14)

	_, err = MatrixSqrt(mat.NewDense(1, 1, []float64{-1}))
	assert.ErrorIs(t, err, ErrSingular)
	_, err = MatrixSqrtInverse(mat.NewDense(2, 2, []float64{1, 2, 2, 1}))
	assert.ErrorIs(t, err, ErrSingular)
	_, err = MatrixFunc(mat.NewDense(1, 2, nil), math.Sqrt)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
