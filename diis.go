// diis.go --  This file is part of goRISB project.
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

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DIIS is Pulay's direct inversion in the iterative subspace applied to the
// fixed-point map. The coefficients c minimize |sum c_i e_i| with sum c_i = 1
// and the new guess is sum c_i (x_i + alpha*e_i).
// With fewer than two stored pairs, or when every subspace is singular, it
// falls back to linear mixing.
type DIIS struct {
	MaxSize int // pairs used from the history; 0 uses all of them
}

func (d DIIS) UpdateX(s Subspace, alpha float64) (Blocks, error) {
	limit := 0
	if d.MaxSize > 0 {
		limit = d.MaxSize + 1
	}
	x, e, err := LoadHistory(s.XHist, s.ErrorHist, limit)
	if err != nil {
		return nil, err
	}

	// pairs are aligned from the most recent entry
	m := len(e)
	if len(x) < m {
		m = len(x)
	}
	for ; m >= 2; m-- {
		coefs, ok := diisCoefficients(e[:m])
		if !ok {
			continue
		}
		result := s.X.Scale(0)
		for i := 0; i < m; i++ {
			result = result.AddScaled(coefs[i], x[i].AddScaled(alpha, e[i]))
		}
		return result, nil
	}
	return LinearMixing{}.UpdateX(s, alpha)
}

// buildB is the bordered overlap matrix of the residuals,
// see https://github.com/psi4/psi4numpy/blob/master/Tutorials/03_Hartree-Fock/3b_rhf-diis.ipynb
func buildB(e History) *mat.Dense {
	dim := len(e) + 1
	result := mat.NewDense(dim, dim, nil)

	for i := 0; i < dim-1; i++ {
		result.Set(i, dim-1, -1)
		result.Set(dim-1, i, -1)
	}

	for i := range e {
		for j := 0; j <= i; j++ {
			b := e[i].Dot(e[j])
			result.Set(i, j, b)
			result.Set(j, i, b)
		}
	}
	return result
}

func diisCoefficients(e History) ([]float64, bool) {
	bmat := buildB(e)
	dim, _ := bmat.Dims()

	rhs := mat.NewVecDense(dim, nil)
	rhs.SetVec(dim-1, -1)

	var lu mat.LU
	lu.Factorize(bmat)
	var coefs mat.VecDense
	if err := lu.SolveVecTo(&coefs, false, rhs); err != nil {
		// close to convergence the residuals are tiny and B is badly
		// conditioned, the solution is still usable. An infinite condition
		// number means B is singular and coefs was never filled.
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 0) || math.IsNaN(float64(cond)) {
			return nil, false
		}
	}

	if coefs.Len() != dim {
		return nil, false
	}
	result := make([]float64, dim-1)
	for i := range result {
		result[i] = coefs.AtVec(i)
		if math.IsNaN(result[i]) || math.IsInf(result[i], 0) {
			return nil, false
		}
	}
	return result, true
}
