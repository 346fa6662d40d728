// blocks.go --  This file is part of goRISB project.
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
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Blocks is an ordered set of real matrices, one per symmetry block.
// Guesses, images g(x) and residuals of the root solver are all Blocks.
type Blocks []*mat.Dense

// Clone returns a deep copy.
func (b Blocks) Clone() Blocks {
	if b == nil {
		return nil
	}
	result := make(Blocks, len(b))
	for i, m := range b {
		result[i] = mat.DenseCopyOf(m)
	}
	return result
}

// SameShape reports whether o has the same number of blocks with the same dimensions.
func (b Blocks) SameShape(o Blocks) bool {
	if len(b) != len(o) {
		return false
	}
	for i := range b {
		br, bc := b[i].Dims()
		or, oc := o[i].Dims()
		if br != or || bc != oc {
			return false
		}
	}
	return true
}

// Sub returns b - o.
func (b Blocks) Sub(o Blocks) Blocks {
	result := make(Blocks, len(b))
	for i := range b {
		r, c := b[i].Dims()
		result[i] = mat.NewDense(r, c, nil)
		result[i].Sub(b[i], o[i])
	}
	return result
}

// AddScaled returns b + alpha*o.
func (b Blocks) AddScaled(alpha float64, o Blocks) Blocks {
	result := make(Blocks, len(b))
	for i := range b {
		r, c := b[i].Dims()
		result[i] = mat.NewDense(r, c, nil)
		result[i].Scale(alpha, o[i])
		result[i].Add(result[i], b[i])
	}
	return result
}

// Scale returns alpha*b.
func (b Blocks) Scale(alpha float64) Blocks {
	result := make(Blocks, len(b))
	for i := range b {
		r, c := b[i].Dims()
		result[i] = mat.NewDense(r, c, nil)
		result[i].Scale(alpha, b[i])
	}
	return result
}

// Dot is the Frobenius inner product summed over all blocks.
func (b Blocks) Dot(o Blocks) float64 {
	res := 0.0
	for i := range b {
		r, c := b[i].Dims()
		prod := mat.NewDense(r, c, nil)
		prod.MulElem(b[i], o[i])
		res += mat.Sum(prod)
	}
	return res
}

// Flatten lays all blocks out row-major, one after another.
func (b Blocks) Flatten() []float64 {
	var result []float64
	for _, m := range b {
		r, _ := m.Dims()
		for i := 0; i < r; i++ {
			result = append(result, m.RawRowView(i)...)
		}
	}
	return result
}

// Norm is the 2-norm of the flattened blocks.
func (b Blocks) Norm() float64 {
	return floats.Norm(b.Flatten(), 2)
}
