// model.go --  This file is part of goRISB project.
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

// HubbardModel is the one-orbital Hubbard model on a hypercubic lattice
// with nearest-neighbour hopping T, sampled on NK points per dimension.
type HubbardModel struct {
	U   float64
	T   float64
	Mu  float64
	NK  int
	Dim int
}

var spinNames = []string{"up", "dn"}

func (m HubbardModel) validate() error {
	if m.NK <= 0 || m.Dim <= 0 {
		return errors.Wrapf(ErrInvalidConfiguration, "k-grid of %d points in %d dimensions", m.NK, m.Dim)
	}
	if math.Pow(float64(m.NK), float64(m.Dim)) > 1e7 {
		return errors.Wrapf(ErrInvalidConfiguration, "k-grid %d^%d too large", m.NK, m.Dim)
	}
	return nil
}

func (m HubbardModel) GFStruct() GFStruct {
	return GFStruct{{Name: spinNames[0], Size: 1}, {Name: spinNames[1], Size: 1}}
}

// HLoc is U n_up n_dn - Mu (n_up + n_dn).
func (m HubbardModel) HLoc() Operator {
	return N(spinNames[0], 0).Times(N(spinNames[1], 0)).Scale(m.U).Plus(NOp(spinNames, 1).Scale(-m.Mu))
}

// Dispersion is -2T sum_i cos(k_i) on the uniform grid, identical for both spins.
func (m HubbardModel) Dispersion() (map[string][]*mat.Dense, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	nTot := 1
	for i := 0; i < m.Dim; i++ {
		nTot *= m.NK
	}
	cos := make([]float64, m.NK)
	for j := range cos {
		cos[j] = math.Cos(2 * math.Pi * float64(j) / float64(m.NK))
	}

	eps := make([]float64, nTot)
	for k := range eps {
		idx := k
		for i := 0; i < m.Dim; i++ {
			eps[k] -= 2 * m.T * cos[idx%m.NK]
			idx /= m.NK
		}
	}

	h0k := make(map[string][]*mat.Dense, len(spinNames))
	for _, s := range spinNames {
		h0k[s] = make([]*mat.Dense, nTot)
		for k, e := range eps {
			h0k[s][k] = mat.NewDense(1, 1, []float64{e})
		}
	}
	return h0k, nil
}
