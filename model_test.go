// model_test.go --  This file is part of goRISB project.
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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestHubbardModel_Dispersion(t *testing.T) {
	m := HubbardModel{U: 2, T: 0.5, NK: 4, Dim: 2}
	h0k, err := m.Dispersion()
	require.NoError(t, err)
	require.Len(t, h0k["up"], 16)
	require.Len(t, h0k["dn"], 16)

	// k = (0,0), (pi,0), (pi/2,pi/2), (pi,pi)
	assert.InDelta(t, -2, h0k["up"][0].At(0, 0), 1e-15)
	assert.InDelta(t, 0, h0k["up"][2].At(0, 0), 1e-15)
	assert.InDelta(t, 0, h0k["up"][5].At(0, 0), 1e-15)
	assert.InDelta(t, 2, h0k["dn"][10].At(0, 0), 1e-15)

	sum := 0.0
	for _, h := range h0k["up"] {
		sum += h.At(0, 0)
	}
	assert.InDelta(t, 0, sum, 1e-14, "band centred at zero")

	_, err = HubbardModel{NK: 0, Dim: 1}.Dispersion()
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestHubbardModel_HLoc(t *testing.T) {
	m := HubbardModel{U: 3, Mu: 1.5}
	fs, err := newFockSpace([]Mode{{Block: "up"}, {Block: "dn"}})
	require.NoError(t, err)
	h := fs.matrix(m.HLoc(), fullBasis(2))
	assert.True(t, mat.EqualApprox(mat.NewDiagDense(4, []float64{0, -1.5, -1.5, 0}), h, 1e-15))
	assert.Equal(t, 2, m.GFStruct().NOrbitals())
}

// TestInput_NewLatticeSolver runs the half-filled chain described in an input file.
func TestInput_NewLatticeSolver(t *testing.T) {
	data := []string{
		"Solver", "rule diis", "tol 1e-9", "maxiter 100", "End",
		"KWeight", "beta 10", "mu 0", "End",
		"Model", "u 1", "t 1", "mu 0.5", "nk 8", "dim 1", "End",
	}
	inp, err := ParseInput(data)
	require.NoError(t, err)
	assert.Equal(t, HubbardModel{U: 1, T: 1, Mu: 0.5, NK: 8, Dim: 1}, inp.Model)

	ls, err := inp.NewLatticeSolver()
	require.NoError(t, err)
	require.NoError(t, ls.Solve(inp.Options))
	assert.True(t, ls.Success())

	z := ls.Z()[0]["up"].At(0, 0)
	assert.Greater(t, z, 0.5)
	assert.Less(t, z, 1.0)
	assert.InDelta(t, 0, ls.Mu, 1e-15, "fixed chemical potential")

	docc, err := ls.Embedding(0).Overlap(N("up", 0).Times(N("dn", 0)))
	require.NoError(t, err)
	assert.Less(t, docc, 0.25, "interaction suppresses double occupancy")
	assert.Greater(t, docc, 0.0)

	inp, err = ParseInput(data[:9])
	require.NoError(t, err)
	_, err = inp.NewLatticeSolver()
	assert.ErrorIs(t, err, ErrInvalidConfiguration, "no Model block")

	_, err = ParseInput([]string{"Model", "nk -1", "End"})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = ParseInput([]string{"Model", "v 1", "End"})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
