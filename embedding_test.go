// embedding_test.go --  This file is part of goRISB project.
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

const fixtureTol = 1e-10

type embeddingFixture struct {
	gfStruct GFStruct
	hLoc     Operator
	lambdaC  map[string]*mat.Dense
	d        map[string]*mat.Dense
}

// oneBand is the half-filled Hubbard atom with U = 1.
func oneBand() embeddingFixture {
	const U = 1.0
	const mu = U / 2
	f := embeddingFixture{
		gfStruct: GFStruct{{Name: "up", Size: 1}, {Name: "dn", Size: 1}},
		hLoc:     N("up", 0).Times(N("dn", 0)).Scale(U),
		lambdaC:  make(map[string]*mat.Dense),
		d:        make(map[string]*mat.Dense),
	}
	for _, bl := range f.gfStruct {
		f.lambdaC[bl.Name] = mat.NewDense(1, 1, []float64{-mu})
		f.d[bl.Name] = mat.NewDense(1, 1, []float64{-0.3333})
	}
	return f
}

// bilayer is two Hubbard orbitals with U = 1 coupled by the hopping V = 0.25.
func bilayer() embeddingFixture {
	const U = 1.0
	const V = 0.25
	const mu = U / 2
	f := embeddingFixture{
		gfStruct: GFStruct{{Name: "up", Size: 2}, {Name: "dn", Size: 2}},
		lambdaC:  make(map[string]*mat.Dense),
		d:        make(map[string]*mat.Dense),
	}
	for o := 0; o < 2; o++ {
		f.hLoc = f.hLoc.Plus(N("up", o).Times(N("dn", o)).Scale(U))
	}
	for _, s := range []string{"up", "dn"} {
		f.hLoc = f.hLoc.Plus(CDag(s, 0).Times(C(s, 1)).Plus(CDag(s, 1).Times(C(s, 0))).Scale(V))
	}
	for _, bl := range f.gfStruct {
		f.lambdaC[bl.Name] = mat.NewDense(2, 2, []float64{-mu, -0.00460398, -0.00460398, -mu})
		f.d[bl.Name] = mat.NewDense(2, 2, []float64{-2.59694448e-01, 0, 0, -2.59694448e-01})
	}
	return f
}

// trimer is a three-site Hubbard ring with U = 1 and t = 1 written in the
// momentum basis, at two-thirds filling.
func trimer() embeddingFixture {
	const U = 1.0
	const tk = 1.0
	const n = 3
	phi := 2 * math.Pi / n
	f := embeddingFixture{
		gfStruct: GFStruct{{Name: "up", Size: n}, {Name: "dn", Size: n}},
		lambdaC:  make(map[string]*mat.Dense),
		d:        make(map[string]*mat.Dense),
	}
	for _, s := range []string{"up", "dn"} {
		for a := 0; a < n; a++ {
			b := (a + 1) % n
			for m := 0; m < n; m++ {
				for mm := 0; mm < n; mm++ {
					amp := math.Cos(phi*float64(b*mm-a*m)) + math.Cos(phi*float64(a*mm-b*m))
					f.hLoc = f.hLoc.Plus(CDag(s, m).Times(C(s, mm)).Scale(-tk / n * amp))
				}
			}
		}
	}
	for m := 0; m < n; m++ {
		for mm := 0; mm < n; mm++ {
			for mmm := 0; mmm < n; mmm++ {
				term := CDag("up", m).Times(C("up", mm)).Times(CDag("dn", mmm)).Times(C("dn", (m+mmm-mm)%n))
				f.hLoc = f.hLoc.Plus(term.Scale(U / n))
			}
		}
	}
	for _, bl := range f.gfStruct {
		f.lambdaC[bl.Name] = mat.DenseCopyOf(mat.NewDiagDense(n, []float64{-1.91730088, -1.69005946, -1.69005946}))
		f.d[bl.Name] = mat.DenseCopyOf(mat.NewDiagDense(n, []float64{-0.26504931, -0.39631238, -0.39631238}))
	}
	return f
}

func solveFixture(t *testing.T, f embeddingFixture) *EmbeddingAtomDiag {
	emb, err := NewEmbeddingAtomDiag(f.hLoc, f.gfStruct)
	require.NoError(t, err)
	require.NoError(t, emb.SetHEmb(f.lambdaC, f.d))
	require.NoError(t, emb.Solve())
	return emb
}

func assertBlocks(t *testing.T, want *mat.Dense, get func(string) (*mat.Dense, error), name string) {
	for _, bl := range []string{"up", "dn"} {
		got, err := get(bl)
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(want, got, fixtureTol), "%s[%s] = %v", name, bl, mat.Formatted(got, mat.Squeeze()))
	}
}

func TestEmbeddingAtomDiag_OneBand(t *testing.T) {
	emb := solveFixture(t, oneBand())

	assert.InDelta(t, -0.9619378905494498, emb.GSEnergy(), fixtureTol)
	assertBlocks(t, mat.NewDense(1, 1, []float64{0.5}), emb.RhoF, "rho_f")
	assertBlocks(t, mat.NewDense(1, 1, []float64{0.4681588161332029}), emb.RhoCF, "rho_cf")
	assertBlocks(t, mat.NewDense(1, 1, []float64{0.5}), emb.RhoC, "rho_c")

	n, err := emb.Overlap(NOp([]string{"up", "dn"}, 1))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, n, fixtureTol)

	s2, err := emb.Overlap(S2Op("up", "dn", 1))
	require.NoError(t, err)
	assert.InDelta(t, 0.5066828353209953, s2, fixtureTol)
}

func TestEmbeddingAtomDiag_Bilayer(t *testing.T) {
	emb := solveFixture(t, bilayer())

	assert.InDelta(t, -1.7429249197415944, emb.GSEnergy(), fixtureTol)
	assertBlocks(t, mat.NewDense(2, 2, []float64{
		0.5, -0.1999913941210893,
		-0.1999913941210893, 0.5,
	}), emb.RhoF, "rho_f")
	assertBlocks(t, mat.NewDense(2, 2, []float64{
		0.42326519677453511, 0,
		0, 0.42326519677453511,
	}), emb.RhoCF, "rho_cf")
	assertBlocks(t, mat.NewDense(2, 2, []float64{
		0.5, -0.1836332097072352,
		-0.1836332097072352, 0.5,
	}), emb.RhoC, "rho_c")

	n, err := emb.Overlap(NOp([]string{"up", "dn"}, 2))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, n, fixtureTol)

	s2, err := emb.Overlap(S2Op("up", "dn", 2))
	require.NoError(t, err)
	assert.InDelta(t, 0.8247577338845973, s2, fixtureTol)
}

func TestEmbeddingAtomDiag_Trimer(t *testing.T) {
	emb := solveFixture(t, trimer())
	diag := func(a, b float64) *mat.Dense {
		return mat.DenseCopyOf(mat.NewDiagDense(3, []float64{a, b, b}))
	}

	assert.InDelta(t, -9.555511743344764, emb.GSEnergy(), fixtureTol)
	assertBlocks(t, diag(0.9932309740187902, 0.5033842231804342), emb.RhoF, "rho_f")
	assertBlocks(t, diag(0.0811187181751014, 0.4910360103357626), emb.RhoCF, "rho_cf")
	assertBlocks(t, diag(0.9909259681893234, 0.5045367260951683), emb.RhoC, "rho_c")

	n, err := emb.Overlap(NOp([]string{"up", "dn"}, 3))
	require.NoError(t, err)
	assert.InDelta(t, 3.99999884075932, n, fixtureTol)

	s2, err := emb.Overlap(S2Op("up", "dn", 3))
	require.NoError(t, err)
	assert.InDelta(t, 0.9171025003755656, s2, fixtureTol)
}

func TestEmbeddingAtomDiag_Errors(t *testing.T) {
	f := oneBand()

	_, err := NewEmbeddingAtomDiag(f.hLoc, GFStruct{{Name: "up", Size: 0}})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewEmbeddingAtomDiag(f.hLoc, GFStruct{{Name: "up", Size: 1}})
	assert.ErrorIs(t, err, ErrShapeMismatch, "h_loc acts on a block that does not exist")

	emb, err := NewEmbeddingAtomDiag(f.hLoc, f.gfStruct)
	require.NoError(t, err)

	assert.ErrorIs(t, emb.Solve(), ErrInvalidConfiguration, "solve before the hamiltonian is set")
	_, err = emb.RhoF("up")
	assert.ErrorIs(t, err, ErrNotSolved)
	_, err = emb.Overlap(N("up", 0))
	assert.ErrorIs(t, err, ErrNotSolved)

	err = emb.SetHEmb(map[string]*mat.Dense{"up": f.lambdaC["up"]}, f.d)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	err = emb.SetHEmb(f.lambdaC, map[string]*mat.Dense{"up": f.d["up"], "dn": mat.NewDense(2, 2, nil)})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	require.NoError(t, emb.SetHEmb(f.lambdaC, f.d))
	require.NoError(t, emb.Solve())
	_, err = emb.RhoC("spinless")
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = emb.Overlap(N("up", 5))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	// a new hamiltonian invalidates the ground state
	require.NoError(t, emb.SetHEmb(f.lambdaC, f.d))
	_, err = emb.RhoCF("up")
	assert.ErrorIs(t, err, ErrNotSolved)
}
