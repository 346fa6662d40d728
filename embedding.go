// embedding.go --  This file is part of goRISB project.
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
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// BlockStruct names a symmetry block and its number of orbitals.
type BlockStruct struct {
	Name string
	Size int
}

type GFStruct []BlockStruct

// NOrbitals is the total number of spin-orbitals over all blocks.
func (g GFStruct) NOrbitals() int {
	n := 0
	for _, bl := range g {
		n += bl.Size
	}
	return n
}

func (g GFStruct) size(block string) (int, bool) {
	for _, bl := range g {
		if bl.Name == block {
			return bl.Size, true
		}
	}
	return 0, false
}

// Embedding solves the impurity problem of one cluster.
type Embedding interface {
	SetHEmb(lambdaC, d map[string]*mat.Dense) error
	Solve() error
	GSEnergy() float64
	RhoF(block string) (*mat.Dense, error)
	RhoCF(block string) (*mat.Dense, error)
	RhoC(block string) (*mat.Dense, error)
	Overlap(op Operator) (float64, error)
}

// EmbeddingAtomDiag solves the embedding Hamiltonian by exact
// diagonalization in the sector where the number of particles equals the
// number of physical spin-orbitals.
type EmbeddingAtomDiag struct {
	hLoc     Operator
	gfStruct GFStruct
	fs       *fockSpace

	hEmb     Operator
	hEmbSet  bool
	basis    []uint64
	gsVec    []float64
	gsEnergy float64
	solved   bool
}

func NewEmbeddingAtomDiag(hLoc Operator, gfStruct GFStruct) (*EmbeddingAtomDiag, error) {
	var modes []Mode
	for _, bl := range gfStruct {
		if bl.Size <= 0 {
			return nil, errors.Wrapf(ErrInvalidConfiguration, "block %q of size %d", bl.Name, bl.Size)
		}
		for i := 0; i < bl.Size; i++ {
			modes = append(modes, Mode{Block: bl.Name, Index: i})
		}
	}
	for _, bl := range gfStruct {
		for i := 0; i < bl.Size; i++ {
			modes = append(modes, Mode{Block: bl.Name, Index: i, Bath: true})
		}
	}
	fs, err := newFockSpace(modes)
	if err != nil {
		return nil, err
	}
	if err := fs.check(hLoc); err != nil {
		return nil, errors.WithMessage(err, "local hamiltonian")
	}
	return &EmbeddingAtomDiag{hLoc: hLoc, gfStruct: gfStruct, fs: fs}, nil
}

// SetHEmb builds
//
//	H_emb = h_loc + sum D[a,alpha] (c^dag_alpha f_a + f^dag_a c_alpha) + sum lambdaC[a,b] f_b f^dag_a
//
// for every block.
func (e *EmbeddingAtomDiag) SetHEmb(lambdaC, d map[string]*mat.Dense) error {
	h := e.hLoc
	for _, bl := range e.gfStruct {
		lc, ok := lambdaC[bl.Name]
		if !ok {
			return errors.Wrapf(ErrShapeMismatch, "no Lambda_c for block %q", bl.Name)
		}
		db, ok := d[bl.Name]
		if !ok {
			return errors.Wrapf(ErrShapeMismatch, "no D for block %q", bl.Name)
		}
		if r, c := lc.Dims(); r != bl.Size || c != bl.Size {
			return errors.Wrapf(ErrShapeMismatch, "Lambda_c[%q] is %dx%d", bl.Name, r, c)
		}
		if r, c := db.Dims(); r != bl.Size || c != bl.Size {
			return errors.Wrapf(ErrShapeMismatch, "D[%q] is %dx%d", bl.Name, r, c)
		}

		for a := 0; a < bl.Size; a++ {
			for alpha := 0; alpha < bl.Size; alpha++ {
				hyb := CDag(bl.Name, alpha).Times(bathC(bl.Name, a)).Plus(bathCDag(bl.Name, a).Times(C(bl.Name, alpha)))
				h = h.Plus(hyb.Scale(db.At(a, alpha)))
			}
		}
		for a := 0; a < bl.Size; a++ {
			for b := 0; b < bl.Size; b++ {
				h = h.Plus(bathC(bl.Name, b).Times(bathCDag(bl.Name, a)).Scale(lc.At(a, b)))
			}
		}
	}
	e.hEmb = h
	e.hEmbSet = true
	e.solved = false
	return nil
}

// Solve finds the ground state of the embedding Hamiltonian.
func (e *EmbeddingAtomDiag) Solve() error {
	if !e.hEmbSet {
		return errors.Wrap(ErrInvalidConfiguration, "embedding hamiltonian not set")
	}
	tstart := time.Now()
	basis, err := e.fs.sector(e.gfStruct.NOrbitals())
	if err != nil {
		return err
	}
	H := e.fs.matrix(e.hEmb, basis)

	var eigsym mat.EigenSym
	ok := eigsym.Factorize(symmetrize(H), true)
	if !ok {
		ErrorLogger.Println("Embedding hamiltonian eigendecomposition failed")
		return errors.Wrap(ErrNumericalFailure, "embedding hamiltonian eigendecomposition failed")
	}
	var ev mat.Dense
	eigsym.VectorsTo(&ev)
	vals := eigsym.Values(nil)

	e.basis = basis
	e.gsEnergy = vals[0]
	e.gsVec = mat.Col(nil, 0, &ev)
	e.solved = true
	InfoLogger.Println("Embedding solved, sector dimension", len(basis), ":", time.Since(tstart))
	return nil
}

func (e *EmbeddingAtomDiag) GSEnergy() float64 { return e.gsEnergy }

// Overlap is the ground-state expectation value of op.
func (e *EmbeddingAtomDiag) Overlap(op Operator) (float64, error) {
	if !e.solved {
		return 0, ErrNotSolved
	}
	if err := e.fs.check(op); err != nil {
		return 0, err
	}
	return e.fs.expectation(op, e.basis, e.gsVec), nil
}

// RhoF is <f_b f^dag_a> at [a,b].
func (e *EmbeddingAtomDiag) RhoF(block string) (*mat.Dense, error) {
	return e.density(block, func(a, b int) Operator {
		return bathC(block, b).Times(bathCDag(block, a))
	})
}

// RhoCF is <c^dag_alpha f_a> at [alpha,a].
func (e *EmbeddingAtomDiag) RhoCF(block string) (*mat.Dense, error) {
	return e.density(block, func(alpha, a int) Operator {
		return CDag(block, alpha).Times(bathC(block, a))
	})
}

// RhoC is <c^dag_alpha c_beta> at [alpha,beta].
func (e *EmbeddingAtomDiag) RhoC(block string) (*mat.Dense, error) {
	return e.density(block, func(alpha, beta int) Operator {
		return CDag(block, alpha).Times(C(block, beta))
	})
}

func (e *EmbeddingAtomDiag) density(block string, op func(i, j int) Operator) (*mat.Dense, error) {
	if !e.solved {
		return nil, ErrNotSolved
	}
	n, ok := e.gfStruct.size(block)
	if !ok {
		return nil, errors.Wrapf(ErrShapeMismatch, "unknown block %q", block)
	}
	res := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			res.Set(i, j, e.fs.expectation(op(i, j), e.basis, e.gsVec))
		}
	}
	return res, nil
}
