// operator.go --  This file is part of goRISB project.
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
	"math/bits"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/combin"
)

// Mode labels one fermionic degree of freedom. Bath modes are the auxiliary
// "f" orbitals of the embedding problem, physical modes are the "c" orbitals.
type Mode struct {
	Block string
	Index int
	Bath  bool
}

type factor struct {
	dag  bool
	mode Mode
}

type monomial struct {
	coeff float64
	ops   []factor // applied right to left
}

// Operator is a real polynomial in creation and annihilation operators.
// The zero value is the zero operator.
type Operator struct {
	terms []monomial
}

func C(block string, index int) Operator {
	return Operator{terms: []monomial{{coeff: 1, ops: []factor{{dag: false, mode: Mode{block, index, false}}}}}}
}

func CDag(block string, index int) Operator {
	return Operator{terms: []monomial{{coeff: 1, ops: []factor{{dag: true, mode: Mode{block, index, false}}}}}}
}

// N is the number operator c^dag c.
func N(block string, index int) Operator {
	return CDag(block, index).Times(C(block, index))
}

// Scalar is a multiple of the identity.
func Scalar(a float64) Operator {
	return Operator{terms: []monomial{{coeff: a}}}
}

func bathC(block string, index int) Operator {
	return Operator{terms: []monomial{{coeff: 1, ops: []factor{{dag: false, mode: Mode{block, index, true}}}}}}
}

func bathCDag(block string, index int) Operator {
	return Operator{terms: []monomial{{coeff: 1, ops: []factor{{dag: true, mode: Mode{block, index, true}}}}}}
}

func (o Operator) Plus(p Operator) Operator {
	terms := make([]monomial, 0, len(o.terms)+len(p.terms))
	terms = append(terms, o.terms...)
	terms = append(terms, p.terms...)
	return Operator{terms: terms}
}

func (o Operator) Times(p Operator) Operator {
	terms := make([]monomial, 0, len(o.terms)*len(p.terms))
	for _, a := range o.terms {
		for _, b := range p.terms {
			ops := make([]factor, 0, len(a.ops)+len(b.ops))
			ops = append(ops, a.ops...)
			ops = append(ops, b.ops...)
			terms = append(terms, monomial{coeff: a.coeff * b.coeff, ops: ops})
		}
	}
	return Operator{terms: terms}
}

func (o Operator) Scale(a float64) Operator {
	terms := make([]monomial, len(o.terms))
	for i, t := range o.terms {
		terms[i] = monomial{coeff: a * t.coeff, ops: t.ops}
	}
	return Operator{terms: terms}
}

// IsZero reports whether o has no terms with a non-zero coefficient.
func (o Operator) IsZero() bool {
	for _, t := range o.terms {
		if t.coeff != 0 {
			return false
		}
	}
	return true
}

// Modes lists the distinct modes o acts on, in order of appearance.
func (o Operator) Modes() []Mode {
	seen := make(map[Mode]bool)
	var res []Mode
	for _, t := range o.terms {
		for _, f := range t.ops {
			if !seen[f.mode] {
				seen[f.mode] = true
				res = append(res, f.mode)
			}
		}
	}
	return res
}

// NOp is the total number of particles over the given spin blocks.
func NOp(spinNames []string, nOrb int) Operator {
	var res Operator
	for _, s := range spinNames {
		for o := 0; o < nOrb; o++ {
			res = res.Plus(N(s, o))
		}
	}
	return res
}

// S2Op is the total spin squared, Sz^2 + (S+S- + S-S+)/2, for blocks up and dn.
func S2Op(up, dn string, nOrb int) Operator {
	var sz, sp, sm Operator
	for o := 0; o < nOrb; o++ {
		sz = sz.Plus(N(up, o).Scale(0.5)).Plus(N(dn, o).Scale(-0.5))
		sp = sp.Plus(CDag(up, o).Times(C(dn, o)))
		sm = sm.Plus(CDag(dn, o).Times(C(up, o)))
	}
	return sz.Times(sz).Plus(sp.Times(sm).Scale(0.5)).Plus(sm.Times(sp).Scale(0.5))
}

// fockSpace maps modes onto bits of an occupation-number state.
type fockSpace struct {
	modes []Mode
	index map[Mode]int
}

const (
	maxModes     = 62
	maxSectorDim = 1 << 14
)

func newFockSpace(modes []Mode) (*fockSpace, error) {
	if len(modes) > maxModes {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "%d modes, at most %d supported", len(modes), maxModes)
	}
	fs := &fockSpace{modes: modes, index: make(map[Mode]int, len(modes))}
	for i, m := range modes {
		if _, ok := fs.index[m]; ok {
			return nil, errors.Wrapf(ErrInvalidConfiguration, "duplicate mode %v", m)
		}
		fs.index[m] = i
	}
	return fs, nil
}

func (fs *fockSpace) check(o Operator) error {
	for _, m := range o.Modes() {
		if _, ok := fs.index[m]; !ok {
			return errors.Wrapf(ErrShapeMismatch, "mode %v outside the fock space", m)
		}
	}
	return nil
}

// apply acts with the monomial on a basis state. ok is false when the state
// is annihilated.
func (fs *fockSpace) apply(t monomial, state uint64) (sign float64, out uint64, ok bool) {
	sign = 1
	out = state
	for k := len(t.ops) - 1; k >= 0; k-- {
		pos := fs.index[t.ops[k].mode]
		bit := uint64(1) << pos
		occupied := out&bit != 0
		if occupied == t.ops[k].dag {
			return 0, 0, false
		}
		if bits.OnesCount64(out&(bit-1))%2 == 1 {
			sign = -sign
		}
		out ^= bit
	}
	return sign, out, true
}

// sector lists the states with n particles in increasing order.
func (fs *fockSpace) sector(n int) ([]uint64, error) {
	nModes := len(fs.modes)
	if n < 0 || n > nModes {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "%d particles in %d modes", n, nModes)
	}
	if dim := combin.GeneralizedBinomial(float64(nModes), float64(n)); dim > maxSectorDim+0.5 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "sector of %d particles in %d modes has dimension %.3g, at most %d supported", n, nModes, dim, maxSectorDim)
	}

	res := make([]uint64, 0, combin.Binomial(nModes, n))
	gen := combin.NewCombinationGenerator(nModes, n)
	comb := make([]int, n)
	for gen.Next() {
		var s uint64
		for _, pos := range gen.Combination(comb) {
			s |= uint64(1) << pos
		}
		res = append(res, s)
	}
	slices.Sort(res)
	return res, nil
}

// matrix is the representation of o on the span of basis. Components leaving
// the span are dropped.
func (fs *fockSpace) matrix(o Operator, basis []uint64) *mat.Dense {
	dim := len(basis)
	idx := make(map[uint64]int, dim)
	for i, s := range basis {
		idx[s] = i
	}
	res := mat.NewDense(dim, dim, nil)
	for j, s := range basis {
		for _, t := range o.terms {
			if t.coeff == 0 {
				continue
			}
			sign, out, ok := fs.apply(t, s)
			if !ok {
				continue
			}
			if i, in := idx[out]; in {
				res.Set(i, j, res.At(i, j)+t.coeff*sign)
			}
		}
	}
	return res
}

// expectation is <psi|o|psi> for a real state psi expanded on basis.
func (fs *fockSpace) expectation(o Operator, basis []uint64, psi []float64) float64 {
	idx := make(map[uint64]int, len(basis))
	for i, s := range basis {
		idx[s] = i
	}
	res := 0.0
	for j, s := range basis {
		if psi[j] == 0 {
			continue
		}
		for _, t := range o.terms {
			sign, out, ok := fs.apply(t, s)
			if !ok {
				continue
			}
			if i, in := idx[out]; in {
				res += t.coeff * sign * psi[i] * psi[j]
			}
		}
	}
	return res
}
