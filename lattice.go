// lattice.go --  This file is part of goRISB project.
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

// LatticeSolver runs the RISB self-consistency for one or more correlated
// clusters embedded in a lattice. The renormalization matrices R and
// correlation potentials Lambda of every cluster are the parameters handed
// to the NewtonSolver.
type LatticeSolver struct {
	h0k        map[string][]*mat.Dense
	gfStruct   []GFStruct
	embedding  []Embedding
	projectors []map[string]*mat.Dense
	weights    WeightUpdater
	solver     *NewtonSolver

	// Symmetrize, when set, is applied per cluster to D, Lambda_c, R and
	// Lambda after they are computed in a cycle.
	Symmetrize func(cluster int, m map[string]*mat.Dense) map[string]*mat.Dense

	// Indexed by cluster, then block.
	R, Lambda  []map[string]*mat.Dense
	D, LambdaC []map[string]*mat.Dense
	RhoQP      []map[string]*mat.Dense

	// Mu is the chemical potential of the last cycle.
	Mu float64
}

type LatticeOption func(*LatticeSolver)

// WithProjectors sets, for every cluster and block, the matrix P mapping
// lattice orbitals onto cluster orbitals (cluster size x lattice size).
// Without it the clusters fill each lattice block one after another.
func WithProjectors(p []map[string]*mat.Dense) LatticeOption {
	return func(ls *LatticeSolver) { ls.projectors = p }
}

// NewLatticeSolver starts from R = 1 and Lambda = 0 on every cluster. h0k
// holds, for every lattice block, the non-interacting Hamiltonian at each
// k-point; gfStruct and emb hold one entry per cluster.
func NewLatticeSolver(h0k map[string][]*mat.Dense, gfStruct []GFStruct, emb []Embedding, weights WeightUpdater, solver *NewtonSolver, opts ...LatticeOption) (*LatticeSolver, error) {
	if weights == nil || solver == nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, "lattice solver needs a weight updater and a root solver")
	}
	if len(gfStruct) == 0 || len(gfStruct) != len(emb) {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "%d cluster structures for %d embeddings", len(gfStruct), len(emb))
	}
	ls := &LatticeSolver{
		h0k:       h0k,
		gfStruct:  gfStruct,
		embedding: emb,
		weights:   weights,
		solver:    solver,
	}
	for _, o := range opts {
		o(ls)
	}

	latSize := make(map[string]int, len(h0k))
	for _, bl := range sortedLabels(h0k) {
		hk := h0k[bl]
		if len(hk) == 0 {
			return nil, errors.Wrapf(ErrShapeMismatch, "no k-points for block %q", bl)
		}
		n, _ := hk[0].Dims()
		for k, h := range hk {
			if r, c := h.Dims(); r != n || c != n {
				return nil, errors.Wrapf(ErrShapeMismatch, "h0_k[%q][%d] is %dx%d, expected %dx%d", bl, k, r, c, n, n)
			}
		}
		latSize[bl] = n
	}

	for i, gf := range gfStruct {
		if emb[i] == nil || len(gf) == 0 {
			return nil, errors.Wrapf(ErrInvalidConfiguration, "cluster %d has no embedding or no blocks", i)
		}
		for _, bl := range gf {
			if _, ok := latSize[bl.Name]; !ok {
				return nil, errors.Wrapf(ErrShapeMismatch, "no dispersion for block %q of cluster %d", bl.Name, i)
			}
		}
	}

	if ls.projectors == nil {
		if err := ls.defaultProjectors(latSize); err != nil {
			return nil, err
		}
	} else if err := ls.checkProjectors(latSize); err != nil {
		return nil, err
	}

	ls.R = make([]map[string]*mat.Dense, len(gfStruct))
	ls.Lambda = make([]map[string]*mat.Dense, len(gfStruct))
	for i, gf := range gfStruct {
		ls.R[i] = make(map[string]*mat.Dense, len(gf))
		ls.Lambda[i] = make(map[string]*mat.Dense, len(gf))
		for _, bl := range gf {
			ls.R[i][bl.Name] = identity(bl.Size)
			ls.Lambda[i][bl.Name] = mat.NewDense(bl.Size, bl.Size, nil)
		}
	}
	return ls, nil
}

// defaultProjectors places the clusters consecutively in every lattice
// block; together they must cover the block.
func (ls *LatticeSolver) defaultProjectors(latSize map[string]int) error {
	offset := make(map[string]int, len(latSize))
	ls.projectors = make([]map[string]*mat.Dense, len(ls.gfStruct))
	for i, gf := range ls.gfStruct {
		ls.projectors[i] = make(map[string]*mat.Dense, len(gf))
		for _, bl := range gf {
			n := latSize[bl.Name]
			if offset[bl.Name]+bl.Size > n {
				return errors.Wrapf(ErrShapeMismatch, "clusters overflow lattice block %q of size %d", bl.Name, n)
			}
			p := mat.NewDense(bl.Size, n, nil)
			for j := 0; j < bl.Size; j++ {
				p.Set(j, offset[bl.Name]+j, 1)
			}
			offset[bl.Name] += bl.Size
			ls.projectors[i][bl.Name] = p
		}
	}
	for bl, n := range latSize {
		if offset[bl] != n {
			return errors.Wrapf(ErrShapeMismatch, "clusters cover %d of %d orbitals in lattice block %q", offset[bl], n, bl)
		}
	}
	return nil
}

func (ls *LatticeSolver) checkProjectors(latSize map[string]int) error {
	if len(ls.projectors) != len(ls.gfStruct) {
		return errors.Wrapf(ErrShapeMismatch, "%d projector sets for %d clusters", len(ls.projectors), len(ls.gfStruct))
	}
	for i, gf := range ls.gfStruct {
		for _, bl := range gf {
			p, ok := ls.projectors[i][bl.Name]
			if !ok {
				return errors.Wrapf(ErrShapeMismatch, "no projector for block %q of cluster %d", bl.Name, i)
			}
			if r, c := p.Dims(); r != bl.Size || c != latSize[bl.Name] {
				return errors.Wrapf(ErrShapeMismatch, "projector[%d][%q] is %dx%d", i, bl.Name, r, c)
			}
		}
	}
	return nil
}

// NClusters is the number of correlated clusters.
func (ls *LatticeSolver) NClusters() int { return len(ls.gfStruct) }

// Embedding is the embedding solver of cluster i, holding the ground state
// of the last cycle.
func (ls *LatticeSolver) Embedding(i int) Embedding { return ls.embedding[i] }

func (ls *LatticeSolver) pack(R, lambda []map[string]*mat.Dense) Blocks {
	var x Blocks
	for i, gf := range ls.gfStruct {
		for _, bl := range gf {
			x = append(x, mat.DenseCopyOf(R[i][bl.Name]))
		}
	}
	for i, gf := range ls.gfStruct {
		for _, bl := range gf {
			x = append(x, mat.DenseCopyOf(lambda[i][bl.Name]))
		}
	}
	return x
}

func (ls *LatticeSolver) unpack(x Blocks) ([]map[string]*mat.Dense, []map[string]*mat.Dense) {
	R := make([]map[string]*mat.Dense, len(ls.gfStruct))
	lambda := make([]map[string]*mat.Dense, len(ls.gfStruct))
	pos := 0
	for i, gf := range ls.gfStruct {
		R[i] = make(map[string]*mat.Dense, len(gf))
		for _, bl := range gf {
			R[i][bl.Name] = mat.DenseCopyOf(x[pos])
			pos++
		}
	}
	for i, gf := range ls.gfStruct {
		lambda[i] = make(map[string]*mat.Dense, len(gf))
		for _, bl := range gf {
			lambda[i][bl.Name] = mat.DenseCopyOf(x[pos])
			pos++
		}
	}
	return R, lambda
}

func (ls *LatticeSolver) symmetrize(i int, m map[string]*mat.Dense) map[string]*mat.Dense {
	if ls.Symmetrize == nil {
		return m
	}
	return ls.Symmetrize(i, m)
}

// toLattice is sum_i P_i^T m_i P_i for every lattice block.
func (ls *LatticeSolver) toLattice(m []map[string]*mat.Dense) map[string]*mat.Dense {
	res := make(map[string]*mat.Dense, len(ls.h0k))
	for bl, hk := range ls.h0k {
		n, _ := hk[0].Dims()
		res[bl] = mat.NewDense(n, n, nil)
	}
	var tmp, term mat.Dense
	for i, gf := range ls.gfStruct {
		for _, bl := range gf {
			p := ls.projectors[i][bl.Name]
			tmp.Reset()
			term.Reset()
			tmp.Mul(p.T(), m[i][bl.Name])
			term.Mul(&tmp, p)
			res[bl.Name].Add(res[bl.Name], &term)
		}
	}
	return res
}

// toCluster is P m P^T.
func toCluster(p, m *mat.Dense) *mat.Dense {
	var res mat.Dense
	res.Mul(p, m)
	res.Mul(&res, p.T())
	return &res
}

// OneCycle maps (R, Lambda) of every cluster to the new (R, Lambda)
// obtained from the quasiparticle problem, the k-space weights and the
// embedding solutions.
func (ls *LatticeSolver) OneCycle(R, lambda []map[string]*mat.Dense) ([]map[string]*mat.Dense, []map[string]*mat.Dense, error) {
	tstart := time.Now()

	RLat := ls.toLattice(R)
	lambdaLat := ls.toLattice(lambda)
	labels := sortedLabels(ls.h0k)

	energies := make(map[string]*mat.Dense, len(labels))
	vecs := make(map[string][]*mat.Dense, len(labels))
	for _, bl := range labels {
		eig, vec, err := HQP(RLat[bl], lambdaLat[bl], ls.h0k[bl])
		if err != nil {
			return nil, nil, errors.WithMessagef(err, "block %q", bl)
		}
		energies[bl] = eig
		vecs[bl] = vec
	}

	wks, err := ls.weights.UpdateWeights(energies)
	if err != nil {
		return nil, nil, err
	}

	rhoLat := make(map[string]*mat.Dense, len(labels))
	keLat := make(map[string]*mat.Dense, len(labels))
	for _, bl := range labels {
		rhoLat[bl] = RhoQP(vecs[bl], wks[bl])
		keLat[bl] = KineticEnergy(H0R(RLat[bl], ls.h0k[bl], vecs[bl]), vecs[bl], wks[bl])
	}

	nc := len(ls.gfStruct)
	D := make([]map[string]*mat.Dense, nc)
	lambdaC := make([]map[string]*mat.Dense, nc)
	rhoQP := make([]map[string]*mat.Dense, nc)
	RNew := make([]map[string]*mat.Dense, nc)
	lambdaNew := make([]map[string]*mat.Dense, nc)
	for i, gf := range ls.gfStruct {
		D[i] = make(map[string]*mat.Dense, len(gf))
		lambdaC[i] = make(map[string]*mat.Dense, len(gf))
		rhoQP[i] = make(map[string]*mat.Dense, len(gf))
		for _, bl := range gf {
			p := ls.projectors[i][bl.Name]
			rho := toCluster(p, rhoLat[bl.Name])
			ke := toCluster(p, keLat[bl.Name])
			rhoQP[i][bl.Name] = rho
			D[i][bl.Name], err = HybridizationD(rho, ke)
			if err != nil {
				return nil, nil, errors.WithMessagef(err, "cluster %d block %q", i, bl.Name)
			}
			lambdaC[i][bl.Name], err = LambdaC(rho, R[i][bl.Name], lambda[i][bl.Name], D[i][bl.Name])
			if err != nil {
				return nil, nil, errors.WithMessagef(err, "cluster %d block %q", i, bl.Name)
			}
		}
		D[i] = ls.symmetrize(i, D[i])
		lambdaC[i] = ls.symmetrize(i, lambdaC[i])

		emb := ls.embedding[i]
		if err := emb.SetHEmb(lambdaC[i], D[i]); err != nil {
			return nil, nil, errors.WithMessagef(err, "cluster %d", i)
		}
		if err := emb.Solve(); err != nil {
			return nil, nil, errors.WithMessagef(err, "cluster %d", i)
		}

		RNew[i] = make(map[string]*mat.Dense, len(gf))
		lambdaNew[i] = make(map[string]*mat.Dense, len(gf))
		for _, bl := range gf {
			rhoF, err := emb.RhoF(bl.Name)
			if err != nil {
				return nil, nil, err
			}
			rhoCF, err := emb.RhoCF(bl.Name)
			if err != nil {
				return nil, nil, err
			}
			RNew[i][bl.Name], err = RFromEmbedding(rhoCF, rhoF)
			if err != nil {
				return nil, nil, errors.WithMessagef(err, "cluster %d block %q", i, bl.Name)
			}
			lambdaNew[i][bl.Name], err = LambdaFromEmbedding(RNew[i][bl.Name], D[i][bl.Name], lambdaC[i][bl.Name], rhoF)
			if err != nil {
				return nil, nil, errors.WithMessagef(err, "cluster %d block %q", i, bl.Name)
			}
		}
		RNew[i] = ls.symmetrize(i, RNew[i])
		lambdaNew[i] = ls.symmetrize(i, lambdaNew[i])
	}

	ls.D = D
	ls.LambdaC = lambdaC
	ls.RhoQP = rhoQP
	ls.Mu = ls.weights.Mu()
	InfoLogger.Println("RISB cycle done:", time.Since(tstart))
	return RNew, lambdaNew, nil
}

func (ls *LatticeSolver) residual(x Blocks) (Blocks, Blocks, error) {
	R, lambda := ls.unpack(x)
	RNew, lambdaNew, err := ls.OneCycle(R, lambda)
	if err != nil {
		return nil, nil, err
	}
	gx := ls.pack(RNew, lambdaNew)
	return gx, gx.Sub(x), nil
}

// Solve iterates to self-consistency from the current R and Lambda. Check
// Success afterwards: running out of iterations is not an error. D,
// Lambda_c, RhoQP, Mu and the embedding ground states always belong to the
// returned R and Lambda.
func (ls *LatticeSolver) Solve(opts SolveOptions) error {
	tstart := time.Now()
	x, err := ls.solver.Solve(ls.residual, ls.pack(ls.R, ls.Lambda), opts)
	if err != nil {
		ErrorLogger.Println("RISB self-consistency failed:", err)
		return err
	}
	ls.R, ls.Lambda = ls.unpack(x)

	printOutputDelimiter()
	if ls.solver.Success() {
		OutputLogger.Println("RISB converged after", ls.solver.Iterations(), "cycles, norm =", ls.solver.Norm())
	} else {
		WarningLogger.Println("RISB NOT converged after", ls.solver.Iterations(), "cycles, norm =", ls.solver.Norm())
		// the last guess was never evaluated
		if _, _, err := ls.OneCycle(ls.R, ls.Lambda); err != nil {
			ErrorLogger.Println("RISB cycle on the last guess failed:", err)
			return err
		}
	}
	InfoLogger.Println("Time for RISB self-consistency:", time.Since(tstart))
	return nil
}

func (ls *LatticeSolver) Success() bool { return ls.solver.Success() }

// Z is the quasiparticle weight R R^T per cluster and block.
func (ls *LatticeSolver) Z() []map[string]*mat.Dense {
	res := make([]map[string]*mat.Dense, len(ls.gfStruct))
	for i, gf := range ls.gfStruct {
		res[i] = make(map[string]*mat.Dense, len(gf))
		for _, bl := range gf {
			z := new(mat.Dense)
			z.Mul(ls.R[i][bl.Name], ls.R[i][bl.Name].T())
			res[i][bl.Name] = z
		}
	}
	return res
}
