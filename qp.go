// qp.go --  This file is part of goRISB project.
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

// Quasiparticle side of the RISB equations. Index conventions:
// R[a,alpha] and D[a,alpha] carry the quasiparticle index first,
// rho_cf[alpha,a] carries the physical one first, rho_qp and rho_f are
// quasiparticle x quasiparticle.

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// HQP diagonalizes R h0_k R^T + Lambda at every k-point. Row k of eig holds
// the eigenvalues in ascending order, vec[k] the eigenvectors as columns.
func HQP(R, lambda *mat.Dense, h0k []*mat.Dense) (*mat.Dense, []*mat.Dense, error) {
	if len(h0k) == 0 {
		return nil, nil, errors.Wrap(ErrShapeMismatch, "no k-points")
	}
	n, _ := R.Dims()
	eig := mat.NewDense(len(h0k), n, nil)
	vec := make([]*mat.Dense, len(h0k))

	var hqp mat.Dense
	var eigsym mat.EigenSym
	for k, h0 := range h0k {
		hqp.Reset()
		hqp.Mul(R, h0)
		hqp.Mul(&hqp, R.T())
		hqp.Add(&hqp, lambda)
		ok := eigsym.Factorize(symmetrize(&hqp), true)
		if !ok {
			return nil, nil, errors.Wrapf(ErrNumericalFailure, "quasiparticle hamiltonian eigendecomposition failed at k=%d", k)
		}
		eig.SetRow(k, eigsym.Values(nil))
		vec[k] = mat.NewDense(n, n, nil)
		eigsym.VectorsTo(vec[k])
	}
	return eig, vec, nil
}

// H0R is h0_k R^T vec_k at every k-point.
func H0R(R *mat.Dense, h0k, vec []*mat.Dense) []*mat.Dense {
	res := make([]*mat.Dense, len(h0k))
	for k := range h0k {
		res[k] = new(mat.Dense)
		res[k].Mul(h0k[k], R.T())
		res[k].Mul(res[k], vec[k])
	}
	return res
}

// weightedProduct is sum_k A_k diag(w_k) B_k^T.
func weightedProduct(a, b []*mat.Dense, wks *mat.Dense) *mat.Dense {
	r, _ := a[0].Dims()
	c, _ := b[0].Dims()
	res := mat.NewDense(r, c, nil)
	var tmp, term mat.Dense
	for k := range a {
		tmp.Reset()
		term.Reset()
		tmp.Mul(a[k], mat.NewDiagDense(len(wks.RawRowView(k)), wks.RawRowView(k)))
		term.Mul(&tmp, b[k].T())
		res.Add(res, &term)
	}
	return res
}

// KineticEnergy is ke[alpha,a] = sum_k sum_n h0R_k[alpha,n] w_k[n] vec_k[a,n].
func KineticEnergy(h0R, vec []*mat.Dense, wks *mat.Dense) *mat.Dense {
	return weightedProduct(h0R, vec, wks)
}

// RhoQP is the quasiparticle density matrix sum_k vec_k diag(w_k) vec_k^T.
func RhoQP(vec []*mat.Dense, wks *mat.Dense) *mat.Dense {
	return weightedProduct(vec, vec, wks)
}

// densityKernels returns K^{-1/2} and P = 1 - 2 rho for K = rho - rho^2.
func densityKernels(rho *mat.Dense) (*mat.Dense, *mat.Dense, error) {
	n, _ := rho.Dims()
	var K mat.Dense
	K.Mul(rho, rho)
	K.Sub(rho, &K)
	kSqInv, err := MatrixSqrtInverse(&K)
	if err != nil {
		return nil, nil, err
	}
	P := identity(n)
	var twoRho mat.Dense
	twoRho.Scale(2, rho)
	P.Sub(P, &twoRho)
	return kSqInv, P, nil
}

// HybridizationD is D = (ke [rho(1-rho)]^{-1/2})^T.
func HybridizationD(rhoQP, ke *mat.Dense) (*mat.Dense, error) {
	kSqInv, _, err := densityKernels(rhoQP)
	if err != nil {
		return nil, errors.WithMessage(err, "hybridization")
	}
	var res mat.Dense
	res.Mul(ke, kSqInv)
	return mat.DenseCopyOf(res.T()), nil
}

// lambdaShift is (M^T K^{-1/2} P)^T with M = R D^T, the term linking
// Lambda and Lambda_c.
func lambdaShift(rho, R, D *mat.Dense) (*mat.Dense, error) {
	kSqInv, P, err := densityKernels(rho)
	if err != nil {
		return nil, err
	}
	var M, res mat.Dense
	M.Mul(R, D.T())
	res.Mul(M.T(), kSqInv)
	res.Mul(&res, P)
	return mat.DenseCopyOf(res.T()), nil
}

// LambdaC is the bath potential of the embedding problem,
// -Lambda - (M^T K^{-1/2} P)^T evaluated on the quasiparticle density.
func LambdaC(rhoQP, R, lambda, D *mat.Dense) (*mat.Dense, error) {
	shift, err := lambdaShift(rhoQP, R, D)
	if err != nil {
		return nil, errors.WithMessage(err, "Lambda_c")
	}
	shift.Add(shift, lambda)
	shift.Scale(-1, shift)
	return shift, nil
}

// LambdaFromEmbedding inverts LambdaC on the embedding density rho_f.
func LambdaFromEmbedding(R, D, lambdaC, rhoF *mat.Dense) (*mat.Dense, error) {
	shift, err := lambdaShift(rhoF, R, D)
	if err != nil {
		return nil, errors.WithMessage(err, "Lambda")
	}
	shift.Add(shift, lambdaC)
	shift.Scale(-1, shift)
	return shift, nil
}

// RFromEmbedding is R = (rho_cf [rho_f(1-rho_f)]^{-1/2})^T.
func RFromEmbedding(rhoCF, rhoF *mat.Dense) (*mat.Dense, error) {
	kSqInv, _, err := densityKernels(rhoF)
	if err != nil {
		return nil, errors.WithMessage(err, "R")
	}
	var res mat.Dense
	res.Mul(rhoCF, kSqInv)
	return mat.DenseCopyOf(res.T()), nil
}

// F1 is the root function rho_cf - R^T [rho_qp(1-rho_qp)]^{1/2}.
func F1(rhoCF, rhoQP, R *mat.Dense) (*mat.Dense, error) {
	var K mat.Dense
	K.Mul(rhoQP, rhoQP)
	K.Sub(rhoQP, &K)
	kSq, err := MatrixSqrt(&K)
	if err != nil {
		return nil, errors.WithMessage(err, "f1")
	}
	var res mat.Dense
	res.Mul(R.T(), kSq)
	res.Sub(rhoCF, &res)
	return &res, nil
}

// F2 is the root function rho_f - rho_qp^T.
func F2(rhoF, rhoQP *mat.Dense) *mat.Dense {
	var res mat.Dense
	res.Sub(rhoF, rhoQP.T())
	return &res
}
