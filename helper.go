// helper.go --  This file is part of goRISB project.
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
	"bufio"
	"math"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func ReadFileLines(fname string) ([]string, error) {
	var result []string
	var err error

	file, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		result = append(result, scanner.Text())
	}
	err = scanner.Err()

	return result, err
}

// denseData copies the entries of m row by row.
func denseData(m mat.Matrix) []float64 {
	r, c := m.Dims()
	res := make([]float64, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			res[i*c+j] = m.At(i, j)
		}
	}
	return res
}

func identity(n int) *mat.Dense {
	res := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		res.Set(i, i, 1)
	}
	return res
}

// symmetrize returns (a + a^T)/2.
func symmetrize(a mat.Matrix) *mat.SymDense {
	n, _ := a.Dims()
	res := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			res.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return res
}

func PrintDense(D mat.Matrix) {
	fa := mat.Formatted(D, mat.Prefix("    "), mat.Squeeze())
	OutputLogger.Printf("    %.8f\n", fa)
}

// MatrixFunc applies f to the eigenvalues of the symmetric part of a:
// V f(diag) V^T.
func MatrixFunc(a mat.Matrix, f func(float64) float64) (*mat.Dense, error) {
	n, c := a.Dims()
	if n != c {
		return nil, errors.Wrapf(ErrShapeMismatch, "matrix function of a %dx%d matrix", n, c)
	}
	var eigsym mat.EigenSym
	ok := eigsym.Factorize(symmetrize(a), true)
	if !ok {
		return nil, errors.Wrap(ErrNumericalFailure, "eigendecomposition failed")
	}
	var ev mat.Dense
	eigsym.VectorsTo(&ev)
	vals := eigsym.Values(nil)
	fVec := make([]float64, n)
	for i := range vals {
		fVec[i] = f(vals[i])
		if math.IsNaN(fVec[i]) || math.IsInf(fVec[i], 0) {
			return nil, errors.Wrapf(ErrSingular, "eigenvalue %g", vals[i])
		}
	}
	diagM := mat.NewDiagDense(n, fVec)
	var result mat.Dense
	result.Mul(&ev, diagM)
	result.Mul(&result, ev.T())
	return &result, nil
}

func MatrixSqrt(a mat.Matrix) (*mat.Dense, error) {
	return MatrixFunc(a, func(x float64) float64 {
		switch {
		case x < -1e-12:
			return math.NaN()
		case x < 0:
			return 0
		}
		return math.Sqrt(x)
	})
}

// MatrixSqrtInverse is a^{-1/2}; a must be positive definite.
func MatrixSqrtInverse(a mat.Matrix) (*mat.Dense, error) {
	return MatrixFunc(a, func(x float64) float64 {
		if x <= 0 {
			return math.NaN()
		}
		return 1 / math.Sqrt(x)
	})
}
