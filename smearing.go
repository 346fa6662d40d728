// smearing.go --  This file is part of goRISB project.
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
	"strings"

	"github.com/pkg/errors"
)

type SmearingMethod string

const (
	SmearFermi            SmearingMethod = "fermi"
	SmearGaussian         SmearingMethod = "gaussian"
	SmearMethfesselPaxton SmearingMethod = "methfessel-paxton"
)

// ParseSmearingMethod accepts the selector names used in input files.
func ParseSmearingMethod(name string) (SmearingMethod, error) {
	switch m := SmearingMethod(strings.ToLower(name)); m {
	case SmearFermi, SmearGaussian, SmearMethfesselPaxton:
		return m, nil
	}
	return "", errors.Wrapf(ErrInvalidConfiguration, "unrecognized smearing function %q", name)
}

// Fermi is the Fermi-Dirac occupation written so that exp never overflows.
func Fermi(energy, beta, mu float64) float64 {
	e := energy - mu
	num := 1.0
	if e > 0 {
		num = math.Exp(-beta * e)
	}
	return num / (1 + math.Exp(-beta*math.Abs(e)))
}

func Gaussian(energy, beta, mu float64) float64 {
	return 0.5 * math.Erfc(beta*(energy-mu))
}

// MethfesselPaxton is the order-N Methfessel-Paxton occupation,
// S_N(x) = erfc(x)/2 + sum_{n=1..N} A_n H_{2n-1}(x) exp(-x^2).
func MethfesselPaxton(energy, beta, mu float64, order int) float64 {
	x := beta * (energy - mu)
	s := 0.5 * math.Erfc(x)
	for n := 1; n <= order; n++ {
		s += mpCoeff(n) * Hermite(2*n-1, x) * math.Exp(-x*x)
	}
	return s
}

func mpCoeff(n int) float64 {
	sign := 1.0
	if n%2 == 1 {
		sign = -1.0
	}
	return sign / (math.Gamma(float64(n)+1) * math.Pow(4, float64(n)) * math.Sqrt(math.Pi))
}

// Hermite evaluates the physicists' Hermite polynomial H_k(x).
func Hermite(k int, x float64) float64 {
	if k <= 0 {
		return 1
	}
	hPrev, h := 1.0, 2*x
	for i := 1; i < k; i++ {
		hPrev, h = h, 2*x*h-2*float64(i)*hPrev
	}
	return h
}
