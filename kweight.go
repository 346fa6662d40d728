// kweight.go --  This file is part of goRISB project.
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
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// WeightUpdater turns band energies on a k-grid into integration weights.
// Mu is the chemical potential used by the last update.
type WeightUpdater interface {
	UpdateWeights(energies map[string]*mat.Dense) (map[string]*mat.Dense, error)
	Mu() float64
}

// SmearingKWeight obtains weights for k-space integrals from a smearing
// function. Energies of a block are stored as a matrix with one row per
// k-point and one column per band.
type SmearingKWeight struct {
	beta     float64
	mu       float64
	nTarget  float64
	fixedMu  bool
	hasN     bool
	method   SmearingMethod
	mpOrder  int
	smear    func(e, beta, mu float64) float64
	energies map[string]*mat.Dense
	weights  map[string]*mat.Dense
	nk       int
}

type KWeightOption func(*SmearingKWeight)

// WithMu fixes the chemical potential.
func WithMu(mu float64) KWeightOption {
	return func(kw *SmearingKWeight) {
		kw.mu = mu
		kw.fixedMu = true
	}
}

// WithNTarget sets the lattice filling per unit cell; mu is then solved for.
func WithNTarget(n float64) KWeightOption {
	return func(kw *SmearingKWeight) {
		kw.nTarget = n
		kw.hasN = true
	}
}

func WithMethod(m SmearingMethod) KWeightOption {
	return func(kw *SmearingKWeight) { kw.method = m }
}

// WithMPOrder sets the Methfessel-Paxton order (default 1).
func WithMPOrder(order int) KWeightOption {
	return func(kw *SmearingKWeight) { kw.mpOrder = order }
}

// NewSmearingKWeight needs beta > 0 and exactly one of WithMu or WithNTarget.
func NewSmearingKWeight(beta float64, opts ...KWeightOption) (*SmearingKWeight, error) {
	kw := &SmearingKWeight{beta: beta, method: SmearFermi, mpOrder: 1}
	for _, o := range opts {
		o(kw)
	}

	if !(beta > 0) || math.IsInf(beta, 0) {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "inverse temperature %g", beta)
	}
	if kw.fixedMu == kw.hasN {
		return nil, errors.Wrap(ErrInvalidConfiguration, "exactly one of mu or n_target must be given")
	}
	if kw.mpOrder < 0 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "methfessel-paxton order %d", kw.mpOrder)
	}

	switch kw.method {
	case SmearFermi:
		kw.smear = Fermi
	case SmearGaussian:
		kw.smear = Gaussian
	case SmearMethfesselPaxton:
		order := kw.mpOrder
		kw.smear = func(e, beta, mu float64) float64 {
			return MethfesselPaxton(e, beta, mu, order)
		}
	default:
		return nil, errors.Wrapf(ErrInvalidConfiguration, "unrecognized smearing function %q", kw.method)
	}
	return kw, nil
}

// UpdateWeights stores energies, solves for mu when a filling target is set,
// and returns weight = smear(e)/n_k per block. Nothing is stored if any step
// fails.
func (kw *SmearingKWeight) UpdateWeights(energies map[string]*mat.Dense) (map[string]*mat.Dense, error) {
	nk, err := commonNK(energies)
	if err != nil {
		return nil, err
	}
	labels := sortedLabels(energies)

	mu := kw.mu
	if kw.hasN {
		mu, err = kw.solveMu(energies, labels, nk)
		if err != nil {
			return nil, err
		}
	}

	weights := make(map[string]*mat.Dense, len(energies))
	for _, bl := range labels {
		w := mat.DenseCopyOf(energies[bl])
		w.Apply(func(_, _ int, e float64) float64 {
			return kw.smear(e, kw.beta, mu) / float64(nk)
		}, w)
		weights[bl] = w
	}

	kw.energies = copyBlockMap(energies)
	kw.nk = nk
	kw.mu = mu
	kw.weights = weights
	return copyBlockMap(weights), nil
}

func (kw *SmearingKWeight) solveMu(energies map[string]*mat.Dense, labels []string, nk int) (float64, error) {
	eMin := math.Inf(1)
	eMax := math.Inf(-1)
	for _, bl := range labels {
		data := denseData(energies[bl])
		eMin = math.Min(eMin, floats.Min(data))
		eMax = math.Max(eMax, floats.Max(data))
	}

	target := func(mu float64) float64 {
		n := 0.0
		for _, bl := range labels {
			r, c := energies[bl].Dims()
			for i := 0; i < r; i++ {
				for j := 0; j < c; j++ {
					n += kw.smear(energies[bl].At(i, j), kw.beta, mu)
				}
			}
		}
		return n/float64(nk) - kw.nTarget
	}

	mu, err := brentq(target, eMin, eMax, brentXTol, brentRTol, brentMaxIter)
	if err != nil {
		return 0, errors.WithMessagef(err, "chemical potential for n_target=%g", kw.nTarget)
	}
	return mu, nil
}

func commonNK(energies map[string]*mat.Dense) (int, error) {
	if len(energies) == 0 {
		return 0, errors.Wrap(ErrShapeMismatch, "no energy blocks")
	}
	nk := -1
	for _, bl := range sortedLabels(energies) {
		if energies[bl] == nil {
			return 0, errors.Wrapf(ErrShapeMismatch, "block %q has no energies", bl)
		}
		r, _ := energies[bl].Dims()
		if nk < 0 {
			nk = r
		} else if r != nk {
			return 0, errors.Wrapf(ErrShapeMismatch, "blocks must be on the same sized grid: %q has %d k-points, expected %d", bl, r, nk)
		}
	}
	return nk, nil
}

func (kw *SmearingKWeight) Beta() float64            { return kw.beta }
func (kw *SmearingKWeight) Mu() float64              { return kw.mu }
func (kw *SmearingKWeight) NTarget() (float64, bool) { return kw.nTarget, kw.hasN }
func (kw *SmearingKWeight) Method() SmearingMethod   { return kw.method }
func (kw *SmearingKWeight) NK() int                  { return kw.nk }

// Energies returns a copy of the energies of the last successful update.
func (kw *SmearingKWeight) Energies() map[string]*mat.Dense { return copyBlockMap(kw.energies) }

// Weights returns a copy of the weights of the last successful update.
func (kw *SmearingKWeight) Weights() map[string]*mat.Dense { return copyBlockMap(kw.weights) }

func sortedLabels[V any](m map[string]V) []string {
	labels := maps.Keys(m)
	slices.Sort(labels)
	return labels
}

func copyBlockMap(m map[string]*mat.Dense) map[string]*mat.Dense {
	if m == nil {
		return nil
	}
	result := make(map[string]*mat.Dense, len(m))
	for k, v := range m {
		result[k] = mat.DenseCopyOf(v)
	}
	return result
}
