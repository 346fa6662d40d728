// solver.go --  This file is part of goRISB project.
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
	"gonum.org/v1/gonum/stat"
)

// ResidualFunc evaluates the fixed-point map at x and returns g(x) together
// with the error vector, usually g(x) - x. Both must have the shape of x.
type ResidualFunc func(x Blocks) (gx, residual Blocks, err error)

// Subspace is what an UpdateRule sees at one iteration: the current iterate
// and the bounded histories, most recent first. When history retention is on,
// XHist[0], GXHist[0] and ErrorHist[0] are the current iterate.
type Subspace struct {
	X, GX, Error             Blocks
	XHist, GXHist, ErrorHist History
}

// UpdateRule proposes the next guess of a quasi-Newton iteration.
// Implementations must be deterministic, read nothing outside s, and return
// a guess with the block shapes of s.X even when the histories are empty.
type UpdateRule interface {
	UpdateX(s Subspace, alpha float64) (Blocks, error)
}

// SolverConfig is fixed for the lifetime of a NewtonSolver.
type SolverConfig struct {
	HistorySize int  // entries kept per history; 0 keeps none
	NRestart    int  // histories are cleared when n%NRestart == 0; 0 never restarts
	Verbose     bool // per-iteration norms to OutputLogger
}

func DefaultSolverConfig() SolverConfig {
	return SolverConfig{HistorySize: 6}
}

// SolveOptions are given fresh to every Solve call.
type SolveOptions struct {
	Tol     float64
	MaxIter int
	Alpha   float64
}

func DefaultSolveOptions() SolveOptions {
	return SolveOptions{Tol: 1e-12, MaxIter: 1000, Alpha: 1.0}
}

// NewtonSolver drives a fixed-point iteration x -> UpdateRule(x, g(x), ...)
// until the residual 2-norm falls below the tolerance.
type NewtonSolver struct {
	cfg  SolverConfig
	rule UpdateRule

	x, gx, errs History

	n          int
	iterations int
	success    bool
	norm       float64
}

func NewNewtonSolver(rule UpdateRule, cfg SolverConfig) (*NewtonSolver, error) {
	if rule == nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, "newton solver needs an update rule")
	}
	if cfg.HistorySize < 0 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "history size %d", cfg.HistorySize)
	}
	if cfg.NRestart < 0 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "restart period %d", cfg.NRestart)
	}
	return &NewtonSolver{cfg: cfg, rule: rule, norm: math.Inf(1)}, nil
}

// Solve looks for x with fun(x) residual below opts.Tol, starting at x0.
// Running out of iterations is not an error: the last guess is returned and
// Success reports false. Errors from fun and from the update rule are
// returned as they are.
func (s *NewtonSolver) Solve(fun ResidualFunc, x0 Blocks, opts SolveOptions) (Blocks, error) {
	if opts.MaxIter < 0 || opts.Tol < 0 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "tol=%g maxiter=%d", opts.Tol, opts.MaxIter)
	}

	s.success = false
	s.norm = math.Inf(1)
	s.n = 0
	s.iterations = 0
	s.x, s.gx, s.errs = nil, nil, nil

	x := x0.Clone()
	if s.cfg.HistorySize > 0 {
		s.x = InsertVector(s.x, x.Clone(), s.cfg.HistorySize)
	}

	for n := 0; n < opts.MaxIter; n++ {
		s.n = n

		gx, residual, err := fun(x.Clone())
		if err != nil {
			return x, err
		}
		s.iterations++
		if !gx.SameShape(x) || !residual.SameShape(x) {
			return x, errors.Wrapf(ErrShapeMismatch, "residual function at iteration %d", n)
		}

		if s.cfg.HistorySize > 0 {
			s.gx = InsertVector(s.gx, gx.Clone(), s.cfg.HistorySize)
			s.errs = InsertVector(s.errs, residual.Clone(), s.cfg.HistorySize)
		}

		s.norm = residual.Norm()
		if s.cfg.Verbose {
			OutputLogger.Printf("n: %d, norm(risb): %g, rms(risb): %g", n, s.norm, rms(residual))
		}
		if s.norm < opts.Tol {
			s.success = true
			break
		}

		sub := Subspace{
			X:         x.Clone(),
			GX:        gx.Clone(),
			Error:     residual.Clone(),
			XHist:     s.x.Clone(),
			GXHist:    s.gx.Clone(),
			ErrorHist: s.errs.Clone(),
		}
		xNew, err := s.rule.UpdateX(sub, opts.Alpha)
		if err != nil {
			return x, err
		}
		if !xNew.SameShape(x) {
			return x, errors.Wrapf(ErrShapeMismatch, "update rule at iteration %d", n)
		}

		if s.cfg.NRestart > 0 && n%s.cfg.NRestart == 0 {
			s.x, s.gx, s.errs = nil, nil, nil
		}

		if s.cfg.HistorySize > 0 {
			s.x = InsertVector(s.x, xNew.Clone(), s.cfg.HistorySize)
		}
		x = xNew
	}

	if s.cfg.Verbose {
		if s.success {
			OutputLogger.Printf("The solution converged. nit: %d, tol: %g", s.n, s.norm)
		} else {
			WarningLogger.Printf("The solution did NOT converge. nit: %d, tol: %g", s.n, s.norm)
		}
	}
	return x, nil
}

// Success reports whether the last Solve reached the tolerance.
func (s *NewtonSolver) Success() bool { return s.success }

// N is the index of the last iteration run.
func (s *NewtonSolver) N() int { return s.n }

// Iterations is the number of residual evaluations of the last Solve.
func (s *NewtonSolver) Iterations() int { return s.iterations }

// Norm is the 2-norm of the last residual.
func (s *NewtonSolver) Norm() float64 { return s.norm }

// History returns copies of the guess, image and residual histories.
func (s *NewtonSolver) History() (x, gx, errs History) {
	return s.x.Clone(), s.gx.Clone(), s.errs.Clone()
}

func rms(b Blocks) float64 {
	data := b.Flatten()
	if len(data) == 0 {
		return 0
	}
	for i := range data {
		data[i] *= data[i]
	}
	return math.Sqrt(stat.Mean(data, nil))
}
