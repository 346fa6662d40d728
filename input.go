// input.go --  This file is part of goRISB project.
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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Input is the content of a goRISB input file:
//
//	Solver
//	  history 6
//	  restart 0
//	  tol 1e-8
//	  maxiter 200
//	  alpha 1.0
//	  rule diis
//	  verbose true
//	End
//	KWeight
//	  beta 40
//	  ntarget 2        (or: mu 0.5)
//	  method fermi
//	  order 1
//	End
//	Model
//	  u 2
//	  t 1
//	  mu 1
//	  nk 16
//	  dim 2
//	End
//
// Keywords are case insensitive, '#' starts a comment.
type Input struct {
	Solver  SolverConfig
	Options SolveOptions
	Rule    string
	Beta    float64
	Mu      *float64
	NTarget *float64
	Method  SmearingMethod
	MPOrder int
	Model   HubbardModel
	hasKW   bool
	hasMod  bool
}

// LoadInput reads and parses an input file.
func LoadInput(fname string) (Input, error) {
	data, err := ReadFileLines(fname)
	if err != nil {
		ErrorLogger.Println("Cannot read input file: ", err)
		return Input{}, err
	}
	return ParseInput(data)
}

func ParseInput(data []string) (Input, error) {
	inp := Input{
		Solver:  DefaultSolverConfig(),
		Options: DefaultSolveOptions(),
		Rule:    "linear",
		Method:  SmearFermi,
		MPOrder: 1,
		Model:   HubbardModel{T: 1, NK: 8, Dim: 1},
	}
	for i := 0; i < len(data); i++ {
		words := fields(data[i])
		if len(words) == 0 {
			continue
		}
		switch strings.ToLower(words[0]) {
		case "solver":
			end, err := findBlockEnd(i, data, "Solver")
			if err != nil {
				return Input{}, err
			}
			OutputLogger.Print("Parsing input. Solver block found at lines ", i, " -- ", end, ".")
			if err := inp.parseSolver(data[i+1 : end]); err != nil {
				return Input{}, err
			}
			i = end
		case "kweight":
			end, err := findBlockEnd(i, data, "KWeight")
			if err != nil {
				return Input{}, err
			}
			OutputLogger.Print("Parsing input. KWeight block found at lines ", i, " -- ", end, ".")
			if err := inp.parseKWeight(data[i+1 : end]); err != nil {
				return Input{}, err
			}
			inp.hasKW = true
			i = end
		case "model":
			end, err := findBlockEnd(i, data, "Model")
			if err != nil {
				return Input{}, err
			}
			OutputLogger.Print("Parsing input. Model block found at lines ", i, " -- ", end, ".")
			if err := inp.parseModel(data[i+1 : end]); err != nil {
				return Input{}, err
			}
			inp.hasMod = true
			i = end
		default:
			return Input{}, errors.Wrapf(ErrInvalidConfiguration, "line %d: unknown block %q", i+1, words[0])
		}
	}
	return inp, nil
}

func fields(line string) []string {
	if idx := strings.Index(line, "#"); idx >= 0 {
		line = line[:idx]
	}
	return strings.Fields(line)
}

func findBlockEnd(n int, data []string, bname string) (int, error) {
	for i := n + 1; i < len(data); i++ {
		words := fields(data[i])
		if len(words) > 0 && strings.ToLower(words[0]) == "end" {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidConfiguration, "no end of block %s", bname)
}

func keyValue(line string) (string, string, bool, error) {
	words := fields(line)
	if len(words) == 0 {
		return "", "", false, nil
	}
	if len(words) != 2 {
		return "", "", false, errors.Wrapf(ErrInvalidConfiguration, "expected 'key value', got %q", strings.TrimSpace(line))
	}
	return strings.ToLower(words[0]), words[1], true, nil
}

func parseFloat(key, val string) (float64, error) {
	x, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidConfiguration, "%s: %v", key, err)
	}
	return x, nil
}

func parseInt(key, val string) (int, error) {
	x, err := strconv.Atoi(val)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidConfiguration, "%s: %v", key, err)
	}
	return x, nil
}

func (inp *Input) parseSolver(lines []string) error {
	for _, line := range lines {
		key, val, ok, err := keyValue(line)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		switch key {
		case "history":
			inp.Solver.HistorySize, err = parseInt(key, val)
		case "restart":
			inp.Solver.NRestart, err = parseInt(key, val)
		case "verbose":
			inp.Solver.Verbose, err = strconv.ParseBool(val)
			if err != nil {
				err = errors.Wrapf(ErrInvalidConfiguration, "%s: %v", key, err)
			}
		case "tol":
			inp.Options.Tol, err = parseFloat(key, val)
		case "maxiter":
			inp.Options.MaxIter, err = parseInt(key, val)
		case "alpha":
			inp.Options.Alpha, err = parseFloat(key, val)
		case "rule":
			inp.Rule = strings.ToLower(val)
		default:
			err = errors.Wrapf(ErrInvalidConfiguration, "unknown solver keyword %q", key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (inp *Input) parseKWeight(lines []string) error {
	for _, line := range lines {
		key, val, ok, err := keyValue(line)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		switch key {
		case "beta":
			inp.Beta, err = parseFloat(key, val)
		case "mu":
			var mu float64
			mu, err = parseFloat(key, val)
			inp.Mu = &mu
		case "ntarget", "n_target":
			var n float64
			n, err = parseFloat(key, val)
			inp.NTarget = &n
		case "method":
			inp.Method, err = ParseSmearingMethod(val)
		case "order":
			inp.MPOrder, err = parseInt(key, val)
		default:
			err = errors.Wrapf(ErrInvalidConfiguration, "unknown kweight keyword %q", key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (inp *Input) parseModel(lines []string) error {
	for _, line := range lines {
		key, val, ok, err := keyValue(line)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		switch key {
		case "u":
			inp.Model.U, err = parseFloat(key, val)
		case "t":
			inp.Model.T, err = parseFloat(key, val)
		case "mu":
			inp.Model.Mu, err = parseFloat(key, val)
		case "nk":
			inp.Model.NK, err = parseInt(key, val)
		case "dim":
			inp.Model.Dim, err = parseInt(key, val)
		default:
			err = errors.Wrapf(ErrInvalidConfiguration, "unknown model keyword %q", key)
		}
		if err != nil {
			return err
		}
	}
	return inp.Model.validate()
}

// NewSolver builds the root solver with the configured update rule.
func (inp Input) NewSolver() (*NewtonSolver, error) {
	rule, err := NewUpdateRule(inp.Rule)
	if err != nil {
		return nil, err
	}
	return NewNewtonSolver(rule, inp.Solver)
}

// NewKWeight builds the smearing weights of the KWeight block.
func (inp Input) NewKWeight() (*SmearingKWeight, error) {
	if !inp.hasKW {
		return nil, errors.Wrap(ErrInvalidConfiguration, "no KWeight block")
	}
	opts := []KWeightOption{WithMethod(inp.Method), WithMPOrder(inp.MPOrder)}
	if inp.Mu != nil {
		opts = append(opts, WithMu(*inp.Mu))
	}
	if inp.NTarget != nil {
		opts = append(opts, WithNTarget(*inp.NTarget))
	}
	return NewSmearingKWeight(inp.Beta, opts...)
}

// NewLatticeSolver wires the Model, KWeight and Solver blocks into a
// self-consistency driver with an exact-diagonalization embedding.
func (inp Input) NewLatticeSolver() (*LatticeSolver, error) {
	if !inp.hasMod {
		return nil, errors.Wrap(ErrInvalidConfiguration, "no Model block")
	}
	kw, err := inp.NewKWeight()
	if err != nil {
		return nil, err
	}
	solver, err := inp.NewSolver()
	if err != nil {
		return nil, err
	}
	h0k, err := inp.Model.Dispersion()
	if err != nil {
		return nil, err
	}
	gf := inp.Model.GFStruct()
	emb, err := NewEmbeddingAtomDiag(inp.Model.HLoc(), gf)
	if err != nil {
		return nil, err
	}
	return NewLatticeSolver(h0k, []GFStruct{gf}, []Embedding{emb}, kw, solver)
}
