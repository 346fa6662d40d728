// log_test.go --  This file is part of goRISB project.
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
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// TestVerboseSolverLogging writes one line per iteration plus a summary.
func TestVerboseSolverLogging(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(io.Discard)

	s, err := NewNewtonSolver(LinearMixing{}, SolverConfig{HistorySize: 2, Verbose: true})
	require.NoError(t, err)
	fun := func(x Blocks) (Blocks, Blocks, error) {
		res := Blocks{mat.NewDense(1, 1, []float64{1 - x[0].At(0, 0)})}
		return x.AddScaled(1, res), res, nil
	}
	_, err = s.Solve(fun, Blocks{mat.NewDense(1, 1, nil)}, SolveOptions{Tol: 1e-12, MaxIter: 10, Alpha: 1})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "n: 0, norm(risb): 1, rms(risb): 1")
	assert.Contains(t, out, "n: 1, norm(risb): 0")
	assert.Contains(t, out, "The solution converged. nit: 1")
}

func TestInitLog(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "risb.log")
	file, err := InitLog(fname)
	require.NoError(t, err)
	defer SetLogOutput(io.Discard)

	WarningLogger.Println("history evicted")
	printOutputDelimiter()
	require.NoError(t, file.Close())

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Contains(t, string(data), "WARNING: ")
	assert.Contains(t, string(data), "history evicted")
	assert.Contains(t, string(data), "------")
}
