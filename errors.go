// errors.go --  This file is part of goRISB project.
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

import "github.com/pkg/errors"

var (
	// ErrInvalidConfiguration is returned for unusable solver, smearing or input settings.
	ErrInvalidConfiguration = errors.New("risb: invalid configuration")

	// ErrShapeMismatch is returned when histories, blocks or k-grids do not line up.
	ErrShapeMismatch = errors.New("risb: shape mismatch")

	// ErrNumericalFailure is returned when a root finder fails to bracket or converge.
	ErrNumericalFailure = errors.New("risb: numerical failure")

	// ErrSingular is returned when a matrix function needs a non-positive eigenvalue inverted.
	ErrSingular = errors.New("risb: singular matrix")

	// ErrNotSolved is returned when embedding results are read before Solve.
	ErrNotSolved = errors.New("risb: embedding not solved")
)
