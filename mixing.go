// mixing.go --  This file is part of goRISB project.
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
	"strings"

	"github.com/pkg/errors"
)

// LinearMixing steps along the residual: x + alpha*error.
type LinearMixing struct{}

func (LinearMixing) UpdateX(s Subspace, alpha float64) (Blocks, error) {
	return s.X.AddScaled(alpha, s.Error), nil
}

// NewUpdateRule builds an update rule by name: "linear" or "diis".
func NewUpdateRule(name string) (UpdateRule, error) {
	switch strings.ToLower(name) {
	case "linear", "linear-mixing":
		return LinearMixing{}, nil
	case "diis", "pulay", "anderson":
		return DIIS{}, nil
	}
	return nil, errors.Wrapf(ErrInvalidConfiguration, "unknown update rule %q", name)
}
