// history.go --  This file is part of goRISB project.
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

// History is a most-recent-first sequence of iterates.
type History []Blocks

// Clone deep-copies every entry.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	result := make(History, len(h))
	for i := range h {
		result[i] = h[i].Clone()
	}
	return result
}

// InsertVector prepends v to seq. When the new length reaches maxSize the
// oldest entry is dropped, so a capped history never holds more than
// maxSize-1 entries. maxSize <= 0 disables eviction.
func InsertVector(seq History, v Blocks, maxSize int) History {
	result := make(History, 0, len(seq)+1)
	result = append(result, v)
	result = append(result, seq...)
	if maxSize > 0 && len(result) >= maxSize {
		result = result[:len(result)-1]
	}
	return result
}

// LoadHistory returns copies of the guess and residual histories with the
// oldest entries evicted until each is shorter than maxSize. A guess may be
// recorded before its residual, so x is allowed one more entry than errs.
func LoadHistory(x, errs History, maxSize int) (History, History, error) {
	if len(x) != len(errs) && len(x) != len(errs)+1 {
		return nil, nil, errors.Wrapf(ErrShapeMismatch, "history lengths x=%d, error=%d", len(x), len(errs))
	}

	xOut := x.Clone()
	errOut := errs.Clone()
	if maxSize <= 0 {
		return xOut, errOut, nil
	}
	for len(xOut) >= maxSize {
		xOut = xOut[:len(xOut)-1]
	}
	for len(errOut) >= maxSize {
		errOut = errOut[:len(errOut)-1]
	}
	return xOut, errOut, nil
}
