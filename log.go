// log.go --  This file is part of goRISB project.
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
	"io"
	"log"
	"os"
	"strings"
)

var (
	WarningLogger *log.Logger
	InfoLogger    *log.Logger
	ErrorLogger   *log.Logger
	OutputLogger  *log.Logger
)

func init() {
	SetLogOutput(io.Discard)
}

// SetLogOutput points all package loggers at w.
func SetLogOutput(w io.Writer) {
	InfoLogger = log.New(w, "INFO: ", log.Ldate|log.Ltime)
	WarningLogger = log.New(w, "WARNING: ", log.Ldate|log.Ltime)
	ErrorLogger = log.New(w, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	OutputLogger = log.New(w, "", 0)
}

// InitLog appends all package logging to fname. The returned file should be
// closed by the caller once logging is done.
func InitLog(fname string) (*os.File, error) {
	file, err := os.OpenFile(fname, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	SetLogOutput(file)
	return file, nil
}

func printOutputDelimiter() {
	OutputLogger.Println(strings.Repeat("-", 70))
}
