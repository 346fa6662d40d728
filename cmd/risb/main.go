// main.go --  This file is part of goRISB project.
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
package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"risb"
)

func appInfo() {
	risb.OutputLogger.Println("\n   goRISB | rotationally invariant slave bosons\n" +
		"          | Have Fun!!!")
}

func main() {
	runtime.GOMAXPROCS(1)

	var inpFname, outFname string
	if len(os.Args) > 1 {
		inpFname = os.Args[1]
		splitInpFname := strings.Split(inpFname, ".")
		fExt := splitInpFname[len(splitInpFname)-1]
		outFname = inpFname[0:(len(inpFname)-len(fExt))] + "out"
		fmt.Println("Output file: ", outFname)
	} else {
		log.Fatal("No input file.")
	}

	file, err := risb.InitLog(outFname)
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	risb.InfoLogger.Println("Starting goRISB...")
	appInfo()

	risb.OutputLogger.Println("Input file content:")
	inpData, err := risb.ReadFileLines(inpFname)
	if err != nil {
		risb.ErrorLogger.Fatal("Cannot read input file: ", err)
	}
	for _, i := range inpData {
		risb.OutputLogger.Println(i)
	}

	inp, err := risb.ParseInput(inpData)
	if err != nil {
		risb.ErrorLogger.Fatal("Parsing input: ", err)
	}
	ls, err := inp.NewLatticeSolver()
	if err != nil {
		risb.ErrorLogger.Fatal("Setting up RISB: ", err)
	}
	if err := ls.Solve(inp.Options); err != nil {
		risb.ErrorLogger.Fatal(err)
	}

	risb.OutputLogger.Println("Chemical potential = ", ls.Mu)
	z := ls.Z()
	for i := 0; i < ls.NClusters(); i++ {
		for _, bl := range inp.Model.GFStruct() {
			risb.OutputLogger.Println("Cluster", i, "block", bl.Name)
			risb.OutputLogger.Println("  R:")
			risb.PrintDense(ls.R[i][bl.Name])
			risb.OutputLogger.Println("  Lambda:")
			risb.PrintDense(ls.Lambda[i][bl.Name])
			risb.OutputLogger.Println("  Z:")
			risb.PrintDense(z[i][bl.Name])
		}

		emb := ls.Embedding(i)
		docc, err := emb.Overlap(risb.N("up", 0).Times(risb.N("dn", 0)))
		if err != nil {
			risb.ErrorLogger.Fatal(err)
		}
		risb.OutputLogger.Println("Embedding ground state energy = ", emb.GSEnergy())
		risb.OutputLogger.Println("Double occupancy = ", docc)
	}

	if ls.Success() {
		fmt.Println("goRISB converged, Z =", z[0]["up"].At(0, 0), "mu =", ls.Mu)
	} else {
		fmt.Println("goRISB did NOT converge, see", outFname)
	}
	risb.InfoLogger.Println("Exiting goRISB...")
}
