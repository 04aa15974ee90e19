// Command reshape converts a long-format radiomics export into the wide
// one-row-per-patient layout without running the web service.
//
//	reshape transform study.xlsx --out wide.csv
//	reshape transform study.xlsx --format xlsx --sheet Data
//	reshape vocabulary
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
