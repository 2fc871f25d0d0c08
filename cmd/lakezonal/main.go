// Command lakezonal extracts per-lake zonal statistics from gridded
// climate and water-quality rasters.
package main

import (
	"fmt"
	"os"

	"github.com/hab-forecasting/lakezonal/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
