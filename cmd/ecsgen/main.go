// Command ecsgen compiles a declarative ECS specification into a
// validated, scheduled, emission-ready model and expands it through a
// template set into target-language source.
//
// Usage:
//
//	ecsgen generate <spec-file>   run the full pipeline and write output
//	ecsgen validate <spec-file>   run Load through Schedule only
//	ecsgen info                   print pipeline stages and loaded config
//	ecsgen version                print the build version
package main

import (
	"fmt"
	"os"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ecsgen: %v\n", err)
		os.Exit(1)
	}
}
