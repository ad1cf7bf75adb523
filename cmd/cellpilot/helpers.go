package main

import (
	"fmt"
	"os"
)

// exitOnError prints the error and exits. Used for failures that are
// not expected planning conditions.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
