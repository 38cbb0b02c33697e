package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Execute is the CLI entrypoint.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints the error line followed by every wrapped layer, outermost
// first.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "[!] A critical error occurred: %v\n", err)
	for depth, e := 0, err; e != nil; depth, e = depth+1, errors.Unwrap(e) {
		fmt.Fprintf(w, "    #%d %T: %v\n", depth, e, e)
	}
}
