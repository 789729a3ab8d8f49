package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Verbose controls whether progress lines and timing statistics are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where progress lines and timing statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// Logf prints one progress line to Output when Verbose is set.
func Logf(format string, args ...interface{}) {
	if !Verbose {
		return
	}
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	fmt.Fprintf(Output, format, args...)
}
