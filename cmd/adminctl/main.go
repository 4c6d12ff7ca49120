// Command adminctl manages the catalog list screens from a terminal. It
// drives the same list engine as the web pages over the JSON API.
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
