// Command qmcwalk runs the walker move benchmark and its verification
// harness.
//
// Exit codes: 0 success, 1 configuration or runtime failure, 2 verification
// tolerance breach.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errVerificationFailed) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "qmcwalk:", err)
		os.Exit(1)
	}
}
