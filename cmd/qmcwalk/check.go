package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qmckit/qmcwalk/detref"
)

// errVerificationFailed marks a tolerance breach; main maps it to a
// distinct exit code so scripts can tell it from setup failures.
var errVerificationFailed = errors.New("verification tolerance exceeded")

func newCheckCmd(rf *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "verify the incremental engine against the reference oracle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := rf.params(cmd)
			if err != nil {
				return err
			}
			log, err := rf.logger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			res, err := detref.Check(p, log)
			if err != nil {
				return err
			}
			if !res.Passed {
				return fmt.Errorf("%w: %g > %g over %d walkers",
					errVerificationFailed, res.PerWalker, res.Tolerance, res.Walkers)
			}

			return nil
		},
	}
}
