package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/accredit/internal/cohort"
)

// NewCohortCmd creates the cohort command.
func NewCohortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cohort PROGRAM_TERM ACADEMIC_TERM",
		Short: "Resolve the term a cohort started in",
		Long: `Walks back PROGRAM_TERM-1 counted terms from ACADEMIC_TERM (YYYYTT, where
TT is 10 for winter, 20 for summer and 30 for fall) and prints the entry term.`,
		Example: "  accredit cohort 3 202530",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCohort(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func runCohort(out io.Writer, progArg, termArg string) error {
	progTerm, err := strconv.Atoi(progArg)
	if err != nil {
		return fmt.Errorf("program term %q is not an integer", progArg)
	}
	term, err := strconv.Atoi(termArg)
	if err != nil {
		return fmt.Errorf("academic term %q is not an integer", termArg)
	}
	c, err := cohort.Resolve(progTerm, term)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d (%s)\n", c, cohort.Label(c))
	return nil
}
