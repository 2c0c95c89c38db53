package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/accredit/internal/commands"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "accredit",
		Short: "Outcome-assessment pipeline for engineering program accreditation",
		Long: `accredit ingests per-student assessment scores, derives achievement levels
and entry cohorts, and fans each observation out into six reporting projections
(process, faculty, program, validity, accreditation and annual). The projections
can be reconstructed into flat, sortable observation listings.`,
		Version: version,
	}

	root.AddCommand(
		commands.NewInitCmd(),
		commands.NewIngestCmd(),
		commands.NewListCmd(),
		commands.NewCohortCmd(),
		commands.NewStatusCmd(),
		commands.NewServeCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
