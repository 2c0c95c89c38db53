package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/accredit/internal/config"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show storage health, projection counts and incomplete observations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout(), dir)
		},
	}
	cmd.Flags().StringVar(&dir, "config-dir", ".", "Directory containing accredit.yaml")
	return cmd
}

func runStatus(out io.Writer, dir string) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := newApp(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(out, "Provider: %s\n", cfg.Provider)
	if err := a.prov.Ping(ctx); err != nil {
		fmt.Fprintf(out, "  Health:   %s (%v)\n", color.RedString("DEGRADED"), err)
		return nil
	}
	fmt.Fprintf(out, "  Health:   %s\n", color.GreenString("OK"))
	fmt.Fprintf(out, "  Policies: ingest=%s flatten=%s\n", a.orch.Policy(), a.flat.Policy())

	fmt.Fprintln(out)
	_, _ = bold.Fprintln(out, "Projections:")
	for _, adm := range a.set.All() {
		ids, err := adm.IDs(ctx)
		if err != nil {
			return fmt.Errorf("listing %s: %w", adm.Kind(), err)
		}
		fmt.Fprintf(out, "  %-15s %d\n", adm.Kind(), len(ids))
	}

	partial, err := a.flat.Incomplete(ctx)
	if err != nil {
		return fmt.Errorf("finding incomplete observations: %w", err)
	}
	fmt.Fprintln(out)
	if len(partial) == 0 {
		_, _ = color.New(color.FgGreen).Fprintln(out, "No incomplete observations.")
		return nil
	}
	_, _ = bold.Fprintf(out, "Incomplete observations (%d):\n", len(partial))
	for _, p := range partial {
		missing := make([]string, len(p.Missing))
		for i, k := range p.Missing {
			missing[i] = string(k)
		}
		fmt.Fprintf(out, "  %s  missing %s\n", p.ID, color.RedString(strings.Join(missing, ", ")))
	}
	return nil
}
