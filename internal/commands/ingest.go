package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/accredit/internal/config"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// NewIngestCmd creates the ingest command.
func NewIngestCmd() *cobra.Command {
	var dir, file, ctxPath string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a gradebook spreadsheet into the six projections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd.OutOrStdout(), dir, file, ctxPath)
		},
	}
	cmd.Flags().StringVar(&dir, "config-dir", ".", "Directory containing accredit.yaml")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Spreadsheet to ingest (.csv, .txt, .xlsx)")
	cmd.Flags().StringVarP(&ctxPath, "context", "c", "", "YAML file holding the observation context")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("context")
	return cmd
}

func runIngest(ctx context.Context, out io.Writer, dir, file, ctxPath string) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	obs, err := loadContext(ctxPath)
	if err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("opening spreadsheet: %w", err)
	}
	defer func() { _ = f.Close() }()

	a, err := newApp(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	report, err := a.orch.IngestFile(ctx, filepath.Base(file), f, obs)
	printReport(out, report)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	if !report.Success {
		return errors.New("some rows were not fully written")
	}
	return nil
}

func printReport(out io.Writer, report types.IngestReport) {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(out, "Batch %s (%s)\n", report.BatchID, report.Policy)

	for _, row := range report.Rows {
		status := color.GreenString("complete")
		switch {
		case row.Compensated:
			status = color.YellowString("compensated")
		case !row.Complete:
			status = color.RedString("partial")
		}
		fmt.Fprintf(out, "  %-26s %-10s cohort=%d level=%.2f %s\n",
			row.ID, row.StudentID, row.Cohort, row.Achievement, status)
		for _, p := range row.Projections {
			if p.OK {
				continue
			}
			detail := p.Error
			if len(p.Errors) > 0 {
				var parts []string
				for _, field := range slices.Sorted(maps.Keys(p.Errors)) {
					parts = append(parts, field+": "+p.Errors[field])
				}
				detail = strings.Join(parts, "; ")
			}
			fmt.Fprintf(out, "    %s %s: %s\n", color.RedString("✗"), p.Kind, detail)
		}
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(out, "  %s line %d: %s\n", color.YellowString("skipped"), s.Line, s.Reason)
	}

	fmt.Fprintln(out)
	if report.Success {
		fmt.Fprintln(out, color.GreenString(report.Message))
	} else {
		msg := report.Message
		if report.Error != "" {
			msg += ": " + report.Error
		}
		fmt.Fprintln(out, color.RedString(msg))
	}
}
