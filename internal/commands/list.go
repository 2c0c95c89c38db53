package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/accredit/internal/config"
	"github.com/dwsmith1983/accredit/internal/reconstruct"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// listColumns are the fields printed per observation.
var listColumns = []string{"id", "student_id", "course", "term", "gai", "achievement_level", "cohort"}

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var (
		dir    string
		params reconstruct.QueryParams
		order  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reconstructed observations",
		RunE: func(cmd *cobra.Command, args []string) error {
			params.SortOrder = types.SortOrder(order)
			return runList(cmd.Context(), cmd.OutOrStdout(), dir, params)
		},
	}
	cmd.Flags().StringVar(&dir, "config-dir", ".", "Directory containing accredit.yaml")
	cmd.Flags().IntVar(&params.Page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&params.PageSize, "page-size", reconstruct.DefaultPageSize, "Rows per page")
	cmd.Flags().StringVar(&params.SortBy, "sort-by", "", "Field to sort by")
	cmd.Flags().StringVar(&order, "sort-order", string(types.SortDesc), "asc or desc")
	return cmd
}

func runList(ctx context.Context, out io.Writer, dir string, q reconstruct.QueryParams) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a, err := newApp(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	page, err := a.flat.List(ctx, q)
	if err != nil {
		return fmt.Errorf("listing observations: %w", err)
	}
	printPage(out, page)
	return nil
}

func printPage(out io.Writer, page types.Page) {
	if page.Pagination.TotalRecords == 0 {
		fmt.Fprintln(out, "No observations recorded.")
		return
	}

	bold := color.New(color.Bold)
	for _, c := range listColumns {
		_, _ = bold.Fprintf(out, "%-*s", width(c), c)
	}
	fmt.Fprintln(out)
	for _, row := range page.Results {
		for _, c := range listColumns {
			fmt.Fprintf(out, "%-*s", width(c), cell(row[c]))
		}
		fmt.Fprintln(out)
	}

	p := page.Pagination
	fmt.Fprintf(out, "\nShowing %d-%d of %d (page %d of %d)\n",
		p.StartRecord, p.EndRecord, p.TotalRecords, p.CurrentPage, p.TotalPages)
}

func width(col string) int {
	if col == "id" {
		return 28
	}
	return max(len(col), 10) + 2
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
