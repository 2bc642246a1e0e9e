package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uday-t-s/car-brand-sales/internal/export"
	"github.com/uday-t-s/car-brand-sales/internal/pipeline"
	"github.com/uday-t-s/car-brand-sales/internal/report"
	"github.com/uday-t-s/car-brand-sales/internal/utils"
)

var (
	cleanInput     inputFlags
	cleanRows      int
	cleanOutput    string
	cleanArrow     string
	cleanReport    string
	cleanNoPreview bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Clean a dataset and preview original vs cleaned rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		path := args[0]
		t, err := cleanInput.read(path)
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		res := pipeline.New(logger.Named("pipeline")).Run(name, t)
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "✅ File loaded: %s\n", name)
		fmt.Fprintf(out, "Rows: %d | Columns: %d\n\n", t.NumRows(), t.NumCols())
		if !cleanNoPreview {
			n := rowsOrDefault(cleanRows, c.DisplayRows, t.NumRows())
			fmt.Fprintf(out, "🧾 Original data (first %d rows):\n%s\n", n, report.Head(t, n))
			m := min(n, res.Cleaned.NumRows())
			fmt.Fprintf(out, "⚙️ Cleaned data (first %d rows):\n%s\n", m, report.Head(res.Cleaned, m))
		}
		fmt.Fprintf(out, "✅ %s\n", res.Status())
		fmt.Fprintf(out, "Categorical columns: %s\n", strings.Join(res.Columns.Categorical, ", "))
		fmt.Fprintf(out, "Numeric columns: %s\n", strings.Join(res.Columns.Numeric, ", "))

		if cleanOutput != "" {
			if err := export.WriteCSVFile(cleanOutput, res.Cleaned); err != nil {
				return fmt.Errorf("write cleaned csv: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote cleaned data to %s\n", cleanOutput)
		}
		if cleanArrow != "" {
			if err := export.WriteArrowFile(cleanArrow, res.Cleaned); err != nil {
				return fmt.Errorf("write arrow: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote Arrow file to %s\n", cleanArrow)
		}
		if cleanReport != "" {
			md := report.Build(res, report.DefaultOptions()).Markdown()
			if err := utils.SafeWriteFile(cleanReport, []byte(md)); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote cleaning report to %s\n", cleanReport)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanInput.register(cleanCmd)
	cleanCmd.Flags().IntVar(&cleanRows, "rows", 0, "rows to preview (default: display_rows, capped at the row count)")
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "write the cleaned rows as CSV")
	cleanCmd.Flags().StringVar(&cleanArrow, "arrow", "", "write the cleaned rows as an Arrow IPC stream")
	cleanCmd.Flags().StringVar(&cleanReport, "report", "", "write a Markdown cleaning report")
	cleanCmd.Flags().BoolVar(&cleanNoPreview, "no-preview", false, "skip the original/cleaned previews")
}
