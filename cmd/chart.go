package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/uday-t-s/car-brand-sales/internal/chart"
	"github.com/uday-t-s/car-brand-sales/internal/pipeline"
	"github.com/uday-t-s/car-brand-sales/internal/utils"
)

var (
	chartInput  inputFlags
	chartKind   string
	chartX      string
	chartY      string
	chartColor  string
	chartOutput string
	chartFormat string
	chartRows   int
	chartAll    bool
	chartWidth  int
	chartHeight int
)

var chartCmd = &cobra.Command{
	Use:   "chart <file>",
	Short: "Clean a dataset and render a bar, box, scatter or pie chart",
	Long: `Clean a dataset and render one chart from the first --rows cleaned rows
(or every cleaned row with --all). Pie charts take their names column from --x.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		kind, err := chart.ParseKind(chartKind)
		if err != nil {
			return err
		}

		format := chart.PNG
		output := chartOutput
		switch {
		case chartFormat != "":
			if format, err = chart.ParseFormat(chartFormat); err != nil {
				return err
			}
		case output != "":
			format = chart.FormatFor(output)
		}
		if output == "" {
			output = kind.Slug() + format.Ext()
		}

		t, err := chartInput.read(args[0])
		if err != nil {
			return err
		}
		p := pipeline.New(logger.Named("pipeline"))
		cleaned := p.Clean(t)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✅ %s\n", pipeline.StatusLine(filepath.Base(args[0]), cleaned.NumRows()))

		spec, err := chart.Resolve(chart.Request{Kind: kind, X: chartX, Y: chartY, Color: chartColor}, p.Classify(cleaned))
		if err != nil {
			return err
		}
		data := cleaned
		if !chartAll {
			data = cleaned.Head(rowsOrDefault(chartRows, c.DisplayRows, cleaned.NumRows()))
		}

		width, height := c.ChartWidth, c.ChartHeight
		if chartWidth > 0 {
			width = chartWidth
		}
		if chartHeight > 0 {
			height = chartHeight
		}
		r := chart.NewRenderer(width, height)
		err = utils.WriteFileWith(output, func(w io.Writer) error {
			return r.Render(w, spec, data, format)
		})
		if errors.Is(err, chart.ErrNoData) {
			fmt.Fprintf(out, "📊 %s\n", chart.Placeholder)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Wrote %s (%d rows) to %s\n", spec.Title, data.NumRows(), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartInput.register(chartCmd)
	chartCmd.Flags().StringVarP(&chartKind, "kind", "k", "bar", "chart type: bar | box | scatter | pie")
	chartCmd.Flags().StringVarP(&chartX, "x", "x", "", "x-axis column (names column for pie)")
	chartCmd.Flags().StringVarP(&chartY, "y", "y", "", "y-axis column (numeric)")
	chartCmd.Flags().StringVar(&chartColor, "color", "", "scatter: column to color points by (default: x)")
	chartCmd.Flags().StringVarP(&chartOutput, "output", "o", "", "output image path (default: <kind>.png)")
	chartCmd.Flags().StringVar(&chartFormat, "format", "", "image format: png | svg (default by extension)")
	chartCmd.Flags().IntVar(&chartRows, "rows", 0, "chart the first N cleaned rows (default: display_rows)")
	chartCmd.Flags().BoolVar(&chartAll, "all", false, "chart every cleaned row")
	chartCmd.Flags().IntVar(&chartWidth, "width", 0, "image width in pixels (overrides chart_width)")
	chartCmd.Flags().IntVar(&chartHeight, "height", 0, "image height in pixels (overrides chart_height)")
}
