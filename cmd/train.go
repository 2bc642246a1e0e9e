package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/uday-t-s/car-brand-sales/internal/export"
	"github.com/uday-t-s/car-brand-sales/internal/report"
	"github.com/uday-t-s/car-brand-sales/internal/table"
	"github.com/uday-t-s/car-brand-sales/internal/train"
)

var (
	trainModel       string
	trainLabel       string
	trainCategorical []string
	trainTrees       int
	trainTestSize    float64
	trainSeed        int64

	predictModel  string
	predictInput  inputFlags
	predictOutput string
)

var trainCmd = &cobra.Command{
	Use:   "train <file.csv>",
	Short: "Train the brand classifier and save it with its encoders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		opt := train.Options{
			Input:       args[0],
			ModelPath:   c.ModelPath,
			Label:       c.LabelColumn,
			Categorical: c.CategoricalFeatures,
			NEstimators: c.NEstimators,
			TestSize:    c.TestSize,
			RandomState: c.RandomState,
			Out:         cmd.OutOrStdout(),
		}
		f := cmd.Flags()
		if f.Changed("model") {
			opt.ModelPath = trainModel
		}
		if f.Changed("label") {
			opt.Label = trainLabel
		}
		if f.Changed("categorical") {
			opt.Categorical = trainCategorical
		}
		if f.Changed("trees") {
			opt.NEstimators = trainTrees
		}
		if f.Changed("test-size") {
			opt.TestSize = trainTestSize
		}
		if f.Changed("seed") {
			opt.RandomState = trainSeed
		}
		_, err = train.Run(cmd.Context(), opt, logger.Named("train"))
		return err
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict <file>",
	Short: "Predict the label of each row with a saved model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		modelPath := c.ModelPath
		if cmd.Flags().Changed("model") {
			modelPath = predictModel
		}
		a, err := train.LoadArtifact(modelPath)
		if err != nil {
			return err
		}
		t, err := predictInput.read(args[0])
		if err != nil {
			return err
		}
		labels, err := a.Predict(t)
		if err != nil {
			return err
		}

		col := "predicted_" + a.Label
		header := append(t.Names(), col)
		rows := make([][]string, len(labels))
		for i, l := range labels {
			rows[i] = append(t.Strings(i), l)
		}
		out := cmd.OutOrStdout()
		if predictOutput != "" {
			res, err := table.FromRecords(header, rows)
			if err != nil {
				return err
			}
			if err := export.WriteCSVFile(predictOutput, res); err != nil {
				return fmt.Errorf("write predictions: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote %d predictions to %s\n", len(labels), predictOutput)
			return nil
		}
		fmt.Fprintf(out, "Predictions for %s (model run %s):\n%s", filepath.Base(args[0]), a.RunID, report.MarkdownTable(header, rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().StringVar(&trainModel, "model", "", "artifact path (overrides model_path)")
	trainCmd.Flags().StringVar(&trainLabel, "label", "", "label column (overrides label_column)")
	trainCmd.Flags().StringSliceVar(&trainCategorical, "categorical", nil, "categorical feature columns (overrides categorical_features)")
	trainCmd.Flags().IntVar(&trainTrees, "trees", 0, "number of trees (overrides n_estimators)")
	trainCmd.Flags().Float64Var(&trainTestSize, "test-size", 0, "held-out share of rows (overrides test_size)")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 0, "random state (overrides random_state)")

	rootCmd.AddCommand(predictCmd)
	predictInput.register(predictCmd)
	predictCmd.Flags().StringVar(&predictModel, "model", "", "artifact path (overrides model_path)")
	predictCmd.Flags().StringVarP(&predictOutput, "output", "o", "", "write rows with predictions as CSV")
}
