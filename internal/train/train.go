// Package train fits the brand classifier: label-encode the categorical
// columns, split the rows by class, grow a random forest and persist it with
// its encoders.
package train

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uday-t-s/car-brand-sales/internal/report"
	"github.com/uday-t-s/car-brand-sales/internal/table"
)

// Options configures Run.
type Options struct {
	Input       string
	ModelPath   string
	Label       string
	Categorical []string
	NEstimators int
	TestSize    float64
	RandomState int64
	// HeadRows is how many rows of each preview to print; 0 means 5.
	HeadRows int
	// Out receives the progress text; nil discards it.
	Out io.Writer
}

// Summary describes a finished run.
type Summary struct {
	RunID         string
	Rows          int
	TrainRows     int
	TestRows      int
	Classes       []string
	Features      []string
	TrainAccuracy float64
	TestAccuracy  float64
	ModelPath     string
}

// Run trains a model on opt.Input and saves it to opt.ModelPath.
func Run(ctx context.Context, opt Options, logger *zap.Logger) (*Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := opt.Out
	if out == nil {
		out = io.Discard
	}
	head := opt.HeadRows
	if head <= 0 {
		head = 5
	}
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	t, err := table.ReadFile(opt.Input, table.ReadOptions{})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Original data (first %d rows):\n%s\n", head, report.Head(t, head))
	fmt.Fprintf(out, "Data info:\n%s\n", Info(t))

	ds, err := prepare(t, opt.Label, opt.Categorical)
	if err != nil {
		return nil, err
	}
	if dropped := t.NumRows() - ds.source.NumRows(); dropped > 0 {
		logger.Info("dropped incomplete rows", zap.Int("rows", dropped))
	}
	fmt.Fprintf(out, "Encoded data (first %d rows):\n%s\n", head, encodedHead(ds, head))
	fmt.Fprintf(out, "Encoded target sample: %v\n\n", ds.y[:min(10, len(ds.y))])

	trainIdx, testIdx, err := StratifiedSplit(ds.y, opt.TestSize, opt.RandomState)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	Xtr, ytr := subset(ds, trainIdx)
	Xte, yte := subset(ds, testIdx)

	labelEnc := ds.encoders[ds.label]
	logger.Info("training started",
		zap.Int("rows", len(ds.y)),
		zap.Int("train_rows", len(trainIdx)),
		zap.Int("test_rows", len(testIdx)),
		zap.Int("classes", len(labelEnc.Classes)),
		zap.Strings("features", ds.features),
		zap.Int("n_estimators", opt.NEstimators),
	)
	start := time.Now()
	forest, err := FitForest(ctx, Xtr, ytr, len(labelEnc.Classes), ForestOptions{
		NEstimators: opt.NEstimators,
		Bootstrap:   true,
		RandomState: opt.RandomState,
	})
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	sum := &Summary{
		RunID:         runID,
		Rows:          len(ds.y),
		TrainRows:     len(trainIdx),
		TestRows:      len(testIdx),
		Classes:       labelEnc.Classes,
		Features:      ds.features,
		TrainAccuracy: Accuracy(ytr, forest.Predict(Xtr)),
		TestAccuracy:  Accuracy(yte, forest.Predict(Xte)),
		ModelPath:     opt.ModelPath,
	}
	logger.Info("training finished",
		zap.Duration("took", time.Since(start)),
		zap.Float64("train_accuracy", sum.TrainAccuracy),
		zap.Float64("test_accuracy", sum.TestAccuracy),
	)
	fmt.Fprintf(out, "Train accuracy: %.3f\n", sum.TrainAccuracy)
	fmt.Fprintf(out, "Test accuracy: %.3f\n", sum.TestAccuracy)

	a := &Artifact{
		Version:   ArtifactVersion,
		RunID:     runID,
		TrainedAt: time.Now().UTC(),
		Label:     ds.label,
		Features:  ds.features,
		Encoders:  ds.encoders,
		Model:     forest,
	}
	if err := a.Save(opt.ModelPath); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}
	fmt.Fprintf(out, "✓ Model and encoders saved to %s\n", opt.ModelPath)
	return sum, nil
}

func subset(ds *dataset, idx []int) ([][]float64, []int) {
	X := make([][]float64, len(idx))
	y := make([]int, len(idx))
	for k, i := range idx {
		X[k] = ds.X[i]
		y[k] = ds.y[i]
	}
	return X, y
}

// Info lists each column with its non-missing count and storage type.
func Info(t *table.Table) string {
	rows := make([][]string, 0, t.NumCols())
	for i, c := range t.Columns {
		nonNull := 0
		for _, cell := range c.Cells {
			if !cell.Missing {
				nonNull++
			}
		}
		rows = append(rows, []string{strconv.Itoa(i), c.Name, strconv.Itoa(nonNull), c.Type.String()})
	}
	return fmt.Sprintf("Rows: %d, Columns: %d\n\n%s", t.NumRows(), t.NumCols(),
		report.MarkdownTable([]string{"#", "Column", "Non-Null", "Type"}, rows))
}

func encodedHead(ds *dataset, n int) string {
	n = min(n, len(ds.y))
	header := append(append([]string(nil), ds.features...), ds.label)
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, 0, len(header))
		for _, v := range ds.X[i] {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		rows[i] = append(row, strconv.Itoa(ds.y[i]))
	}
	return report.MarkdownTable(header, rows)
}
