// Package pipeline holds the cleaning cycle and column classification shared
// by the CLI and the web dashboard.
package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/uday-t-s/car-brand-sales/internal/table"
)

// CleaningPipeline is what a front-end needs from the core: clean a freshly
// parsed table, then classify the result.
type CleaningPipeline interface {
	Clean(t *table.Table) *table.Table
	Classify(t *table.Table) Columns
}

// Result is the outcome of one render cycle's cleaning step.
type Result struct {
	Name     string
	Original *table.Table
	Cleaned  *table.Table
	Columns  Columns
	Trace    Trace
}

// Status is the one-line summary shown after an upload.
func (r *Result) Status() string {
	return StatusLine(r.Name, r.Cleaned.NumRows())
}

// StatusLine formats the upload summary.
func StatusLine(filename string, cleanedRows int) string {
	return fmt.Sprintf("Uploaded: %s | Cleaned Rows: %d", filename, cleanedRows)
}

// Pipeline is the default CleaningPipeline.
type Pipeline struct {
	logger *zap.Logger
}

// New returns a pipeline that logs step counts to logger. A nil logger
// disables logging.
func New(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{logger: logger}
}

// Clean implements CleaningPipeline.
func (p *Pipeline) Clean(t *table.Table) *table.Table {
	out, tr := CleanWithTrace(t)
	p.logTrace(tr)
	return out
}

// Classify implements CleaningPipeline.
func (p *Pipeline) Classify(t *table.Table) Columns { return Classify(t) }

// Run cleans t and classifies the cleaned table.
func (p *Pipeline) Run(name string, t *table.Table) *Result {
	cleaned, tr := CleanWithTrace(t)
	p.logTrace(tr)
	return &Result{
		Name:     name,
		Original: t,
		Cleaned:  cleaned,
		Columns:  p.Classify(cleaned),
		Trace:    tr,
	}
}

func (p *Pipeline) logTrace(tr Trace) {
	p.logger.Debug("cleaning cycle",
		zap.Int("input_rows", tr.InputRows),
		zap.Int("duplicates", tr.Duplicates),
		zap.Int("incomplete", tr.Incomplete),
		zap.Int("output_rows", tr.OutputRows),
	)
	for _, b := range tr.Bounds {
		if b.Skipped {
			p.logger.Debug("quantile trim skipped", zap.String("column", b.Column))
			continue
		}
		p.logger.Debug("quantile trim",
			zap.String("column", b.Column),
			zap.Float64("low", b.Low),
			zap.Float64("high", b.High),
			zap.Int("removed", b.Removed),
		)
	}
}
