package train

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// ForestOptions configures FitForest.
type ForestOptions struct {
	NEstimators int
	// MaxFeatures per split; 0 means sqrt of the feature count.
	MaxFeatures     int
	MinSamplesSplit int
	MaxDepth        int
	Bootstrap       bool
	RandomState     int64
}

// Forest is a bagged ensemble of classification trees.
type Forest struct {
	Trees     []*Tree
	NClasses  int
	NFeatures int
}

// FitForest grows the trees concurrently. Tree i is seeded with
// RandomState+i, so the result does not depend on scheduling.
func FitForest(ctx context.Context, X [][]float64, y []int, nClasses int, opt ForestOptions) (*Forest, error) {
	n := len(X)
	if n == 0 {
		return nil, errors.New("randomforest: empty X")
	}
	if len(y) != n {
		return nil, errors.New("randomforest: X and y length mismatch")
	}
	if opt.NEstimators <= 0 {
		return nil, errors.New("randomforest: n_estimators must be positive")
	}
	p := len(X[0])
	maxFeatures := opt.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(p)))))
	}
	params := treeParams{
		maxFeatures:     maxFeatures,
		minSamplesSplit: opt.MinSamplesSplit,
		maxDepth:        opt.MaxDepth,
	}

	f := &Forest{Trees: make([]*Tree, opt.NEstimators), NClasses: nClasses, NFeatures: p}
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for i := 0; i < opt.NEstimators; i++ {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			rnd := rand.New(rand.NewSource(opt.RandomState + int64(i)))
			sample := make([]int, n)
			for j := range sample {
				if opt.Bootstrap {
					sample[j] = rnd.Intn(n)
				} else {
					sample[j] = j
				}
			}
			f.Trees[i] = growTree(X, y, sample, nClasses, params, rnd)
		}(i)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// Proba averages the per-tree class distributions for x.
func (f *Forest) Proba(x []float64) []float64 {
	out := make([]float64, f.NClasses)
	for _, t := range f.Trees {
		for k, p := range t.Proba(x) {
			out[k] += p
		}
	}
	for k := range out {
		out[k] /= float64(len(f.Trees))
	}
	return out
}

// Predict returns the most probable class per row. Ties go to the lower
// class code.
func (f *Forest) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, x := range X {
		probs := f.Proba(x)
		best := 0
		for k := 1; k < len(probs); k++ {
			if probs[k] > probs[best] {
				best = k
			}
		}
		out[i] = best
	}
	return out
}

// Accuracy is the share of predictions equal to the truth.
func Accuracy(truth, pred []int) float64 {
	if len(truth) == 0 {
		return 0
	}
	hit := 0
	for i := range truth {
		if truth[i] == pred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(truth))
}
