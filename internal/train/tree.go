package train

import (
	"math/rand"
	"sort"
)

// Node is one node of a fitted classification tree. Leaves carry the class
// distribution of the training rows that reached them.
type Node struct {
	Leaf      bool
	Feature   int
	Threshold float64 // x[Feature] <= Threshold goes left
	Left      *Node
	Right     *Node
	Probs     []float64
}

// Tree is a CART classifier grown with the gini criterion.
type Tree struct {
	Root     *Node
	NClasses int
}

type treeParams struct {
	maxFeatures     int // features sampled per split
	minSamplesSplit int
	maxDepth        int // 0 means unlimited
}

type treeBuilder struct {
	X        [][]float64
	y        []int
	nClasses int
	params   treeParams
	rnd      *rand.Rand
}

func growTree(X [][]float64, y []int, idx []int, nClasses int, p treeParams, rnd *rand.Rand) *Tree {
	if p.minSamplesSplit < 2 {
		p.minSamplesSplit = 2
	}
	b := &treeBuilder{X: X, y: y, nClasses: nClasses, params: p, rnd: rnd}
	return &Tree{Root: b.build(idx, 0), NClasses: nClasses}
}

func (b *treeBuilder) counts(idx []int) []int {
	c := make([]int, b.nClasses)
	for _, i := range idx {
		c[b.y[i]]++
	}
	return c
}

func (b *treeBuilder) leaf(counts []int, n int) *Node {
	probs := make([]float64, len(counts))
	if n > 0 {
		for k, c := range counts {
			probs[k] = float64(c) / float64(n)
		}
	}
	return &Node{Leaf: true, Probs: probs}
}

func (b *treeBuilder) build(idx []int, depth int) *Node {
	counts := b.counts(idx)
	if len(idx) < b.params.minSamplesSplit || isPure(counts) ||
		(b.params.maxDepth > 0 && depth >= b.params.maxDepth) {
		return b.leaf(counts, len(idx))
	}

	s, ok := b.bestSplit(idx)
	if !ok {
		return b.leaf(counts, len(idx))
	}
	var left, right []int
	for _, i := range idx {
		if b.X[i][s.feature] <= s.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &Node{
		Feature:   s.feature,
		Threshold: s.threshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}

type split struct {
	feature   int
	threshold float64
	impurity  float64 // weighted gini of the children
}

// bestSplit draws features in random order and evaluates the first
// maxFeatures of them. When none of those can split the rows it keeps
// drawing until one can or the features run out.
func (b *treeBuilder) bestSplit(idx []int) (split, bool) {
	p := len(b.X[idx[0]])
	order := b.rnd.Perm(p)
	k := b.params.maxFeatures
	if k <= 0 || k > p {
		k = p
	}

	var best split
	found := false
	for visited, f := range order {
		if visited >= k && found {
			break
		}
		s, ok := b.splitOn(idx, f)
		if ok && (!found || s.impurity < best.impurity) {
			best, found = s, true
		}
	}
	return best, found
}

func (b *treeBuilder) splitOn(idx []int, f int) (split, bool) {
	sorted := append([]int(nil), idx...)
	sort.SliceStable(sorted, func(i, j int) bool { return b.X[sorted[i]][f] < b.X[sorted[j]][f] })

	n := len(sorted)
	right := b.counts(sorted)
	left := make([]int, b.nClasses)
	best := split{feature: f}
	found := false
	for i := 0; i < n-1; i++ {
		c := b.y[sorted[i]]
		left[c]++
		right[c]--
		lo, hi := b.X[sorted[i]][f], b.X[sorted[i+1]][f]
		if lo == hi {
			continue
		}
		nl, nr := i+1, n-i-1
		imp := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
		if !found || imp < best.impurity {
			best.impurity = imp
			best.threshold = lo + (hi-lo)/2
			if best.threshold >= hi {
				best.threshold = lo
			}
			found = true
		}
	}
	return best, found
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// Proba returns the class distribution of the leaf x falls into.
func (t *Tree) Proba(x []float64) []float64 {
	n := t.Root
	for n != nil && !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	if n == nil {
		return make([]float64, t.NClasses)
	}
	return n.Probs
}
