package train

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// StratifiedSplit divides row indices into train and test sets so each
// class keeps roughly its share in both. The result depends only on y,
// testSize and seed.
func StratifiedSplit(y []int, testSize float64, seed int64) (trainIdx, testIdx []int, err error) {
	n := len(y)
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size %.3f must be between 0 and 1", testSize)
	}
	byClass := map[int][]int{}
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	classes := make([]int, 0, len(byClass))
	for c, rows := range byClass {
		if len(rows) < 2 {
			return nil, nil, fmt.Errorf("class %d has only %d row; stratified split needs at least 2 per class", c, len(rows))
		}
		classes = append(classes, c)
	}
	sort.Ints(classes)

	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest < len(classes) {
		return nil, nil, fmt.Errorf("test set of %d rows cannot hold all %d classes", nTest, len(classes))
	}
	if n-nTest < len(classes) {
		return nil, nil, fmt.Errorf("train set of %d rows cannot hold all %d classes", n-nTest, len(classes))
	}

	// Largest-remainder allocation of test rows across classes, capped so
	// every class keeps at least one training row.
	alloc := make([]int, len(classes))
	type rem struct {
		k    int
		frac float64
	}
	rems := make([]rem, len(classes))
	given := 0
	for k, c := range classes {
		exact := float64(nTest) * float64(len(byClass[c])) / float64(n)
		alloc[k] = int(math.Floor(exact))
		if alloc[k] == 0 {
			alloc[k] = 1
		}
		if alloc[k] > len(byClass[c])-1 {
			alloc[k] = len(byClass[c]) - 1
		}
		given += alloc[k]
		rems[k] = rem{k: k, frac: exact - math.Floor(exact)}
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for given < nTest {
		moved := false
		for _, r := range rems {
			if given == nTest {
				break
			}
			if alloc[r.k] < len(byClass[classes[r.k]])-1 {
				alloc[r.k]++
				given++
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	for given > nTest {
		moved := false
		for i := len(rems) - 1; i >= 0 && given > nTest; i-- {
			if k := rems[i].k; alloc[k] > 1 {
				alloc[k]--
				given--
				moved = true
			}
		}
		if !moved {
			break
		}
	}

	rnd := rand.New(rand.NewSource(seed))
	for k, c := range classes {
		rows := append([]int(nil), byClass[c]...)
		rnd.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		testIdx = append(testIdx, rows[:alloc[k]]...)
		trainIdx = append(trainIdx, rows[alloc[k]:]...)
	}
	sort.Ints(trainIdx)
	sort.Ints(testIdx)
	return trainIdx, testIdx, nil
}
