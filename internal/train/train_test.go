package train

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uday-t-s/car-brand-sales/internal/table"
)

// carsCSV returns 20 rows per brand; price and mileage separate the brands.
func carsCSV() string {
	var b strings.Builder
	b.WriteString("brand,price,mileage,fuel_type,transmission\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "Toyota,%d,%d,Petrol,Manual\n", 20000+i*10, 1000+i)
		fmt.Fprintf(&b, "Honda,%d,%d,Diesel,Automatic\n", 30000+i*10, 5000+i)
		fuel := "Petrol"
		if i%2 == 1 {
			fuel = "Diesel"
		}
		fmt.Fprintf(&b, "Ford,%d,%d,%s,Manual\n", 40000+i*10, 9000+i, fuel)
	}
	return b.String()
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cars.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func defaultOptions(input, model string) Options {
	return Options{
		Input:       input,
		ModelPath:   model,
		Label:       "brand",
		Categorical: []string{"fuel_type", "transmission"},
		NEstimators: 25,
		TestSize:    0.2,
		RandomState: 42,
	}
}

func TestFitEncoderSortsClasses(t *testing.T) {
	enc := FitEncoder("fuel_type", []string{"Petrol", "Diesel", "Petrol", "Electric"}, false)
	assert.Equal(t, []string{"Diesel", "Electric", "Petrol"}, enc.Classes)

	codes, err := enc.Transform([]string{"Petrol", "Diesel"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, codes)

	v, err := enc.Decode(1)
	require.NoError(t, err)
	assert.Equal(t, "Electric", v)

	_, err = enc.Encode("Hydrogen")
	require.True(t, errors.Is(err, ErrUnknownCategory))
	assert.Contains(t, err.Error(), "fuel_type")
	assert.Contains(t, err.Error(), "Hydrogen")

	_, err = enc.Decode(3)
	assert.Error(t, err)
}

func TestFitEncoderSortsNumericClassesByValue(t *testing.T) {
	enc := FitEncoder("doors", []string{"10", "9", "100", "9", "2.5"}, true)
	assert.Equal(t, []string{"2.5", "9", "10", "100"}, enc.Classes)

	codes, err := enc.Transform([]string{"100", "9", "10", "2.5"})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2, 0}, codes)

	_, err = enc.Encode("11")
	assert.True(t, errors.Is(err, ErrUnknownCategory))

	text := FitEncoder("doors", []string{"10", "9", "100"}, false)
	assert.Equal(t, []string{"10", "100", "9"}, text.Classes)
}

func TestPrepareEncodesNumericLabelByValue(t *testing.T) {
	src, err := table.ReadCSV(strings.NewReader("doors,price\n10,1\n9,2\n100,3\n9,4\n"), table.ReadOptions{})
	require.NoError(t, err)

	ds, err := prepare(src, "doors", nil)
	require.NoError(t, err)
	assert.True(t, ds.encoders["doors"].Numeric)
	assert.Equal(t, []string{"9", "10", "100"}, ds.encoders["doors"].Classes)
	assert.Equal(t, []int{1, 0, 2, 0}, ds.y)
}

func TestStratifiedSplitKeepsClassShares(t *testing.T) {
	var y []int
	for c, n := range []int{10, 5, 5} {
		for i := 0; i < n; i++ {
			y = append(y, c)
		}
	}
	tr, te, err := StratifiedSplit(y, 0.2, 42)
	require.NoError(t, err)
	require.Len(t, te, 4)
	require.Len(t, tr, 16)

	perClass := map[int]int{}
	seen := map[int]bool{}
	for _, i := range te {
		perClass[y[i]]++
		seen[i] = true
	}
	assert.Equal(t, map[int]int{0: 2, 1: 1, 2: 1}, perClass)
	for _, i := range tr {
		assert.False(t, seen[i], "row %d in both sets", i)
	}

	tr2, te2, err := StratifiedSplit(y, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, tr, tr2)
	assert.Equal(t, te, te2)
}

func TestStratifiedSplitRejects(t *testing.T) {
	_, _, err := StratifiedSplit([]int{0, 0, 1}, 0.5, 1)
	assert.Error(t, err, "singleton class")

	_, _, err = StratifiedSplit([]int{0, 0, 1, 1}, 0, 1)
	assert.Error(t, err, "zero test size")

	_, _, err = StratifiedSplit([]int{0, 0, 1, 1, 2, 2, 3, 3, 4, 4}, 0.2, 1)
	assert.Error(t, err, "test set smaller than class count")
}

func separable() ([][]float64, []int) {
	var X [][]float64
	var y []int
	for i := 0; i < 20; i++ {
		X = append(X, []float64{float64(i), float64(i % 3)})
		c := 0
		if i >= 10 {
			c = 1
		}
		y = append(y, c)
	}
	return X, y
}

func TestForestLearnsSeparableData(t *testing.T) {
	X, y := separable()
	opt := ForestOptions{NEstimators: 15, Bootstrap: true, RandomState: 7}
	f, err := FitForest(context.Background(), X, y, 2, opt)
	require.NoError(t, err)
	assert.Len(t, f.Trees, 15)
	assert.GreaterOrEqual(t, Accuracy(y, f.Predict(X)), 0.9)
	assert.Equal(t, []int{0, 1}, f.Predict([][]float64{{-5, 0}, {50, 0}}))

	again, err := FitForest(context.Background(), X, y, 2, opt)
	require.NoError(t, err)
	assert.Equal(t, f, again, "same seed grows the same forest")
}

func TestFitForestStopsOnCancel(t *testing.T) {
	X, y := separable()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FitForest(ctx, X, y, 2, ForestOptions{NEstimators: 50, RandomState: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFitForestValidatesInput(t *testing.T) {
	_, err := FitForest(context.Background(), nil, nil, 2, ForestOptions{NEstimators: 1})
	assert.Error(t, err)
	_, err = FitForest(context.Background(), [][]float64{{1}}, []int{0, 1}, 2, ForestOptions{NEstimators: 1})
	assert.Error(t, err)
}

func TestTreeConstantFeatureMakesLeaf(t *testing.T) {
	X := [][]float64{{1}, {1}, {1}}
	y := []int{0, 1, 1}
	tree := growTree(X, y, []int{0, 1, 2}, 2, treeParams{maxFeatures: 1}, rand.New(rand.NewSource(1)))
	require.True(t, tree.Root.Leaf)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 2.0 / 3}, tree.Root.Probs, 1e-12)
}

func TestRunTrainsAndSavesModel(t *testing.T) {
	input := writeCSV(t, carsCSV())
	model := filepath.Join(t.TempDir(), "models", "car_brand_model.gob")
	var out bytes.Buffer
	opt := defaultOptions(input, model)
	opt.Out = &out

	sum, err := Run(context.Background(), opt, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 60, sum.Rows)
	assert.Equal(t, 12, sum.TestRows)
	assert.Equal(t, 48, sum.TrainRows)
	assert.Equal(t, []string{"Ford", "Honda", "Toyota"}, sum.Classes)
	assert.Equal(t, []string{"price", "mileage", "fuel_type", "transmission"}, sum.Features)
	assert.GreaterOrEqual(t, sum.TestAccuracy, 0.9)

	text := out.String()
	for _, want := range []string{
		"Original data (first 5 rows):",
		"Data info:",
		"Rows: 60, Columns: 5",
		"Encoded data (first 5 rows):",
		"Encoded target sample: [2 1 0 2 1 0 2 1 0 2]",
		"Train accuracy: ",
		"Test accuracy: ",
		"Model and encoders saved to " + model,
	} {
		assert.Contains(t, text, want)
	}

	a, err := LoadArtifact(model)
	require.NoError(t, err)
	assert.Equal(t, sum.RunID, a.RunID)
	assert.Equal(t, "brand", a.Label)
	assert.Equal(t, []string{"Automatic", "Manual"}, a.Encoders["transmission"].Classes)

	sample, err := table.ReadCSV(strings.NewReader(
		"price,mileage,fuel_type,transmission\n20005,1003,Petrol,Manual\n30050,5010,Diesel,Automatic\n",
	), table.ReadOptions{})
	require.NoError(t, err)
	got, err := a.Predict(sample)
	require.NoError(t, err)
	assert.Equal(t, []string{"Toyota", "Honda"}, got)

	unknown, err := table.ReadCSV(strings.NewReader(
		"price,mileage,fuel_type,transmission\n20005,1003,Hydrogen,Manual\n",
	), table.ReadOptions{})
	require.NoError(t, err)
	_, err = a.Predict(unknown)
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.Contains(t, err.Error(), "Hydrogen")
}

func TestRunDropsIncompleteRows(t *testing.T) {
	input := writeCSV(t, carsCSV()+"Kia,,1000,Petrol,Manual\n")
	sum, err := Run(context.Background(), defaultOptions(input, filepath.Join(t.TempDir(), "m.gob")), nil)
	require.NoError(t, err)
	assert.Equal(t, 60, sum.Rows)
	assert.NotContains(t, sum.Classes, "Kia")
}

func TestRunRejectsBadColumns(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]struct {
		csv  string
		want string
	}{
		"missing label": {
			csv:  "make,price,fuel_type,transmission\nA,1,P,M\n",
			want: `label column "brand"`,
		},
		"missing categorical": {
			csv:  "brand,price,fuel_type\nA,1,P\n",
			want: `categorical column "transmission"`,
		},
		"text feature": {
			csv:  "brand,price,fuel_type,transmission,model\nA,1,P,M,Corolla\n",
			want: `feature column "model" is text`,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			opt := defaultOptions(writeCSV(t, tc.csv), filepath.Join(dir, name+".gob"))
			_, err := Run(context.Background(), opt, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDecodeArtifactRejectsGarbage(t *testing.T) {
	_, err := DecodeArtifact(strings.NewReader("not gob"))
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, (&Artifact{Version: 99}).Encode(&buf))
	_, err = DecodeArtifact(&buf)
	assert.ErrorContains(t, err, "version 99")
}
