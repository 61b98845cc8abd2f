package model

import (
	"math"
	"math/rand"
	"sort"

	"github.com/utakatalp/match-predictor/internal/features"
)

// StratifiedSplit holds out testFraction of every class so both partitions keep
// the home/draw/away ratio. The same seed always yields the same split.
func StratifiedSplit(rows []features.Row, testFraction float64, seed int64) (train, test []features.Row) {
	byLabel := make(map[int][]features.Row)
	for _, r := range rows {
		byLabel[r.Label] = append(byLabel[r.Label], r)
	}
	labels := make([]int, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	rng := rand.New(rand.NewSource(seed))
	for _, l := range labels {
		group := byLabel[l]
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		nTest := int(math.Round(float64(len(group)) * testFraction))
		test = append(test, group[:nTest]...)
		train = append(train, group[nTest:]...)
	}
	return train, test
}

func matrix(rows []features.Row) (X [][]float64, y []int) {
	X = make([][]float64, len(rows))
	y = make([]int, len(rows))
	for i, r := range rows {
		X[i] = r.X.Slice()
		y[i] = r.Label
	}
	return X, y
}
