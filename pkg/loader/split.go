// Package loader splits encoded datasets into train and test sets.
package loader

import (
	"math/rand"

	"github.com/ghadfield32/ml-preprocessing-utils/pkg/dataset"
)

// TrainTestSplit partitions X and y by testRatio with a seeded
// shuffle. With stratify set, each label keeps its proportion in both
// partitions, which class-imbalance checks rely on.
func TrainTestSplit(X *dataset.Frame, y []float64, testRatio float64, seed int64, stratify bool) (trainX, testX *dataset.Frame, trainY, testY []float64) {
	rng := rand.New(rand.NewSource(seed))
	n := X.NumRows()

	var testIdx, trainIdx []int
	if stratify && len(y) == n {
		byLabel := make(map[float64][]int)
		var order []float64
		for i, label := range y {
			if _, seen := byLabel[label]; !seen {
				order = append(order, label)
			}
			byLabel[label] = append(byLabel[label], i)
		}
		for _, label := range order {
			idx := byLabel[label]
			rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
			nTest := int(float64(len(idx)) * testRatio)
			testIdx = append(testIdx, idx[:nTest]...)
			trainIdx = append(trainIdx, idx[nTest:]...)
		}
	} else {
		perm := rng.Perm(n)
		nTest := int(float64(n) * testRatio)
		testIdx = perm[:nTest]
		trainIdx = perm[nTest:]
	}

	trainX = X.Select(trainIdx)
	testX = X.Select(testIdx)
	if len(y) == n {
		trainY = make([]float64, len(trainIdx))
		for k, i := range trainIdx {
			trainY[k] = y[i]
		}
		testY = make([]float64, len(testIdx))
		for k, i := range testIdx {
			testY[k] = y[i]
		}
	}
	return trainX, testX, trainY, testY
}
