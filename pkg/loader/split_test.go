package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghadfield32/ml-preprocessing-utils/pkg/dataset"
)

func frameWithLabels(n0, n1 int) (*dataset.Frame, []float64) {
	var data [][]float64
	var y []float64
	for i := 0; i < n0; i++ {
		data = append(data, []float64{float64(i)})
		y = append(y, 0)
	}
	for i := 0; i < n1; i++ {
		data = append(data, []float64{float64(100 + i)})
		y = append(y, 1)
	}
	return &dataset.Frame{Columns: []string{"x"}, Data: data}, y
}

func TestTrainTestSplitRatio(t *testing.T) {
	X, y := frameWithLabels(80, 20)
	trainX, testX, trainY, testY := TrainTestSplit(X, y, 0.2, 42, false)
	assert.Equal(t, 80, trainX.NumRows())
	assert.Equal(t, 20, testX.NumRows())
	assert.Len(t, trainY, 80)
	assert.Len(t, testY, 20)
}

func TestTrainTestSplitStratified(t *testing.T) {
	X, y := frameWithLabels(90, 10)
	_, _, trainY, testY := TrainTestSplit(X, y, 0.2, 42, true)

	count := func(y []float64, label float64) int {
		n := 0
		for _, v := range y {
			if v == label {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 72, count(trainY, 0))
	assert.Equal(t, 8, count(trainY, 1))
	assert.Equal(t, 18, count(testY, 0))
	assert.Equal(t, 2, count(testY, 1))
}

func TestTrainTestSplitDeterministicPerSeed(t *testing.T) {
	X, y := frameWithLabels(50, 50)
	_, testA, _, _ := TrainTestSplit(X, y, 0.3, 7, true)
	_, testB, _, _ := TrainTestSplit(X, y, 0.3, 7, true)
	require.Equal(t, testA.Data, testB.Data)
}

func TestTrainTestSplitNoLabels(t *testing.T) {
	X := &dataset.Frame{Columns: []string{"x"}, Data: [][]float64{{1}, {2}, {3}, {4}, {5}}}
	trainX, testX, trainY, testY := TrainTestSplit(X, nil, 0.2, 1, false)
	assert.Equal(t, 4, trainX.NumRows())
	assert.Equal(t, 1, testX.NumRows())
	assert.Nil(t, trainY)
	assert.Nil(t, testY)
}
