package prep

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// BalanceTechnique selects the oversampling method.
type BalanceTechnique string

const (
	BalanceSMOTE            BalanceTechnique = "smote"
	BalanceRandomOversample BalanceTechnique = "random_oversample"
)

const smoteNeighbors = 5

// Resample equalizes class counts on the already encoded and scaled
// training split by oversampling every minority class up to the
// majority count. It never touches validation, test, predict or
// cluster data: calling it outside train mode is a mode violation, and
// calling it without a classification target is an invalid task.
func Resample(mode Mode, X [][]float64, y []float64, technique BalanceTechnique, seed int64) ([][]float64, []float64, []Record, error) {
	if mode != ModeTrain {
		return nil, nil, nil, fmt.Errorf("class balancing in %s mode: %w", mode, ErrModeViolation)
	}
	if len(X) != len(y) {
		return nil, nil, nil, fmt.Errorf("class balancing: %d rows vs %d labels", len(X), len(y))
	}
	byClass := make(map[float64][]int)
	for i, label := range y {
		if label != math.Trunc(label) {
			return nil, nil, nil, fmt.Errorf("continuous label %v: %w", label, ErrInvalidTask)
		}
		byClass[label] = append(byClass[label], i)
	}
	if len(byClass) < 2 {
		return nil, nil, nil, fmt.Errorf("%d distinct classes: %w", len(byClass), ErrInvalidTask)
	}

	majority := 0
	for _, idx := range byClass {
		if len(idx) > majority {
			majority = len(idx)
		}
	}

	outX := append([][]float64(nil), X...)
	outY := append([]float64(nil), y...)
	rng := rand.New(rand.NewSource(seed))
	var recs []Record

	// Deterministic class order.
	labels := make([]float64, 0, len(byClass))
	for label := range byClass {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	for _, label := range labels {
		idx := byClass[label]
		need := majority - len(idx)
		if need == 0 {
			continue
		}
		for s := 0; s < need; s++ {
			i := idx[rng.Intn(len(idx))]
			var synth []float64
			switch technique {
			case BalanceSMOTE:
				synth = smoteSample(X, idx, i, rng)
			case BalanceRandomOversample:
				synth = append([]float64(nil), X[i]...)
			default:
				return nil, nil, nil, fmt.Errorf("unknown balancing technique %q", technique)
			}
			outX = append(outX, synth)
			outY = append(outY, label)
		}
		recs = append(recs, Record{
			Stage: "balance", Action: string(technique),
			Detail: fmt.Sprintf("class %g: %d -> %d samples", label, len(idx), majority),
		})
	}
	return outX, outY, recs, nil
}

// smoteSample interpolates between row i and one of its k nearest
// same-class neighbors. A class with a single sample has no neighbor
// to interpolate toward, so the sample is duplicated.
func smoteSample(X [][]float64, classIdx []int, i int, rng *rand.Rand) []float64 {
	neighbors := nearestSameClass(X, classIdx, i, smoteNeighbors)
	if len(neighbors) == 0 {
		return append([]float64(nil), X[i]...)
	}
	j := neighbors[rng.Intn(len(neighbors))]
	gap := rng.Float64()
	synth := make([]float64, len(X[i]))
	for d := range synth {
		synth[d] = X[i][d] + gap*(X[j][d]-X[i][d])
	}
	return synth
}

func nearestSameClass(X [][]float64, classIdx []int, i, k int) []int {
	type cand struct {
		idx  int
		dist float64
	}
	var cands []cand
	for _, j := range classIdx {
		if j == i {
			continue
		}
		cands = append(cands, cand{j, euclidean(X[i], X[j])})
	}
	sort.Slice(cands, func(a, b int) bool { return cands[a].dist < cands[b].dist })
	if len(cands) > k {
		cands = cands[:k]
	}
	out := make([]int, len(cands))
	for n, c := range cands {
		out[n] = c.idx
	}
	return out
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for d := range a {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
