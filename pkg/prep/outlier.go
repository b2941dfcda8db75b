package prep

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ghadfield32/ml-preprocessing-utils/pkg/dataset"
)

// Detector selects the outlier test applied to numeric columns.
type Detector string

const (
	DetectZScore          Detector = "zscore"
	DetectIQR             Detector = "iqr"
	DetectIsolationForest Detector = "isolation_forest"
)

const (
	zScoreLimit    = 3.0
	iqrWhisker     = 1.5
	isoTrees       = 100
	isoSampleSize  = 256
	isoScoreCutoff = 0.6
)

// FilterOutliers drops rows flagged by the chosen detector over the
// named numeric columns. It runs only in train mode: predict and
// cluster inputs must keep row correspondence with external labels and
// IDs, so filtering there is a contract violation. Returns the
// surviving rows of the frame and their original indices.
func FilterOutliers(mode Mode, f *dataset.Frame, cols []string, det Detector, seed int64) (*dataset.Frame, []int, []Record, error) {
	if mode != ModeTrain {
		return nil, nil, nil, fmt.Errorf("outlier filtering in %s mode: %w", mode, ErrModeViolation)
	}
	if len(cols) == 0 || f.NumRows() == 0 {
		keep := identity(f.NumRows())
		return f.Clone(), keep, nil, nil
	}

	idx := make([]int, len(cols))
	for k, name := range cols {
		j := f.ColumnIndex(name)
		if j < 0 {
			return nil, nil, nil, fmt.Errorf("outlier filter: column %q: %w", name, ErrColumnAbsent)
		}
		idx[k] = j
	}

	var flagged []bool
	switch det {
	case DetectZScore:
		flagged = zScoreFlags(f, idx)
	case DetectIQR:
		flagged = iqrFlags(f, idx)
	case DetectIsolationForest:
		flagged = isolationForestFlags(f, idx, seed)
	default:
		return nil, nil, nil, fmt.Errorf("unknown outlier detector %q", det)
	}

	var keep []int
	for i, bad := range flagged {
		if !bad {
			keep = append(keep, i)
		}
	}
	var recs []Record
	if dropped := f.NumRows() - len(keep); dropped > 0 {
		recs = append(recs, Record{
			Stage: "outlier", Action: string(det),
			Detail: fmt.Sprintf("dropped %d of %d rows", dropped, f.NumRows()),
		})
	}
	return f.Select(keep), keep, recs, nil
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func zScoreFlags(f *dataset.Frame, idx []int) []bool {
	flagged := make([]bool, f.NumRows())
	for _, j := range idx {
		col := f.Column(j)
		mean := stat.Mean(col, nil)
		sd := stat.StdDev(col, nil)
		if sd == 0 {
			continue
		}
		for i, v := range col {
			if math.Abs(v-mean)/sd > zScoreLimit {
				flagged[i] = true
			}
		}
	}
	return flagged
}

func iqrFlags(f *dataset.Frame, idx []int) []bool {
	flagged := make([]bool, f.NumRows())
	for _, j := range idx {
		col := f.Column(j)
		sorted := append([]float64(nil), col...)
		sort.Float64s(sorted)
		q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
		q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
		iqr := q3 - q1
		lo, hi := q1-iqrWhisker*iqr, q3+iqrWhisker*iqr
		for i, v := range col {
			if v < lo || v > hi {
				flagged[i] = true
			}
		}
	}
	return flagged
}

// isolationForestFlags scores rows with an ensemble of random split
// trees. Anomalies isolate in short paths; a row whose normalized
// score 2^(-E[h]/c(n)) exceeds the cutoff is flagged.
func isolationForestFlags(f *dataset.Frame, idx []int, seed int64) []bool {
	n := f.NumRows()
	points := make([][]float64, n)
	for i, row := range f.Data {
		p := make([]float64, len(idx))
		for k, j := range idx {
			p[k] = row[j]
		}
		points[i] = p
	}

	rng := rand.New(rand.NewSource(seed))
	sample := isoSampleSize
	if sample > n {
		sample = n
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sample))))

	trees := make([]*isoNode, isoTrees)
	for t := range trees {
		perm := rng.Perm(n)[:sample]
		sub := make([][]float64, sample)
		for i, p := range perm {
			sub[i] = points[p]
		}
		trees[t] = buildIsoTree(sub, 0, maxDepth, rng)
	}

	norm := avgPathLength(sample)
	flagged := make([]bool, n)
	for i, p := range points {
		var sum float64
		for _, tree := range trees {
			sum += isoPath(tree, p, 0)
		}
		score := math.Pow(2, -(sum/float64(isoTrees))/norm)
		flagged[i] = score > isoScoreCutoff
	}
	return flagged
}

type isoNode struct {
	feature     int
	split       float64
	left, right *isoNode
	size        int
}

func buildIsoTree(points [][]float64, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if len(points) <= 1 || depth >= maxDepth {
		return &isoNode{size: len(points)}
	}
	feature := rng.Intn(len(points[0]))
	lo, hi := points[0][feature], points[0][feature]
	for _, p := range points {
		if p[feature] < lo {
			lo = p[feature]
		}
		if p[feature] > hi {
			hi = p[feature]
		}
	}
	if lo == hi {
		return &isoNode{size: len(points)}
	}
	split := lo + rng.Float64()*(hi-lo)
	var left, right [][]float64
	for _, p := range points {
		if p[feature] < split {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}
	return &isoNode{
		feature: feature,
		split:   split,
		left:    buildIsoTree(left, depth+1, maxDepth, rng),
		right:   buildIsoTree(right, depth+1, maxDepth, rng),
		size:    len(points),
	}
}

func isoPath(node *isoNode, p []float64, depth float64) float64 {
	if node.left == nil && node.right == nil {
		if node.size > 1 {
			return depth + avgPathLength(node.size)
		}
		return depth
	}
	if p[node.feature] < node.split {
		return isoPath(node.left, p, depth+1)
	}
	return isoPath(node.right, p, depth+1)
}

// avgPathLength is c(n), the expected path length of an unsuccessful
// BST search over n points.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+0.5772156649) - 2*(fn-1)/fn
}
