package prep

import (
	"fmt"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/ghadfield32/ml-preprocessing-utils/pkg/dataset"
)

// ImputeStrategy selects the statistic used for numeric columns.
// Categorical columns always use the mode.
type ImputeStrategy string

const (
	ImputeMean   ImputeStrategy = "mean"
	ImputeMedian ImputeStrategy = "median"
	ImputeMode   ImputeStrategy = "mode"
)

// ImputerArtifact is the fitted state of the missing-value stage:
// one replacement value per column, plus the columns dropped at train
// time for excessive missingness so predict drops them too.
type ImputerArtifact struct {
	Version     int                `json:"version"`
	Strategy    string             `json:"strategy"`
	Numeric     map[string]float64 `json:"numeric"`
	Categorical map[string]string  `json:"categorical"`
	Dropped     []string           `json:"dropped,omitempty"`
}

// FitImputer computes per-column imputation statistics on the training
// table. Feature columns whose missing ratio exceeds dropThreshold are
// recorded as dropped instead of fitted.
func FitImputer(t *dataset.Table, reg *dataset.Registry, strategy ImputeStrategy, dropThreshold float64) (*ImputerArtifact, []Record, error) {
	art := &ImputerArtifact{
		Version:     ArtifactVersion,
		Strategy:    string(strategy),
		Numeric:     make(map[string]float64),
		Categorical: make(map[string]string),
	}
	var recs []Record

	for _, name := range reg.Features() {
		col, ok := t.Column(name)
		if !ok {
			return nil, nil, fmt.Errorf("fit imputer: column %q: %w", name, ErrColumnAbsent)
		}
		missing := 0
		for _, v := range col {
			if dataset.IsMissing(v) {
				missing++
			}
		}
		ratio := float64(missing) / float64(len(col))
		if ratio > dropThreshold {
			art.Dropped = append(art.Dropped, name)
			recs = append(recs, Record{
				Stage: "impute", Column: name, Action: "dropped",
				Detail: fmt.Sprintf("%.1f%% missing exceeds threshold %.1f%%", ratio*100, dropThreshold*100),
			})
			continue
		}

		role, _ := reg.Role(name)
		if role == dataset.RoleNumeric {
			value, err := numericStatistic(col, strategy)
			if err != nil {
				return nil, nil, fmt.Errorf("fit imputer: column %q: %w", name, err)
			}
			art.Numeric[name] = value
			if missing > 0 {
				recs = append(recs, Record{
					Stage: "impute", Column: name, Action: "fitted",
					Detail: fmt.Sprintf("%d missing values, %s=%.4f", missing, strategy, value),
				})
			}
		} else {
			value := categoricalMode(col)
			art.Categorical[name] = value
			if missing > 0 {
				recs = append(recs, Record{
					Stage: "impute", Column: name, Action: "fitted",
					Detail: fmt.Sprintf("%d missing values, mode=%q", missing, value),
				})
			}
		}
	}
	return art, recs, nil
}

// ApplyImputer fills missing cells from the fitted statistics and drops
// the columns the fit discarded. Every fitted column must be present in
// the incoming table.
func ApplyImputer(t *dataset.Table, art *ImputerArtifact) (*dataset.Table, []Record, error) {
	if art == nil {
		return nil, nil, fmt.Errorf("apply imputer: %w", ErrUnfittedArtifact)
	}
	out := t.Clone()
	if len(art.Dropped) > 0 {
		out = out.DropColumns(art.Dropped...)
	}

	var recs []Record
	fill := func(name, replacement string) error {
		j := out.ColumnIndex(name)
		if j < 0 {
			return fmt.Errorf("apply imputer: column %q: %w", name, ErrColumnAbsent)
		}
		filled := 0
		for _, row := range out.Rows {
			if dataset.IsMissing(row[j]) {
				row[j] = replacement
				filled++
			}
		}
		if filled > 0 {
			recs = append(recs, Record{
				Stage: "impute", Column: name, Action: "applied",
				Detail: fmt.Sprintf("filled %d missing values", filled),
			})
		}
		return nil
	}

	for _, name := range sortedKeys(art.Numeric) {
		if err := fill(name, strconv.FormatFloat(art.Numeric[name], 'g', -1, 64)); err != nil {
			return nil, nil, err
		}
	}
	for _, name := range sortedKeys(art.Categorical) {
		if err := fill(name, art.Categorical[name]); err != nil {
			return nil, nil, err
		}
	}
	return out, recs, nil
}

func numericStatistic(col []string, strategy ImputeStrategy) (float64, error) {
	var nums []float64
	for _, v := range col {
		if dataset.IsMissing(v) {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric value %q in numeric column", v)
		}
		nums = append(nums, f)
	}
	if len(nums) == 0 {
		return 0, fmt.Errorf("no observed values to fit on")
	}
	switch strategy {
	case ImputeMean:
		return stats.Mean(stats.Float64Data(nums))
	case ImputeMedian:
		return stats.Median(stats.Float64Data(nums))
	case ImputeMode:
		modes, err := stats.Mode(stats.Float64Data(nums))
		if err != nil {
			return 0, err
		}
		if len(modes) == 0 {
			// No repeated value; fall back to the median.
			return stats.Median(stats.Float64Data(nums))
		}
		return modes[0], nil
	default:
		return 0, fmt.Errorf("unknown imputation strategy %q", strategy)
	}
}

// categoricalMode returns the most frequent observed value, breaking
// ties toward the lexicographically smallest so the fit is
// deterministic.
func categoricalMode(col []string) string {
	counts := make(map[string]int)
	for _, v := range col {
		if !dataset.IsMissing(v) {
			counts[v]++
		}
	}
	best, bestN := "", -1
	for _, v := range sortedKeys(counts) {
		if counts[v] > bestN {
			best, bestN = v, counts[v]
		}
	}
	return best
}
