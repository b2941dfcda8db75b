package prep

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ghadfield32/ml-preprocessing-utils/pkg/dataset"
)

// ScalerKind selects the scaling formula.
type ScalerKind string

const (
	ScaleStandard ScalerKind = "standard" // (x - mean) / stddev
	ScaleMinMax   ScalerKind = "minmax"   // (x - min) / (max - min)
	ScaleRobust   ScalerKind = "robust"   // (x - median) / IQR
)

// ScalerArtifact is the fitted state of the scaling stage: one
// location/scale pair per scaled column. All three scaler kinds share
// the form (x - center) / scale, which keeps the inverse uniform.
type ScalerArtifact struct {
	Version int                `json:"version"`
	Kind    string             `json:"kind"`
	Columns []string           `json:"columns"`
	Center  map[string]float64 `json:"center"`
	Scale   map[string]float64 `json:"scale"`
}

// FitScaler computes location and scale for each named column of the
// encoded frame. A degenerate column (zero spread) gets scale 1 so the
// transform is the identity shift.
func FitScaler(f *dataset.Frame, cols []string, kind ScalerKind) (*ScalerArtifact, []Record, error) {
	art := &ScalerArtifact{
		Version: ArtifactVersion,
		Kind:    string(kind),
		Columns: append([]string(nil), cols...),
		Center:  make(map[string]float64, len(cols)),
		Scale:   make(map[string]float64, len(cols)),
	}
	var recs []Record

	for _, name := range cols {
		j := f.ColumnIndex(name)
		if j < 0 {
			return nil, nil, fmt.Errorf("fit scaler: column %q: %w", name, ErrColumnAbsent)
		}
		col := f.Column(j)
		var center, scale float64
		switch kind {
		case ScaleStandard:
			center = stat.Mean(col, nil)
			scale = stat.StdDev(col, nil)
		case ScaleMinMax:
			lo, hi := col[0], col[0]
			for _, v := range col {
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
			center, scale = lo, hi-lo
		case ScaleRobust:
			sorted := append([]float64(nil), col...)
			sort.Float64s(sorted)
			center = stat.Quantile(0.5, stat.Empirical, sorted, nil)
			scale = stat.Quantile(0.75, stat.Empirical, sorted, nil) - stat.Quantile(0.25, stat.Empirical, sorted, nil)
		default:
			return nil, nil, fmt.Errorf("unknown scaler %q", kind)
		}
		if scale == 0 {
			scale = 1
		}
		art.Center[name] = center
		art.Scale[name] = scale
		recs = append(recs, Record{
			Stage: "scale", Column: name, Action: string(kind),
			Detail: fmt.Sprintf("center=%.4f scale=%.4f", center, scale),
		})
	}
	return art, recs, nil
}

// ApplyScaler rescales the fitted columns in place on a copy of the
// frame, using the stored parameters verbatim.
func ApplyScaler(f *dataset.Frame, art *ScalerArtifact) (*dataset.Frame, error) {
	if art == nil {
		return nil, fmt.Errorf("apply scaler: %w", ErrUnfittedArtifact)
	}
	out := f.Clone()
	for _, name := range art.Columns {
		j := out.ColumnIndex(name)
		if j < 0 {
			return nil, fmt.Errorf("apply scaler: column %q: %w", name, ErrColumnAbsent)
		}
		center, scale := art.Center[name], art.Scale[name]
		for _, row := range out.Data {
			row[j] = (row[j] - center) / scale
		}
	}
	return out, nil
}
