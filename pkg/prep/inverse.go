package prep

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ghadfield32/ml-preprocessing-utils/pkg/dataset"
)

// InverseTransform reconstructs approximate pre-transform feature
// values from an encoded (and possibly scaled) frame. Scaling is
// undone first, then encoding: categorical codes are only meaningful
// on the unscaled values. Cells that cannot be reconstructed, such as
// a nominal collapsed to the unknown bucket, hold the Unrecoverable
// marker and get a report record instead of aborting the batch.
// Imputation and outlier removal are never reversed; that information
// is gone.
func InverseTransform(f *dataset.Frame, scaler *ScalerArtifact, enc *EncoderArtifact) (*dataset.Table, []Record, error) {
	if scaler == nil || enc == nil {
		return nil, nil, fmt.Errorf("inverse transform: %w", ErrUnfittedArtifact)
	}
	unscaled, err := inverseScale(f, scaler)
	if err != nil {
		return nil, nil, err
	}
	return inverseEncode(unscaled, enc)
}

func inverseScale(f *dataset.Frame, art *ScalerArtifact) (*dataset.Frame, error) {
	out := f.Clone()
	for _, name := range art.Columns {
		j := out.ColumnIndex(name)
		if j < 0 {
			return nil, fmt.Errorf("inverse scale: column %q: %w", name, ErrColumnAbsent)
		}
		center, scale := art.Center[name], art.Scale[name]
		for _, row := range out.Data {
			row[j] = row[j]*scale + center
		}
	}
	return out, nil
}

func inverseEncode(f *dataset.Frame, art *EncoderArtifact) (*dataset.Table, []Record, error) {
	slot := make(map[string]int, len(f.Columns))
	for j, c := range f.Columns {
		slot[c] = j
	}
	var recs []Record
	lost := 0

	rows := make([][]string, f.NumRows())
	for i, row := range f.Data {
		out := make([]string, 0, len(art.Input))
		for _, name := range art.Input {
			if levels, ok := art.Ordinal[name]; ok {
				j, present := slot[name]
				if !present {
					return nil, nil, fmt.Errorf("inverse encode: column %q: %w", name, ErrColumnAbsent)
				}
				code := int(math.Round(row[j]))
				if code < 0 || code >= len(levels) {
					out = append(out, Unrecoverable)
					lost++
				} else {
					out = append(out, levels[code])
				}
			} else if cats, ok := art.Nominal[name]; ok {
				cat := Unrecoverable
				for k, c := range cats {
					j, present := slot[name+"_"+c]
					if !present {
						return nil, nil, fmt.Errorf("inverse encode: column %q: %w", name+"_"+c, ErrColumnAbsent)
					}
					if row[j] > 0.5 {
						cat = cats[k]
						break
					}
				}
				if cat == Unrecoverable {
					lost++
				}
				out = append(out, cat)
			} else {
				j, present := slot[name]
				if !present {
					return nil, nil, fmt.Errorf("inverse encode: column %q: %w", name, ErrColumnAbsent)
				}
				out = append(out, strconv.FormatFloat(row[j], 'g', -1, 64))
			}
		}
		rows[i] = out
	}
	if lost > 0 {
		recs = append(recs, Record{
			Stage: "inverse", Action: "unrecoverable",
			Detail: fmt.Sprintf("%d categorical cells could not be reconstructed", lost),
		})
	}
	cols := make([]string, len(art.Input))
	copy(cols, art.Input)
	return &dataset.Table{Columns: cols, Rows: rows}, recs, nil
}
