package prep

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/ghadfield32/ml-preprocessing-utils/pkg/dataset"
)

// UnknownOrdinalCode is the reserved code for an ordinal category never
// seen at fit time. It sits below every legitimate rank so downstream
// models read it as "less than the lowest level" instead of aliasing a
// real one.
const UnknownOrdinalCode = -1

// EncoderArtifact is the fitted state of the encoding stage. The
// output column list is frozen at fit time and replayed verbatim at
// apply time; this is what keeps predict-time arrays aligned with the
// feature order the model was trained on.
type EncoderArtifact struct {
	Version       int                 `json:"version"`
	Input         []string            `json:"input"`          // feature columns in declared order
	Ordinal       map[string][]string `json:"ordinal"`        // column -> levels in rank order
	Nominal       map[string][]string `json:"nominal"`        // column -> categories, sorted
	Numeric       []string            `json:"numeric"`        // passthrough columns
	OutputColumns []string            `json:"output_columns"` // frozen output layout
}

// FitEncoder learns the categorical mappings from the training table.
// Ordinal columns use the declared rank order from ordinalLevels when
// given; otherwise levels are the sorted unique observed values.
// Nominal columns one-hot expand over their sorted unique values.
func FitEncoder(t *dataset.Table, reg *dataset.Registry, ordinalLevels map[string][]string) (*EncoderArtifact, []Record, error) {
	art := &EncoderArtifact{
		Version: ArtifactVersion,
		Ordinal: make(map[string][]string),
		Nominal: make(map[string][]string),
	}
	var recs []Record

	for _, name := range reg.Ordinals() {
		if !t.HasColumn(name) {
			continue // dropped upstream by the imputer
		}
		col, _ := t.Column(name)
		levels, declared := ordinalLevels[name]
		if declared {
			known := make(map[string]bool, len(levels))
			for _, l := range levels {
				known[l] = true
			}
			for _, v := range col {
				if !known[v] {
					return nil, nil, fmt.Errorf("ordinal column %q: value %q not in declared levels: %w",
						name, v, dataset.ErrSchemaMismatch)
				}
			}
		} else {
			levels = uniqueSorted(col)
		}
		art.Ordinal[name] = levels
		recs = append(recs, Record{
			Stage: "encode", Column: name, Action: "ordinal",
			Detail: fmt.Sprintf("%d levels", len(levels)),
		})
	}

	for _, name := range reg.Nominals() {
		if !t.HasColumn(name) {
			continue
		}
		col, _ := t.Column(name)
		cats := uniqueSorted(col)
		art.Nominal[name] = cats
		recs = append(recs, Record{
			Stage: "encode", Column: name, Action: "one-hot",
			Detail: fmt.Sprintf("%d categories seen", len(cats)),
		})
	}

	for _, name := range reg.Numerics() {
		if t.HasColumn(name) {
			art.Numeric = append(art.Numeric, name)
		}
	}

	// Freeze the output layout: declared feature order, nominals
	// expanding to one column per category.
	for _, name := range reg.Features() {
		if !t.HasColumn(name) {
			continue
		}
		art.Input = append(art.Input, name)
		switch role, _ := reg.Role(name); role {
		case dataset.RoleNominal:
			for _, cat := range art.Nominal[name] {
				art.OutputColumns = append(art.OutputColumns, name+"_"+cat)
			}
		default:
			art.OutputColumns = append(art.OutputColumns, name)
		}
	}
	return art, recs, nil
}

// ApplyEncoder replays the fitted mapping on a table. Unseen nominal
// categories map to an all-zero one-hot block; unseen ordinal
// categories map to UnknownOrdinalCode. Both are reported, never
// raised: inference must not halt on a novel category.
func ApplyEncoder(t *dataset.Table, art *EncoderArtifact) (*dataset.Frame, []Record, error) {
	if art == nil {
		return nil, nil, fmt.Errorf("apply encoder: %w", ErrUnfittedArtifact)
	}
	colIdx := make(map[string]int, len(art.Input))
	for _, name := range art.Input {
		j := t.ColumnIndex(name)
		if j < 0 {
			return nil, nil, fmt.Errorf("apply encoder: column %q: %w", name, ErrColumnAbsent)
		}
		colIdx[name] = j
	}

	ordinalCode := make(map[string]map[string]int, len(art.Ordinal))
	for name, levels := range art.Ordinal {
		codes := make(map[string]int, len(levels))
		for i, l := range levels {
			codes[l] = i
		}
		ordinalCode[name] = codes
	}
	nominalSlot := make(map[string]map[string]int, len(art.Nominal))
	for name, cats := range art.Nominal {
		slots := make(map[string]int, len(cats))
		for i, c := range cats {
			slots[c] = i
		}
		nominalSlot[name] = slots
	}

	var recs []Record
	unseen := make(map[string]bool)
	reportUnseen := func(column, value, action string) {
		key := column + "\x00" + value
		if unseen[key] {
			return
		}
		unseen[key] = true
		recs = append(recs, Record{
			Stage: "encode", Column: column, Action: action,
			Detail: fmt.Sprintf("unseen category %q", value),
		})
	}

	data := make([][]float64, t.NumRows())
	for i, row := range t.Rows {
		out := make([]float64, 0, len(art.OutputColumns))
		for _, name := range art.Input {
			v := row[colIdx[name]]
			if codes, ok := ordinalCode[name]; ok {
				code, seen := codes[v]
				if !seen {
					code = UnknownOrdinalCode
					reportUnseen(name, v, "unknown-ordinal")
				}
				out = append(out, float64(code))
			} else if slots, ok := nominalSlot[name]; ok {
				block := make([]float64, len(art.Nominal[name]))
				if slot, seen := slots[v]; seen {
					block[slot] = 1
				} else {
					reportUnseen(name, v, "unknown-bucket")
				}
				out = append(out, block...)
			} else {
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, nil, fmt.Errorf("apply encoder: numeric column %q row %d: %v", name, i, err)
				}
				out = append(out, f)
			}
		}
		data[i] = out
	}

	cols := make([]string, len(art.OutputColumns))
	copy(cols, art.OutputColumns)
	return &dataset.Frame{Columns: cols, Data: data}, recs, nil
}

// TargetArtifact is the fitted state of target handling. A nil Classes
// list means the target is numeric and passes through unencoded.
type TargetArtifact struct {
	Version int      `json:"version"`
	Classes []string `json:"classes,omitempty"`
}

// Classification reports whether the target was label-encoded.
func (a *TargetArtifact) Classification() bool { return a != nil && len(a.Classes) > 0 }

// FitTarget inspects the training labels. Labels that all parse as
// numbers pass through; anything else is label-encoded over the sorted
// class list.
func FitTarget(labels []string) *TargetArtifact {
	art := &TargetArtifact{Version: ArtifactVersion}
	numeric := true
	for _, v := range labels {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			numeric = false
			break
		}
	}
	if !numeric {
		art.Classes = uniqueSorted(labels)
	}
	return art
}

// ApplyTarget encodes labels with the fitted class list.
func ApplyTarget(labels []string, art *TargetArtifact) ([]float64, error) {
	if art == nil {
		return nil, fmt.Errorf("apply target: %w", ErrUnfittedArtifact)
	}
	out := make([]float64, len(labels))
	if !art.Classification() {
		for i, v := range labels {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("apply target: row %d: %v", i, err)
			}
			out[i] = f
		}
		return out, nil
	}
	codes := make(map[string]int, len(art.Classes))
	for i, c := range art.Classes {
		codes[c] = i
	}
	for i, v := range labels {
		code, ok := codes[v]
		if !ok {
			return nil, fmt.Errorf("apply target: row %d: unknown class %q", i, v)
		}
		out[i] = float64(code)
	}
	return out, nil
}

func uniqueSorted(col []string) []string {
	set := make(map[string]bool)
	for _, v := range col {
		set[v] = true
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
