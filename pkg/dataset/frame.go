package dataset

// Frame is a rectangular dataset of named float64 columns, produced by
// encoding a Table. Column order is significant.
type Frame struct {
	Columns []string
	Data    [][]float64
}

// NumRows returns the observation count.
func (f *Frame) NumRows() int { return len(f.Data) }

// ColumnIndex returns the position of the named column, or -1.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the column at position j.
func (f *Frame) Column(j int) []float64 {
	out := make([]float64, len(f.Data))
	for i, r := range f.Data {
		out[i] = r[j]
	}
	return out
}

// Clone deep-copies the frame.
func (f *Frame) Clone() *Frame {
	cols := make([]string, len(f.Columns))
	copy(cols, f.Columns)
	data := make([][]float64, len(f.Data))
	for i, r := range f.Data {
		data[i] = make([]float64, len(r))
		copy(data[i], r)
	}
	return &Frame{Columns: cols, Data: data}
}

// Select returns a frame holding only the rows at the given indices.
func (f *Frame) Select(indices []int) *Frame {
	data := make([][]float64, len(indices))
	for k, i := range indices {
		row := make([]float64, len(f.Data[i]))
		copy(row, f.Data[i])
		data[k] = row
	}
	cols := make([]string, len(f.Columns))
	copy(cols, f.Columns)
	return &Frame{Columns: cols, Data: data}
}
