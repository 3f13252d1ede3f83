package series

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Frame is a set of series over one shared timestamp index, ready for
// tabular or JSON output.
type Frame struct {
	Times   []time.Time
	Names   []string
	Columns [][]float64
}

// Join aligns series into a frame. All series must cover exactly the same
// timestamps; differing indices are an error, never silently reindexed.
func Join(ss ...*Series) (*Frame, error) {
	if len(ss) == 0 {
		return &Frame{Times: []time.Time{}}, nil
	}
	first := ss[0]
	f := &Frame{
		Times:   first.Times,
		Names:   make([]string, len(ss)),
		Columns: make([][]float64, len(ss)),
	}
	for i, s := range ss {
		if !first.SameIndex(s) {
			return nil, fmt.Errorf("%w: %q does not share the index of %q", ErrIndexMisalignment, s.Name, first.Name)
		}
		f.Names[i] = s.Name
		f.Columns[i] = s.Values
	}
	return f, nil
}

// MarshalJSON encodes the frame as an array of row objects. Absent values
// become null.
func (f *Frame) MarshalJSON() ([]byte, error) {
	rows := make([]map[string]any, len(f.Times))
	for i, t := range f.Times {
		row := make(map[string]any, len(f.Names)+1)
		row["datetime"] = t.UTC().Format(time.RFC3339)
		for j, name := range f.Names {
			if math.IsNaN(f.Columns[j][i]) {
				row[name] = nil
			} else {
				row[name] = f.Columns[j][i]
			}
		}
		rows[i] = row
	}
	return json.Marshal(rows)
}

// Render writes the last tail rows of the frame as a table. A tail of zero
// or less renders every row.
func (f *Frame) Render(w io.Writer, tail int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := table.Row{"datetime"}
	for _, name := range f.Names {
		header = append(header, name)
	}
	t.AppendHeader(header)

	start := 0
	if tail > 0 && len(f.Times) > tail {
		start = len(f.Times) - tail
	}
	for i := start; i < len(f.Times); i++ {
		row := table.Row{f.Times[i].UTC().Format(time.RFC3339)}
		for j := range f.Names {
			if math.IsNaN(f.Columns[j][i]) {
				row = append(row, "")
			} else {
				row = append(row, fmt.Sprintf("%0.06f", f.Columns[j][i]))
			}
		}
		t.AppendRow(row)
	}
	t.Render()
}
