package sudoku

// Grid is an N x N matrix of cell values. Zero marks an empty cell; filled
// cells hold values in 1..N. N must be a perfect square so the grid divides
// into box-size sub-grids.
type Grid [][]int

// Clone returns a deep copy of g sharing no storage with the original.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = make([]int, len(row))
		copy(out[i], row)
	}
	return out
}

// Equal reports whether g and other have identical dimensions and values.
func (g Grid) Equal(other Grid) bool {
	if len(g) != len(other) {
		return false
	}
	for i, row := range g {
		if len(row) != len(other[i]) {
			return false
		}
		for j, v := range row {
			if v != other[i][j] {
				return false
			}
		}
	}
	return true
}
