package sudoku

import (
	"errors"
	"strings"
	"testing"
)

// sample4x4 has a unique solution and exercises every constraint group.
func sample4x4() Grid {
	return Grid{
		{1, 0, 0, 4},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{4, 0, 0, 1},
	}
}

func solved4x4() Grid {
	return Grid{
		{1, 2, 3, 4},
		{3, 4, 1, 2},
		{2, 1, 4, 3},
		{4, 3, 2, 1},
	}
}

func mustNew(t *testing.T, g Grid) *Puzzle {
	t.Helper()
	p, err := New(g)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNewRejectsMalformedGrids(t *testing.T) {
	tests := []struct {
		name string
		grid Grid
		want error
	}{
		{"too small", Grid{{1, 0}, {0, 1}}, ErrBadSize},
		{"not a perfect square", Grid{
			{0, 0, 0, 0, 0},
			{0, 0, 0, 0, 0},
			{0, 0, 0, 0, 0},
			{0, 0, 0, 0, 0},
			{0, 0, 0, 0, 0},
		}, ErrBadSize},
		{"empty", Grid{}, ErrBadSize},
		{"ragged row", Grid{
			{1, 0, 0, 4},
			{0, 0, 1},
			{0, 1, 0, 0},
			{4, 0, 0, 1},
		}, ErrRaggedGrid},
		{"value too large", Grid{
			{5, 0, 0, 4},
			{0, 0, 1, 0},
			{0, 1, 0, 0},
			{4, 0, 0, 1},
		}, ErrValueRange},
		{"negative value", Grid{
			{1, 0, 0, 4},
			{0, -1, 1, 0},
			{0, 1, 0, 0},
			{4, 0, 0, 1},
		}, ErrValueRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.grid); !errors.Is(err, tt.want) {
				t.Errorf("New error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewDeepCopiesInput(t *testing.T) {
	g := sample4x4()
	p := mustNew(t, g)
	g[0][1] = 3
	if p.Cell(0, 1) != 0 {
		t.Errorf("mutating the input grid changed the puzzle: cell (0,1) = %d", p.Cell(0, 1))
	}
}

func TestNewEmpty(t *testing.T) {
	p, err := NewEmpty(9)
	if err != nil {
		t.Fatalf("NewEmpty(9): %v", err)
	}
	if p.Size() != 9 || p.BoxSize() != 3 {
		t.Errorf("size = %d, boxSize = %d, want 9 and 3", p.Size(), p.BoxSize())
	}
	if got := p.CountEmpty(); got != 81 {
		t.Errorf("CountEmpty = %d, want 81", got)
	}
	if _, err := NewEmpty(8); !errors.Is(err, ErrBadSize) {
		t.Errorf("NewEmpty(8) error = %v, want ErrBadSize", err)
	}
}

func TestIsValid(t *testing.T) {
	p := mustNew(t, sample4x4())
	checks := []struct {
		name  string
		row   int
		col   int
		value int
		want  bool
	}{
		{"row duplicate", 0, 1, 1, false},
		{"row duplicate at end", 0, 1, 4, false},
		{"open value 2", 0, 1, 2, true},
		{"open value 3", 0, 1, 3, true},
		{"column duplicate", 1, 0, 4, false},
		{"box duplicate", 1, 1, 1, false},
		{"value zero", 0, 1, 0, false},
		{"value above size", 0, 1, 5, false},
		{"row out of range", -1, 0, 1, false},
		{"col out of range", 0, 4, 1, false},
	}
	for _, tt := range checks {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IsValid(tt.row, tt.col, tt.value); got != tt.want {
				t.Errorf("IsValid(%d,%d,%d) = %v, want %v", tt.row, tt.col, tt.value, got, tt.want)
			}
		})
	}
}

func TestIsValidIgnoresOwnCell(t *testing.T) {
	p := mustNew(t, sample4x4())
	// (0,0) already holds 1; re-checking its own value must not count the
	// cell against itself.
	if !p.IsValid(0, 0, 1) {
		t.Error("IsValid(0,0,1) = false for the cell's own value")
	}
	// A genuinely conflicting value is still rejected.
	if p.IsValid(0, 0, 4) {
		t.Error("IsValid(0,0,4) = true despite the 4 in row 0 and column 0")
	}
}

func TestFindFirstEmptyScansRowMajor(t *testing.T) {
	p := mustNew(t, sample4x4())
	row, col, ok := p.FindFirstEmpty()
	if !ok || row != 0 || col != 1 {
		t.Errorf("FindFirstEmpty = (%d,%d,%v), want (0,1,true)", row, col, ok)
	}

	full := mustNew(t, solved4x4())
	if _, _, ok := full.FindFirstEmpty(); ok {
		t.Error("FindFirstEmpty reported an empty cell on a complete grid")
	}
}

func TestCandidates(t *testing.T) {
	p := mustNew(t, sample4x4())
	got := p.Candidates(0, 1)
	want := []int{2, 3}
	if len(got) != len(want) {
		t.Fatalf("Candidates(0,1) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Candidates(0,1) = %v, want %v", got, want)
		}
	}
	if c := p.Candidates(0, 0); c != nil {
		t.Errorf("Candidates on a filled cell = %v, want nil", c)
	}
	if c := p.Candidates(9, 9); c != nil {
		t.Errorf("Candidates out of range = %v, want nil", c)
	}
}

func TestSetClearAndPanics(t *testing.T) {
	p := mustNew(t, sample4x4())
	p.Set(0, 1, 2)
	if p.Cell(0, 1) != 2 {
		t.Errorf("Cell(0,1) = %d after Set, want 2", p.Cell(0, 1))
	}
	p.Clear(0, 1)
	if p.Cell(0, 1) != 0 {
		t.Errorf("Cell(0,1) = %d after Clear, want 0", p.Cell(0, 1))
	}

	assertPanics(t, "Set value out of range", func() { p.Set(0, 1, 5) })
	assertPanics(t, "Set cell out of range", func() { p.Set(4, 0, 1) })
	assertPanics(t, "Cell out of range", func() { p.Cell(-1, 0) })
}

func assertPanics(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

func TestCloneIndependence(t *testing.T) {
	p := mustNew(t, sample4x4())
	clone := p.Clone()
	clone.Set(0, 1, 2)
	if p.Cell(0, 1) != 0 {
		t.Error("mutating a clone changed the original")
	}
	if clone.Cell(0, 1) != 2 {
		t.Error("clone lost its own write")
	}

	snap := p.GridCopy()
	snap[0][1] = 3
	if p.Cell(0, 1) != 0 {
		t.Error("mutating a grid snapshot changed the puzzle")
	}
}

func TestFixedMask(t *testing.T) {
	p := mustNew(t, sample4x4())
	mask := p.FixedMask()
	fixed := 0
	for r := range mask {
		for c := range mask[r] {
			if mask[r][c] != (p.Cell(r, c) != 0) {
				t.Errorf("mask[%d][%d] = %v disagrees with grid", r, c, mask[r][c])
			}
			if mask[r][c] {
				fixed++
			}
		}
	}
	if fixed != 6 {
		t.Errorf("fixed cells = %d, want 6", fixed)
	}
	// The mask is a snapshot: later writes must not change it.
	p.Set(0, 1, 2)
	if mask[0][1] {
		t.Error("mask changed after a later Set")
	}
}

func TestConflicts(t *testing.T) {
	empty, err := NewEmpty(4)
	if err != nil {
		t.Fatalf("NewEmpty(4): %v", err)
	}
	// Twelve groups of four cells, all empty: 12 * 4 conflicts.
	if got := empty.Conflicts(); got != 48 {
		t.Errorf("Conflicts on empty 4x4 = %d, want 48", got)
	}

	solved := mustNew(t, solved4x4())
	if got := solved.Conflicts(); got != 0 {
		t.Errorf("Conflicts on solved grid = %d, want 0", got)
	}

	// One duplicate touches a row, a column and a box.
	dup := solved4x4()
	dup[0][1] = 1
	p := mustNew(t, dup)
	if got := p.Conflicts(); got != 3 {
		t.Errorf("Conflicts with one duplicate = %d, want 3", got)
	}
}

func TestIsSolved(t *testing.T) {
	if p := mustNew(t, solved4x4()); !p.IsSolved() {
		t.Error("IsSolved = false on a valid complete grid")
	}
	if p := mustNew(t, sample4x4()); p.IsSolved() {
		t.Error("IsSolved = true on an incomplete grid")
	}
	bad := solved4x4()
	bad[0][1] = 1 // duplicate in row 0
	if p := mustNew(t, bad); p.IsSolved() {
		t.Error("IsSolved = true on a complete grid with conflicts")
	}
}

func TestString(t *testing.T) {
	p := mustNew(t, sample4x4())
	s := p.String()
	if !strings.Contains(s, ".") {
		t.Errorf("String output missing empty-cell marker:\n%s", s)
	}
	if !strings.Contains(s, "1") || !strings.Contains(s, "4") {
		t.Errorf("String output missing given values:\n%s", s)
	}
	if got := len(strings.Split(s, "\n")); got != 4 {
		t.Errorf("String output has %d lines, want 4", got)
	}
}

func TestGridEqual(t *testing.T) {
	a := sample4x4()
	b := sample4x4()
	if !a.Equal(b) {
		t.Error("identical grids compare unequal")
	}
	b[3][3] = 2
	if a.Equal(b) {
		t.Error("differing grids compare equal")
	}
	if a.Equal(a[:3]) {
		t.Error("grids of different dimensions compare equal")
	}
}
