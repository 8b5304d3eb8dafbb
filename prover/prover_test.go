package prover

import (
	"strings"
	"testing"

	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

func testPuzzle(t *testing.T) *sudoku.Puzzle {
	t.Helper()
	p, err := sudoku.New([][]int{
		{1, 0, 0, 4},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{4, 0, 0, 1},
	})
	if err != nil {
		t.Fatalf("puzzle: %v", err)
	}
	return p
}

func testSolution() sudoku.Grid {
	return sudoku.Grid{
		{1, 2, 3, 4},
		{3, 4, 1, 2},
		{2, 1, 4, 3},
		{4, 3, 2, 1},
	}
}

func TestNewCircuit(t *testing.T) {
	c, err := NewCircuit(9)
	if err != nil {
		t.Fatalf("NewCircuit(9): %v", err)
	}
	if c.BoxSize != 3 {
		t.Errorf("box size = %d, want 3", c.BoxSize)
	}
	if len(c.Givens) != 81 || len(c.Solution) != 81 {
		t.Errorf("cell count = %d/%d, want 81", len(c.Givens), len(c.Solution))
	}

	if _, err := NewCircuit(5); err == nil {
		t.Error("NewCircuit(5) should fail, 5 is not a perfect square")
	}
}

func TestCellGroups(t *testing.T) {
	groups := cellGroups(4, 2)
	if len(groups) != 12 {
		t.Fatalf("groups = %d, want 12", len(groups))
	}
	for i, group := range groups {
		if len(group) != 4 {
			t.Errorf("group %d has %d cells, want 4", i, len(group))
		}
	}

	// Every cell appears in exactly one row, one column and one box.
	counts := make(map[int]int)
	for _, group := range groups {
		for _, idx := range group {
			counts[idx]++
		}
	}
	for idx := 0; idx < 16; idx++ {
		if counts[idx] != 3 {
			t.Errorf("cell %d appears in %d groups, want 3", idx, counts[idx])
		}
	}
}

func TestProveAndVerify(t *testing.T) {
	p := NewProver()
	puzzle := testPuzzle(t)

	res, err := p.Prove(puzzle, testSolution())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	if res.Size != 4 {
		t.Errorf("size = %d, want 4", res.Size)
	}
	if res.Curve != "bn254" {
		t.Errorf("curve = %q, want bn254", res.Curve)
	}
	if res.Proof == "" {
		t.Error("empty proof")
	}
	if res.Constraints == 0 {
		t.Error("expected nonzero constraint count")
	}
	if len(res.PublicInputs) != 16 {
		t.Errorf("public inputs = %d, want 16", len(res.PublicInputs))
	}
	t.Logf("4x4 circuit: %d constraints, proved in %.3fs", res.Constraints, res.ProveTime)

	if err := p.Verify(res, puzzle); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestProveWrongSolutionFails(t *testing.T) {
	p := NewProver()
	puzzle := testPuzzle(t)

	// Duplicate in row 0 violates the all-different constraints.
	bad := testSolution()
	bad[0][1] = 3

	if _, err := p.Prove(puzzle, bad); err == nil {
		t.Fatal("expected proof generation to fail for an invalid solution")
	}
}

func TestProveIncompleteSolutionFails(t *testing.T) {
	p := NewProver()
	puzzle := testPuzzle(t)

	// A blank cell is outside 1..4.
	bad := testSolution()
	bad[2][2] = 0

	if _, err := p.Prove(puzzle, bad); err == nil {
		t.Fatal("expected proof generation to fail for an incomplete solution")
	}
}

func TestProveSolutionIgnoringCluesFails(t *testing.T) {
	p := NewProver()
	puzzle := testPuzzle(t)

	// A valid complete grid that contradicts the clue at (0,0).
	other := sudoku.Grid{
		{2, 1, 4, 3},
		{4, 3, 2, 1},
		{1, 2, 3, 4},
		{3, 4, 1, 2},
	}

	if _, err := p.Prove(puzzle, other); err == nil {
		t.Fatal("expected proof generation to fail when the solution contradicts a clue")
	}
}

func TestVerifyDifferentPuzzleFails(t *testing.T) {
	p := NewProver()
	puzzle := testPuzzle(t)

	res, err := p.Prove(puzzle, testSolution())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	// Same size, different clues: the public inputs no longer match.
	other, err := sudoku.New([][]int{
		{2, 0, 0, 3},
		{0, 0, 2, 0},
		{0, 2, 0, 0},
		{3, 0, 0, 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Verify(res, other); err == nil {
		t.Fatal("expected verification to fail against different clues")
	}
}

func TestVerifyTamperedProofFails(t *testing.T) {
	p := NewProver()
	puzzle := testPuzzle(t)

	res, err := p.Prove(puzzle, testSolution())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	res.Proof = "00" + res.Proof[2:]
	if err := p.Verify(res, puzzle); err == nil {
		t.Fatal("expected verification to fail for a tampered proof")
	}
}

func TestVerifyCurveMismatch(t *testing.T) {
	p := NewProver()
	puzzle := testPuzzle(t)

	res := &ProofResult{Size: 4, Curve: "bls12-381", Proof: "00"}
	err := p.Verify(res, puzzle)
	if err == nil || !strings.Contains(err.Error(), "curve") {
		t.Fatalf("err = %v, want curve mismatch", err)
	}
}

func TestEnsureCircuitCaches(t *testing.T) {
	p := NewProver()

	first, err := p.EnsureCircuit(4)
	if err != nil {
		t.Fatalf("EnsureCircuit: %v", err)
	}
	second, err := p.EnsureCircuit(4)
	if err != nil {
		t.Fatalf("EnsureCircuit again: %v", err)
	}
	if first != second {
		t.Error("expected the compiled circuit to be reused")
	}

	sizes := p.Sizes()
	if len(sizes) != 1 || sizes[0] != 4 {
		t.Errorf("sizes = %v, want [4]", sizes)
	}
}

func TestParseCurve(t *testing.T) {
	id, err := ParseCurve("BN254")
	if err != nil {
		t.Fatalf("ParseCurve: %v", err)
	}
	if id != DefaultCurve {
		t.Errorf("id = %v, want %v", id, DefaultCurve)
	}
	if CurveName(id) != "bn254" {
		t.Errorf("name = %q, want bn254", CurveName(id))
	}

	if _, err := ParseCurve("p-256"); err == nil {
		t.Error("expected an error for an unsupported curve")
	}
}
