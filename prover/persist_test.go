package prover

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	p := NewProver()
	cc, err := p.EnsureCircuit(4)
	if err != nil {
		t.Fatalf("EnsureCircuit: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "4x4")
	if err := cc.SaveTo(dir); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	for _, name := range []string{"circuit.r1cs", "proving.key", "verifying.key", "circuit.hash"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	loaded, err := LoadFrom(dir, DefaultCurve)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Constraints != cc.Constraints {
		t.Errorf("constraints = %d, want %d", loaded.Constraints, cc.Constraints)
	}
	if loaded.PublicVars != cc.PublicVars {
		t.Errorf("public vars = %d, want %d", loaded.PublicVars, cc.PublicVars)
	}

	// A prover using the loaded keys produces proofs the original keys
	// verify, and vice versa.
	fresh := NewProver()
	fresh.AddCircuit(4, loaded)

	puzzle := testPuzzle(t)
	res, err := fresh.Prove(puzzle, testSolution())
	if err != nil {
		t.Fatalf("Prove with loaded keys: %v", err)
	}
	if err := p.Verify(res, puzzle); err != nil {
		t.Errorf("original keys rejected proof from loaded keys: %v", err)
	}

	orig, err := p.Prove(puzzle, testSolution())
	if err != nil {
		t.Fatalf("Prove with original keys: %v", err)
	}
	if err := fresh.Verify(orig, puzzle); err != nil {
		t.Errorf("loaded keys rejected proof from original keys: %v", err)
	}
}

func TestLoadFromMissingDir(t *testing.T) {
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "nope"), DefaultCurve); err == nil {
		t.Fatal("expected an error for a missing key directory")
	}
}

func TestWriteReadProofFile(t *testing.T) {
	p := NewProver()
	puzzle := testPuzzle(t)

	res, err := p.Prove(puzzle, testSolution())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	path := filepath.Join(t.TempDir(), "proof.json")
	if err := WriteProof(res, path); err != nil {
		t.Fatalf("WriteProof: %v", err)
	}

	read, err := ReadProof(path)
	if err != nil {
		t.Fatalf("ReadProof: %v", err)
	}
	if read.Proof != res.Proof || read.Size != res.Size || read.Curve != res.Curve {
		t.Error("proof did not survive the file round trip")
	}
	if err := p.Verify(read, puzzle); err != nil {
		t.Errorf("verify after round trip: %v", err)
	}
}
