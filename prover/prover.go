package prover

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/sudoku-xyz/go-sudoku/sudoku"
)

// Prover manages circuit compilation, setup and proof generation. Circuits
// are compiled once per grid size and reused across proofs.
type Prover struct {
	mu       sync.RWMutex
	circuits map[int]*CompiledCircuit
	curve    ecc.ID
}

// CompiledCircuit holds the compiled constraint system and keys for one
// grid size.
type CompiledCircuit struct {
	Size         int
	CS           constraint.ConstraintSystem
	ProvingKey   groth16.ProvingKey
	VerifyingKey groth16.VerifyingKey
	Constraints  int
	PublicVars   int
	PrivateVars  int
}

// ProofResult is the portable form of a proof: the serialized Groth16
// proof plus the public inputs it binds to.
type ProofResult struct {
	Size         int      `json:"size"`
	Curve        string   `json:"curve"`
	Proof        string   `json:"proof"`
	PublicInputs []string `json:"public_inputs,omitempty"`
	Constraints  int      `json:"constraints"`
	ProveTime    float64  `json:"prove_time,omitempty"`
}

// NewProver creates a prover on the default curve.
func NewProver() *Prover {
	return NewProverOn(DefaultCurve)
}

// NewProverOn creates a prover bound to a specific curve.
func NewProverOn(curve ecc.ID) *Prover {
	return &Prover{
		circuits: make(map[int]*CompiledCircuit),
		curve:    curve,
	}
}

// Curve returns the curve this prover operates on.
func (p *Prover) Curve() ecc.ID {
	return p.curve
}

// EnsureCircuit returns the compiled circuit for size, compiling and
// running trusted setup on first use. Setup for 9x9 grids takes a few
// seconds; persist the result with SaveTo to skip it on later runs.
func (p *Prover) EnsureCircuit(size int) (*CompiledCircuit, error) {
	p.mu.RLock()
	cc, ok := p.circuits[size]
	p.mu.RUnlock()
	if ok {
		return cc, nil
	}

	circuit, err := NewCircuit(size)
	if err != nil {
		return nil, err
	}

	cs, err := frontend.Compile(p.curve.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return nil, fmt.Errorf("circuit compilation failed: %w", err)
	}

	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("setup failed: %w", err)
	}

	cc = &CompiledCircuit{
		Size:         size,
		CS:           cs,
		ProvingKey:   pk,
		VerifyingKey: vk,
		Constraints:  cs.GetNbConstraints(),
		PublicVars:   cs.GetNbPublicVariables(),
		PrivateVars:  cs.GetNbSecretVariables(),
	}

	p.mu.Lock()
	p.circuits[size] = cc
	p.mu.Unlock()
	return cc, nil
}

// AddCircuit registers a pre-compiled circuit, typically loaded from disk.
func (p *Prover) AddCircuit(size int, cc *CompiledCircuit) {
	cc.Size = size
	p.mu.Lock()
	p.circuits[size] = cc
	p.mu.Unlock()
}

// Circuit returns the compiled circuit for size, if registered.
func (p *Prover) Circuit(size int) (*CompiledCircuit, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cc, ok := p.circuits[size]
	return cc, ok
}

// Sizes returns the grid sizes with registered circuits.
func (p *Prover) Sizes() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	sizes := make([]int, 0, len(p.circuits))
	for size := range p.circuits {
		sizes = append(sizes, size)
	}
	return sizes
}

// Prove generates a proof that solution completes puzzle. The solution
// never leaves the witness; only the clue grid is public.
func (p *Prover) Prove(puzzle *sudoku.Puzzle, solution sudoku.Grid) (*ProofResult, error) {
	cc, err := p.EnsureCircuit(puzzle.Size())
	if err != nil {
		return nil, err
	}

	assignment, err := Assignment(puzzle, solution)
	if err != nil {
		return nil, err
	}

	w, err := frontend.NewWitness(assignment, p.curve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("witness creation failed: %w", err)
	}

	start := time.Now()
	proof, err := groth16.Prove(cc.CS, cc.ProvingKey, w)
	if err != nil {
		return nil, fmt.Errorf("proof generation failed: %w", err)
	}
	elapsed := time.Since(start)

	public, err := w.Public()
	if err != nil {
		return nil, fmt.Errorf("public witness extraction failed: %w", err)
	}

	encoded, err := encodeProof(proof)
	if err != nil {
		return nil, err
	}
	inputs, err := encodePublicInputs(public, puzzle.Size())
	if err != nil {
		return nil, err
	}

	return &ProofResult{
		Size:         puzzle.Size(),
		Curve:        CurveName(p.curve),
		Proof:        encoded,
		PublicInputs: inputs,
		Constraints:  cc.Constraints,
		ProveTime:    elapsed.Seconds(),
	}, nil
}

// Verify checks a proof against a puzzle. The public inputs are rebuilt
// from the puzzle itself, so a proof for different clues is rejected.
func (p *Prover) Verify(res *ProofResult, puzzle *sudoku.Puzzle) error {
	if res.Curve != "" && res.Curve != CurveName(p.curve) {
		return fmt.Errorf("proof uses curve %s, prover uses %s", res.Curve, CurveName(p.curve))
	}
	if res.Size != 0 && res.Size != puzzle.Size() {
		return fmt.Errorf("proof is for %dx%d grids, puzzle is %dx%d",
			res.Size, res.Size, puzzle.Size(), puzzle.Size())
	}

	cc, err := p.EnsureCircuit(puzzle.Size())
	if err != nil {
		return err
	}

	proof, err := decodeProof(p.curve, res.Proof)
	if err != nil {
		return fmt.Errorf("decode proof: %w", err)
	}

	assignment, err := PublicAssignment(puzzle)
	if err != nil {
		return err
	}
	public, err := frontend.NewWitness(assignment, p.curve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("public witness creation failed: %w", err)
	}

	if err := groth16.Verify(proof, cc.VerifyingKey, public); err != nil {
		return fmt.Errorf("proof rejected: %w", err)
	}
	return nil
}

func encodeProof(proof groth16.Proof) (string, error) {
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("marshal proof: %w", err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

func decodeProof(curve ecc.ID, encoded string) (groth16.Proof, error) {
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	proof := groth16.NewProof(curve)
	if _, err := proof.ReadFrom(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return proof, nil
}

// encodePublicInputs renders the public witness as hex field elements,
// one per cell in row-major order.
func encodePublicInputs(public witness.Witness, size int) ([]string, error) {
	raw, err := public.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal public witness: %w", err)
	}

	// The binary layout is a 12-byte header followed by fixed-size field
	// elements.
	const headerSize = 12
	if len(raw) < headerSize {
		return nil, fmt.Errorf("public witness too short: %d bytes", len(raw))
	}
	data := raw[headerSize:]

	count := size * size
	if count == 0 || len(data)%count != 0 {
		return nil, fmt.Errorf("public witness has %d bytes for %d inputs", len(data), count)
	}
	elementSize := len(data) / count

	inputs := make([]string, count)
	for i := 0; i < count; i++ {
		val := new(big.Int).SetBytes(data[i*elementSize : (i+1)*elementSize])
		inputs[i] = fmt.Sprintf("0x%0*x", elementSize*2, val)
	}
	return inputs, nil
}

// WriteProof writes a proof result to a JSON file.
func WriteProof(res *ProofResult, filename string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal proof result: %w", err)
	}
	return os.WriteFile(filename, data, 0644)
}

// ReadProof reads a proof result from a JSON file.
func ReadProof(filename string) (*ProofResult, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read proof file: %w", err)
	}
	var res ProofResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse proof file: %w", err)
	}
	return &res, nil
}
