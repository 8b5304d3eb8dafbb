package prover

import (
	"fmt"
	"sort"
	"strings"

	"github.com/consensys/gnark-crypto/ecc"
)

// DefaultCurve is BN254: Ethereum has precompiles for it and gnark's
// prover is fastest there.
const DefaultCurve = ecc.BN254

var curvesByName = map[string]ecc.ID{
	"bn254":     ecc.BN254,
	"bls12-377": ecc.BLS12_377,
	"bls12-381": ecc.BLS12_381,
}

// ParseCurve maps a curve name to its gnark identifier.
func ParseCurve(name string) (ecc.ID, error) {
	id, ok := curvesByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown curve %q (supported: %s)", name, strings.Join(CurveNames(), ", "))
	}
	return id, nil
}

// CurveName returns the canonical name for id.
func CurveName(id ecc.ID) string {
	for name, cid := range curvesByName {
		if cid == id {
			return name
		}
	}
	return strings.ToLower(id.String())
}

// CurveNames lists the supported curve names, sorted.
func CurveNames() []string {
	names := make([]string, 0, len(curvesByName))
	for name := range curvesByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
