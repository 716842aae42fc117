// Package qap holds the Quadratic Arithmetic Program representation that a
// circuit is assumed to already have been reduced to before reaching this
// ceremony core (R1CS constraint synthesis itself is out of scope), plus the
// Lagrange-coefficient evaluation step that turns a QAP and a phase-1 output
// into the Groth16 query vectors (a_query, b_g1_query, b_g2_query,
// gamma_abc_g1 and l_query).
package qap

import (
	"fmt"

	"github.com/kysee/groth16-ceremony/curve"
)

// ConstraintTerm is one sparse entry of a variable's linear combination: the
// coefficient the variable carries in a given constraint.
type ConstraintTerm struct {
	Constraint int
	Coeff      curve.Scalar
}

// LinearCombination is a variable's sparse row over constraints.
type LinearCombination []ConstraintTerm

// Assembly is a QAP in the KeypairAssembly shape: one row per variable (the
// "one" variable plus every public and private variable) for each of the
// A/B/C matrices, ordered public-variables-first.
type Assembly struct {
	NumPublicVariables  int
	NumPrivateVariables int
	At, Bt, Ct          []LinearCombination
}

// NumVariables is the total variable count (public, including the
// always-allocated "one" input, plus private).
func (a *Assembly) NumVariables() int {
	return a.NumPublicVariables + a.NumPrivateVariables
}

// Phase1Output is the subset of the external phase-1 "powers of tau"
// accumulator this core consumes: alpha/beta commitments and the
// Lagrange-basis sequences evaluated at tau, indexed by constraint.
type Phase1Output struct {
	AlphaG1 curve.G1Affine
	BetaG1  curve.G1Affine
	BetaG2  curve.G2Affine

	// CoeffsG1/CoeffsG2 are {L_j(tau)}_j over G1/G2, one entry per constraint.
	CoeffsG1 []curve.G1Affine
	CoeffsG2 []curve.G2Affine
	// AlphaCoeffsG1 is {alpha * L_j(tau)}_j, BetaCoeffsG1 is {beta * L_j(tau)}_j.
	AlphaCoeffsG1 []curve.G1Affine
	BetaCoeffsG1  []curve.G1Affine
	// HG1 is the h_query source: {tau^i * Z(tau)}_i over G1, length = degree-1.
	HG1 []curve.G1Affine
}

// Eval is the QAP-against-Lagrange-coefficients evaluation of §4.1 step 1.
// It returns, per variable, the A/B_G1/B_G2 query entries, and splits the
// combined (beta*u + alpha*v + w) term into gamma_abc_g1 (public variables)
// and l_query (private variables).
func Eval(p1 *Phase1Output, asm *Assembly) (aG1, bG1 []curve.G1Affine, bG2 []curve.G2Affine, gammaABCG1, lQuery []curve.G1Affine, err error) {
	nVars := asm.NumVariables()
	if len(asm.At) != nVars || len(asm.Bt) != nVars || len(asm.Ct) != nVars {
		return nil, nil, nil, nil, nil, fmt.Errorf("qap: assembly row count %d/%d/%d does not match %d variables", len(asm.At), len(asm.Bt), len(asm.Ct), nVars)
	}

	aG1 = make([]curve.G1Affine, nVars)
	bG1 = make([]curve.G1Affine, nVars)
	bG2 = make([]curve.G2Affine, nVars)
	gammaABCG1 = make([]curve.G1Affine, asm.NumPublicVariables)
	lQuery = make([]curve.G1Affine, asm.NumPrivateVariables)

	evalErr := curve.Parallel(nVars, func(start, end int) error {
		for i := start; i < end; i++ {
			av, err := evalG1(p1.CoeffsG1, asm.At[i])
			if err != nil {
				return fmt.Errorf("qap: variable %d a_query: %w", i, err)
			}
			aG1[i] = av

			bv1, err := evalG1(p1.CoeffsG1, asm.Bt[i])
			if err != nil {
				return fmt.Errorf("qap: variable %d b_g1_query: %w", i, err)
			}
			bG1[i] = bv1

			bv2, err := evalG2(p1.CoeffsG2, asm.Bt[i])
			if err != nil {
				return fmt.Errorf("qap: variable %d b_g2_query: %w", i, err)
			}
			bG2[i] = bv2

			icFromA, err := evalG1(p1.BetaCoeffsG1, asm.At[i])
			if err != nil {
				return fmt.Errorf("qap: variable %d beta*u: %w", i, err)
			}
			icFromB, err := evalG1(p1.AlphaCoeffsG1, asm.Bt[i])
			if err != nil {
				return fmt.Errorf("qap: variable %d alpha*v: %w", i, err)
			}
			icFromC, err := evalG1(p1.CoeffsG1, asm.Ct[i])
			if err != nil {
				return fmt.Errorf("qap: variable %d w: %w", i, err)
			}
			ic := addG1(addG1(icFromA, icFromB), icFromC)

			if i < asm.NumPublicVariables {
				gammaABCG1[i] = ic
			} else {
				lQuery[i-asm.NumPublicVariables] = ic
			}
		}
		return nil
	})
	if evalErr != nil {
		return nil, nil, nil, nil, nil, evalErr
	}

	return aG1, bG1, bG2, gammaABCG1, lQuery, nil
}

func evalG1(coeffs []curve.G1Affine, lc LinearCombination) (curve.G1Affine, error) {
	var acc curve.G1Affine
	for _, term := range lc {
		if term.Constraint < 0 || term.Constraint >= len(coeffs) {
			return curve.G1Affine{}, fmt.Errorf("constraint index %d out of range (have %d)", term.Constraint, len(coeffs))
		}
		scaled := curve.MulG1(&coeffs[term.Constraint], &term.Coeff)
		acc = addG1(acc, scaled)
	}
	return acc, nil
}

func evalG2(coeffs []curve.G2Affine, lc LinearCombination) (curve.G2Affine, error) {
	var acc curve.G2Affine
	for _, term := range lc {
		if term.Constraint < 0 || term.Constraint >= len(coeffs) {
			return curve.G2Affine{}, fmt.Errorf("constraint index %d out of range (have %d)", term.Constraint, len(coeffs))
		}
		scaled := curve.MulG2(&coeffs[term.Constraint], &term.Coeff)
		acc.Add(&acc, &scaled)
	}
	return acc, nil
}

func addG1(a, b curve.G1Affine) curve.G1Affine {
	var out curve.G1Affine
	out.Add(&a, &b)
	return out
}
