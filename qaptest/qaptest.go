// Package qaptest builds small, fixed QAP assemblies and matching phase-1
// outputs for exercising the ceremony core in tests, mirroring the role the
// original Rust implementation's `TestCircuit`/`circuit_to_qap` helper
// played (see original_source/phase2/src/parameters.rs). It intentionally
// does not compile a circuit through a frontend: R1CS synthesis is out of
// this core's scope, so fixtures are written directly in QAP form.
package qaptest

import (
	"crypto/rand"
	"fmt"

	"github.com/kysee/groth16-ceremony/curve"
	"github.com/kysee/groth16-ceremony/qap"
)

// Circuit returns a small fixed QAP assembly requiring NumConstraints
// constraints: one "one" public variable, one further public variable, and
// the rest private. Every private variable appears on the B side of
// constraint 0 and on the A and C sides of its own constraint, so l_query
// stays dense; no extra input constraints are added for public variables.
func Circuit(numConstraints int) (*qap.Assembly, error) {
	if numConstraints < 2 {
		return nil, fmt.Errorf("qaptest: need at least 2 constraints, got %d", numConstraints)
	}

	numPublic := 2  // the constant "one" wire plus a single public output
	numPrivate := numConstraints - 1
	nVars := numPublic + numPrivate

	asm := &qap.Assembly{
		NumPublicVariables:  numPublic,
		NumPrivateVariables: numPrivate,
		At:                  make([]qap.LinearCombination, nVars),
		Bt:                  make([]qap.LinearCombination, nVars),
		Ct:                  make([]qap.LinearCombination, nVars),
	}

	one := curve.Scalar{}
	one.SetOne()

	// Constraint 0: public output (var 1) = sum of all private variables.
	asm.Ct[1] = append(asm.Ct[1], qap.ConstraintTerm{Constraint: 0, Coeff: one})
	asm.At[0] = append(asm.At[0], qap.ConstraintTerm{Constraint: 0, Coeff: one}) // "one" wire on the A side
	for v := numPublic; v < nVars; v++ {
		asm.Bt[v] = append(asm.Bt[v], qap.ConstraintTerm{Constraint: 0, Coeff: one})
	}

	// Remaining constraints: "private_i * 1 = private_i", one per private
	// variable, keeping every private row non-empty (dense l_query).
	for i, v := 1, numPublic; v < nVars; i, v = i+1, v+1 {
		asm.At[v] = append(asm.At[v], qap.ConstraintTerm{Constraint: i, Coeff: one})
		asm.Bt[0] = append(asm.Bt[0], qap.ConstraintTerm{Constraint: i, Coeff: one})
		asm.Ct[v] = append(asm.Ct[v], qap.ConstraintTerm{Constraint: i, Coeff: one})
	}

	return asm, nil
}

// Phase1 builds a deterministic-shape (but randomly sampled) phase-1 output
// sized for a circuit with numConstraints constraints, sufficient to
// evaluate the QAP Circuit(numConstraints) produces.
func Phase1(numConstraints int) (*qap.Phase1Output, error) {
	g1, g2 := curve.Generators()

	alpha, err := curve.RandomScalar(rand.Reader)
	if err != nil {
		return nil, err
	}
	beta, err := curve.RandomScalar(rand.Reader)
	if err != nil {
		return nil, err
	}

	out := &qap.Phase1Output{
		AlphaG1: curve.MulG1(&g1, &alpha),
		BetaG1:  curve.MulG1(&g1, &beta),
		BetaG2:  curve.MulG2(&g2, &beta),
	}

	for i := 0; i < numConstraints; i++ {
		l, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, err
		}
		lg1 := curve.MulG1(&g1, &l)
		lg2 := curve.MulG2(&g2, &l)
		out.CoeffsG1 = append(out.CoeffsG1, lg1)
		out.CoeffsG2 = append(out.CoeffsG2, lg2)
		out.AlphaCoeffsG1 = append(out.AlphaCoeffsG1, curve.MulG1(&lg1, &alpha))
		out.BetaCoeffsG1 = append(out.BetaCoeffsG1, curve.MulG1(&lg1, &beta))
	}

	// h_query has degree-1 entries for a QAP of this many constraints.
	for i := 0; i < numConstraints-1; i++ {
		h, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, err
		}
		out.HG1 = append(out.HG1, curve.MulG1(&g1, &h))
	}

	return out, nil
}
