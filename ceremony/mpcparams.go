// Package ceremony implements the Phase-2 parameter transform and
// verification subsystem of a Groth16 trusted-setup MPC ceremony: building
// the initial proving key from a QAP and a phase-1 output, folding in a
// contributor's randomness, verifying one contribution or an entire
// transcript, and combining independently-contributed chunks back into a
// single proving key.
package ceremony

import (
	"fmt"
	"io"

	"github.com/kysee/groth16-ceremony/curve"
	"github.com/kysee/groth16-ceremony/qap"
	"github.com/rs/zerolog"
)

// MPCParameters is the evolving ceremony state: the proving key under
// construction, the hash binding it to the circuit it was built from, and
// the ordered log of contributions applied so far (§3).
type MPCParameters struct {
	Params        ProvingKey
	CsHash        [64]byte
	Contributions []PublicKey
}

// New evaluates asm against phase1 to build the initial proving key, fixes
// gamma_g2 and delta_g1/delta_g2 to the group generators (BGM17 gamma=1
// normalization, no contributions yet), and hashes the result into CsHash.
// It returns ErrUnconstrainedVariable if any private variable never appears
// in l_query, since l_query must stay fully dense (§4.1 step 1, edge case).
// log's zero value is a disabled logger, so it is safe to omit.
func New(asm *qap.Assembly, phase1 *qap.Phase1Output, log zerolog.Logger) (*MPCParameters, error) {
	full, _, err := newEvaluated(asm, phase1, log)
	if err != nil {
		return nil, err
	}
	return full, nil
}

// newEvaluated is the shared body of New and NewChunked: it runs the QAP
// evaluation, builds the verifying key and proving key, and returns both
// the full MPCParameters and the query-only portion chunking needs.
func newEvaluated(asm *qap.Assembly, phase1 *qap.Phase1Output, log zerolog.Logger) (*MPCParameters, *QueryParameters, error) {
	aG1, bG1, bG2, gammaABCG1, lQuery, err := qap.Eval(phase1, asm)
	if err != nil {
		return nil, nil, fmt.Errorf("ceremony: evaluating QAP: %w", err)
	}
	log.Debug().Int("variables", asm.NumVariables()).Msg("QAP evaluation done")

	for _, p := range lQuery {
		if p.IsInfinity() {
			return nil, nil, ErrUnconstrainedVariable{}
		}
	}
	log.Debug().Msg("density check done")

	g1gen, g2gen := curve.Generators()

	vk := VerifyingKey{
		AlphaG1:    phase1.AlphaG1,
		BetaG2:     phase1.BetaG2,
		GammaG2:    g2gen,
		DeltaG2:    g2gen,
		GammaABCG1: gammaABCG1,
	}
	pk := ProvingKey{
		VK:       vk,
		BetaG1:   phase1.BetaG1,
		DeltaG1:  g1gen,
		AQuery:   aG1,
		BG1Query: bG1,
		BG2Query: bG2,
		HQuery:   phase1.HG1,
		LQuery:   lQuery,
	}

	csHash, err := hashProvingKey(&pk)
	if err != nil {
		return nil, nil, err
	}
	log.Debug().Hex("cs_hash", csHash[:]).Msg("cs_hash computed")

	full := &MPCParameters{Params: pk, CsHash: csHash}
	queries := &QueryParameters{
		VK:       vk.clone(),
		BetaG1:   pk.BetaG1,
		DeltaG1:  pk.DeltaG1,
		AQuery:   append([]curve.G1Affine(nil), aG1...),
		BG1Query: append([]curve.G1Affine(nil), bG1...),
		BG2Query: append([]curve.G2Affine(nil), bG2...),
	}
	return full, queries, nil
}

// NewChunked builds the same initial proving key as New, but splits
// h_query/l_query into chunkSize-sized pieces that can be contributed to
// independently and recombined with Combine (§4.1, §4.5/§4.6). It returns
// the full (unchunked) parameters for reference, the shared query
// parameters every chunk omits, and the chunks themselves.
func NewChunked(asm *qap.Assembly, phase1 *qap.Phase1Output, chunkSize int, log zerolog.Logger) (full *MPCParameters, queries *QueryParameters, chunks []*MPCParameters, err error) {
	if chunkSize <= 0 {
		return nil, nil, nil, fmt.Errorf("ceremony: chunk size must be positive, got %d", chunkSize)
	}

	full, queries, err = newEvaluated(asm, phase1, log)
	if err != nil {
		return nil, nil, nil, err
	}

	maxLen := len(full.Params.HQuery)
	if l := len(full.Params.LQuery); l > maxLen {
		maxLen = l
	}
	numChunks := (maxLen + chunkSize - 1) / chunkSize

	chunks = make([]*MPCParameters, 0, numChunks)
	for i := 0; i < numChunks; i++ {
		start := i * chunkSize
		end := start + chunkSize

		chunks = append(chunks, &MPCParameters{
			Params: ProvingKey{
				VK:      full.Params.VK.clone(),
				BetaG1:  full.Params.BetaG1,
				DeltaG1: full.Params.DeltaG1,
				HQuery:  sliceOrEmpty(full.Params.HQuery, start, end),
				LQuery:  sliceOrEmpty(full.Params.LQuery, start, end),
			},
			CsHash: full.CsHash,
		})
		log.Debug().Int("chunk", i).Msg("constructed chunk")
	}
	return full, queries, chunks, nil
}

func sliceOrEmpty(s []curve.G1Affine, start, end int) []curve.G1Affine {
	if start >= len(s) {
		return nil
	}
	if end > len(s) {
		end = len(s)
	}
	out := make([]curve.G1Affine, end-start)
	copy(out, s[start:end])
	return out
}

// Clone deep-copies m.
func (m *MPCParameters) Clone() *MPCParameters {
	return &MPCParameters{
		Params:        m.Params.Clone(),
		CsHash:        m.CsHash,
		Contributions: append([]PublicKey(nil), m.Contributions...),
	}
}

// Equal reports whether m and o are field-wise identical.
func (m *MPCParameters) Equal(o *MPCParameters) bool {
	if m.CsHash != o.CsHash || len(m.Contributions) != len(o.Contributions) {
		return false
	}
	for i := range m.Contributions {
		if !m.Contributions[i].Equal(o.Contributions[i]) {
			return false
		}
	}
	return m.Params.Equal(&o.Params)
}

// Contribute folds a fresh contributor's randomness into m in place,
// implementing §4.2: it samples a keypair bound to the current delta_g1 and
// contribution history, scales l_query/h_query by delta^-1, advances
// delta_g1/delta_g2 by delta, zeroizes the secret, and appends the
// contribution's public key. It returns the BLAKE2b-512 hash of that public
// key, the value a contributor keeps to later confirm their work survived
// into a downstream MPCParameters (ContainsContribution).
func (m *MPCParameters) Contribute(rnd io.Reader, log zerolog.Logger) ([64]byte, error) {
	kp, err := newKeypair(rnd, m.Params.DeltaG1, m.CsHash, m.Contributions)
	if err != nil {
		return [64]byte{}, err
	}

	deltaInv := curve.Invert(&kp.delta)
	if err := curve.BatchMulG1(m.Params.LQuery, &deltaInv); err != nil {
		return [64]byte{}, fmt.Errorf("ceremony: scaling l_query: %w", err)
	}
	if err := curve.BatchMulG1(m.Params.HQuery, &deltaInv); err != nil {
		return [64]byte{}, fmt.Errorf("ceremony: scaling h_query: %w", err)
	}
	log.Debug().Msg("l_query/h_query scaled by delta^-1")

	m.Params.VK.DeltaG2 = curve.MulG2(&m.Params.VK.DeltaG2, &kp.delta)
	m.Params.DeltaG1 = curve.MulG1(&m.Params.DeltaG1, &kp.delta)

	kp.zeroize()

	m.Contributions = append(m.Contributions, kp.public)
	hash := kp.public.Hash()
	log.Info().Hex("contribution", hash[:]).Msg("contribution applied")
	return hash, nil
}

// Verify checks that after was derived from before by a chain of valid
// contributions (§4.3), returning the per-contribution hashes accumulated
// by VerifyTranscript on success, in the same order contributors received
// them from Contribute. The checks run in a fixed fail-fast order so a
// caller can tell which invariant broke from the returned error's type.
func Verify(before, after *MPCParameters, log zerolog.Logger) ([][64]byte, error) {
	if len(after.Contributions) == 0 {
		return nil, ErrNoContributions{}
	}
	pubkey := after.Contributions[len(after.Contributions)-1]

	if !pubkey.DeltaAfter.Equal(&after.Params.DeltaG1) {
		return nil, &ErrBrokenInvariant{Kind: InvariantDeltaG1}
	}

	g1gen, g2gen := curve.Generators()
	ok, err := curve.CheckSameRatio([2]curve.G1Affine{g1gen, pubkey.DeltaAfter}, [2]curve.G2Affine{g2gen, after.Params.VK.DeltaG2})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ErrPairingCheckFailed{Message: "inconsistent G2 delta"}
	}
	log.Debug().Msg("delta_g1/delta_g2 consistency check passed")

	if len(after.Contributions) < len(before.Contributions) {
		return nil, &ErrBrokenInvariant{Kind: InvariantContributions}
	}
	for i := range before.Contributions {
		if !before.Contributions[i].Equal(after.Contributions[i]) {
			return nil, &ErrBrokenInvariant{Kind: InvariantContributions}
		}
	}

	if before.CsHash != after.CsHash {
		return nil, &ErrBrokenInvariant{Kind: InvariantCsHash}
	}

	if len(before.Params.HQuery) != len(after.Params.HQuery) {
		return nil, ErrInvalidLength{Name: "h_query", Before: len(before.Params.HQuery), After: len(after.Params.HQuery)}
	}
	if len(before.Params.LQuery) != len(after.Params.LQuery) {
		return nil, ErrInvalidLength{Name: "l_query", Before: len(before.Params.LQuery), After: len(after.Params.LQuery)}
	}

	if !before.Params.VK.AlphaG1.Equal(&after.Params.VK.AlphaG1) {
		return nil, &ErrBrokenInvariant{Kind: InvariantAlphaG1}
	}
	if !before.Params.BetaG1.Equal(&after.Params.BetaG1) {
		return nil, &ErrBrokenInvariant{Kind: InvariantBetaG1}
	}
	if !before.Params.VK.BetaG2.Equal(&after.Params.VK.BetaG2) {
		return nil, &ErrBrokenInvariant{Kind: InvariantBetaG2}
	}
	if !before.Params.VK.GammaG2.Equal(&after.Params.VK.GammaG2) {
		return nil, &ErrBrokenInvariant{Kind: InvariantGammaG2}
	}
	if !equalG1Slice(before.Params.VK.GammaABCG1, after.Params.VK.GammaABCG1) {
		return nil, &ErrBrokenInvariant{Kind: InvariantGammaAbcG1}
	}

	if !equalG1Slice(before.Params.AQuery, after.Params.AQuery) {
		return nil, &ErrBrokenInvariant{Kind: InvariantAlphaG1Query}
	}
	if !equalG1Slice(before.Params.BG1Query, after.Params.BG1Query) {
		return nil, &ErrBrokenInvariant{Kind: InvariantBetaG1Query}
	}
	if !equalG2Slice(before.Params.BG2Query, after.Params.BG2Query) {
		return nil, &ErrBrokenInvariant{Kind: InvariantBetaG2Query}
	}

	if err := checkQueryRatio(before.Params.HQuery, after.Params.HQuery, after.Params.VK.DeltaG2, before.Params.VK.DeltaG2, "h_query"); err != nil {
		return nil, err
	}
	if err := checkQueryRatio(before.Params.LQuery, after.Params.LQuery, after.Params.VK.DeltaG2, before.Params.VK.DeltaG2, "l_query"); err != nil {
		return nil, err
	}
	log.Debug().Msg("h_query/l_query ratio checks passed")

	return VerifyTranscript(before.CsHash, after.Contributions, log)
}

// checkQueryRatio merges beforeVec/afterVec into a single pair and checks
// it against the reversed (after-delta, before-delta) ratio, confirming the
// whole vector was scaled by delta^-1 in one pairing rather than one check
// per element (§4.3, §5).
func checkQueryRatio(beforeVec, afterVec []curve.G1Affine, afterDelta, beforeDelta curve.G2Affine, name string) error {
	mergedBefore, mergedAfter, err := curve.MergePairs(nil, beforeVec, afterVec)
	if err != nil {
		return fmt.Errorf("ceremony: merging %s: %w", name, err)
	}
	ok, err := curve.CheckSameRatio([2]curve.G1Affine{mergedBefore, mergedAfter}, [2]curve.G2Affine{afterDelta, beforeDelta})
	if err != nil {
		return err
	}
	if !ok {
		return &ErrPairingCheckFailed{Message: fmt.Sprintf("%s ratio check failed", name)}
	}
	return nil
}

// VerifyTranscript replays every contribution in order against csHash,
// confirming each one's transcript field, signature of knowledge, and
// delta-consistency with its predecessor (§4.4). It returns the
// per-contribution hashes in order on success.
func VerifyTranscript(csHash [64]byte, contributions []PublicKey, log zerolog.Logger) ([][64]byte, error) {
	result := make([][64]byte, 0, len(contributions))
	oldDelta, _ := curve.Generators()

	for i, pubkey := range contributions {
		transcript, err := computeTranscript(csHash, contributions[:i], pubkey.S, pubkey.SDelta)
		if err != nil {
			return nil, err
		}
		if transcript != pubkey.Transcript {
			return nil, &ErrBrokenInvariant{Kind: InvariantTranscript}
		}

		r, err := curve.HashToG2(transcript)
		if err != nil {
			return nil, err
		}

		ok, err := curve.CheckSameRatio([2]curve.G1Affine{pubkey.S, pubkey.SDelta}, [2]curve.G2Affine{r, pubkey.RDelta})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &ErrPairingCheckFailed{Message: "incorrect signature of knowledge"}
		}

		ok, err = curve.CheckSameRatio([2]curve.G1Affine{oldDelta, pubkey.DeltaAfter}, [2]curve.G2Affine{r, pubkey.RDelta})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &ErrPairingCheckFailed{Message: "inconsistent G1 delta"}
		}

		oldDelta = pubkey.DeltaAfter
		result = append(result, pubkey.Hash())
		log.Debug().Int("contribution", i).Msg("transcript entry verified")
	}

	return result, nil
}

// ContainsContribution reports whether myContribution's hash (as returned
// by Contribute) appears among contributions, letting a contributor confirm
// their work made it into a published transcript without re-deriving it.
func ContainsContribution(contributions [][64]byte, myContribution [64]byte) bool {
	for _, c := range contributions {
		if c == myContribution {
			return true
		}
	}
	return false
}
