package ceremony

import (
	"fmt"
	"io"

	"github.com/kysee/groth16-ceremony/curve"
	"github.com/rs/zerolog"
)

// Combine reassembles chunks (produced by NewChunked, contributed to
// independently, and ordered by chunk index) into a single MPCParameters,
// implementing §4.5. The shared vk, beta_g1, delta_g1, a/b queries, cs_hash,
// and contribution list come from queries and chunks[0]; h_query/l_query
// are the chunks' own vectors concatenated in order. Combine does not
// itself re-verify that every chunk shares the same vk/cs_hash/
// contribution list: callers that read chunks from untrusted sources
// should Verify them individually first.
func Combine(queries *QueryParameters, chunks []*MPCParameters, log zerolog.Logger) (*MPCParameters, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("ceremony: combine: no chunks given")
	}
	first := chunks[0]

	hLen, lLen := 0, 0
	for _, c := range chunks {
		hLen += len(c.Params.HQuery)
		lLen += len(c.Params.LQuery)
	}

	hQuery := make([]curve.G1Affine, 0, hLen)
	lQuery := make([]curve.G1Affine, 0, lLen)
	for _, c := range chunks {
		hQuery = append(hQuery, c.Params.HQuery...)
		lQuery = append(lQuery, c.Params.LQuery...)
	}

	combined := &MPCParameters{
		Params: ProvingKey{
			VK:       first.Params.VK.clone(),
			BetaG1:   first.Params.BetaG1,
			DeltaG1:  first.Params.DeltaG1,
			AQuery:   append([]curve.G1Affine(nil), queries.AQuery...),
			BG1Query: append([]curve.G1Affine(nil), queries.BG1Query...),
			BG2Query: append([]curve.G2Affine(nil), queries.BG2Query...),
			HQuery:   hQuery,
			LQuery:   lQuery,
		},
		CsHash:        first.CsHash,
		Contributions: append([]PublicKey(nil), first.Contributions...),
	}
	log.Debug().Int("chunks", len(chunks)).Int("h_query", hLen).Int("l_query", lLen).Msg("chunks combined")
	return combined, nil
}

// ContributeChunked folds one contributor's randomness across every chunk
// of a chunked ceremony at once, implementing §4.6: a single keypair is
// derived from the chunks' shared delta_g1/cs_hash/contribution history,
// then applied to each chunk in turn (delta_g1/delta_g2 advance by delta,
// h_query/l_query scale by delta^-1, the new pubkey is appended), matching
// what a contributor who downloads every chunk and streams the same
// randomness through each of them in sequence would do. All chunks must
// share identical delta_g1, vk.delta_g2, cs_hash, and contribution list on
// entry; that precondition holds for chunks produced together by
// NewChunked and not yet diverged by an independent contribution.
func ContributeChunked(rnd io.Reader, chunks []*MPCParameters, log zerolog.Logger) ([64]byte, error) {
	if len(chunks) == 0 {
		return [64]byte{}, fmt.Errorf("ceremony: contribute: no chunks given")
	}
	first := chunks[0]

	kp, err := newKeypair(rnd, first.Params.DeltaG1, first.CsHash, first.Contributions)
	if err != nil {
		return [64]byte{}, err
	}
	deltaInv := curve.Invert(&kp.delta)

	for i, chunk := range chunks {
		if err := curve.BatchMulG1(chunk.Params.LQuery, &deltaInv); err != nil {
			return [64]byte{}, fmt.Errorf("ceremony: scaling chunk %d l_query: %w", i, err)
		}
		if err := curve.BatchMulG1(chunk.Params.HQuery, &deltaInv); err != nil {
			return [64]byte{}, fmt.Errorf("ceremony: scaling chunk %d h_query: %w", i, err)
		}
		chunk.Params.VK.DeltaG2 = curve.MulG2(&chunk.Params.VK.DeltaG2, &kp.delta)
		chunk.Params.DeltaG1 = curve.MulG1(&chunk.Params.DeltaG1, &kp.delta)
		chunk.Contributions = append(chunk.Contributions, kp.public)
		log.Debug().Int("chunk", i).Msg("chunk contribution applied")
	}

	kp.zeroize()
	hash := kp.public.Hash()
	log.Info().Hex("contribution", hash[:]).Msg("chunked contribution applied")
	return hash, nil
}

// VerifyChunk mirrors §4.3 for a single chunk produced by a chunked
// contribution: it performs the same delta/transcript/contribution-prefix
// and vk/beta_g1 equality checks as Verify, but the H/L ratio check only
// covers this chunk's own slice rather than the full h_query/l_query
// vectors (§4.6).
func VerifyChunk(before, after *MPCParameters, log zerolog.Logger) ([][64]byte, error) {
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

	if err := checkQueryRatio(before.Params.HQuery, after.Params.HQuery, after.Params.VK.DeltaG2, before.Params.VK.DeltaG2, "h_query"); err != nil {
		return nil, err
	}
	if err := checkQueryRatio(before.Params.LQuery, after.Params.LQuery, after.Params.VK.DeltaG2, before.Params.VK.DeltaG2, "l_query"); err != nil {
		return nil, err
	}

	return VerifyTranscript(before.CsHash, after.Contributions, log)
}
