package ceremony

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kysee/groth16-ceremony/config"
	"github.com/kysee/groth16-ceremony/curve"
)

// MPCParameters layout (§6):
//   ProvingKey || cs_hash[64] || u32 LE contributions_count || contributions[*]
//
// ProvingKey layout:
//   alpha_g1 || beta_g2 || gamma_g2 || delta_g2 || vec(gamma_abc_g1) ||
//   beta_g1 || delta_g1 || vec(a_query) || vec(b_g1_query) ||
//   vec(b_g2_query) || vec(h_query) || vec(l_query)
//
// PublicKey layout (always uncompressed):
//   delta_after || s || s_delta || r_delta || transcript[64]

func writeU64(w io.Writer, n uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], n)
	_, err := w.Write(buf[:])
	return err
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func writeU32(w io.Writer, n uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], n)
	_, err := w.Write(buf[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func isCompressed(c config.Compression) bool { return c == config.Compressed }

func writeG1Vec(w io.Writer, pts []curve.G1Affine, c config.Compression) error {
	if err := writeU64(w, uint64(len(pts))); err != nil {
		return err
	}
	compressed := isCompressed(c)
	for i := range pts {
		if err := curve.WriteG1(w, &pts[i], compressed); err != nil {
			return fmt.Errorf("writing g1_query[%d]: %w", i, err)
		}
	}
	return nil
}

func writeG2Vec(w io.Writer, pts []curve.G2Affine, c config.Compression) error {
	if err := writeU64(w, uint64(len(pts))); err != nil {
		return err
	}
	compressed := isCompressed(c)
	for i := range pts {
		if err := curve.WriteG2(w, &pts[i], compressed); err != nil {
			return fmt.Errorf("writing g2_query[%d]: %w", i, err)
		}
	}
	return nil
}

// readG1Vec reads a length-prefixed G1 vector and, for any mode other than
// CheckNone, checks every decoded element for subgroup membership.
func readG1Vec(r io.Reader, c config.Compression, mode config.CorrectnessMode) ([]curve.G1Affine, error) {
	n, err := readU64(r)
	if err != nil {
		return nil, fmt.Errorf("reading g1 vec length: %w", err)
	}
	compressed := isCompressed(c)
	out := make([]curve.G1Affine, n)
	for i := range out {
		p, err := curve.ReadG1(r, compressed)
		if err != nil {
			return nil, &ErrDeserialization{Cause: fmt.Errorf("g1_query[%d]: %w", i, err)}
		}
		out[i] = p
	}
	if mode != config.CheckNone {
		if err := curve.CheckSubgroupG1(out); err != nil {
			return nil, &ErrSubgroupCheckFailed{Cause: err}
		}
	}
	return out, nil
}

func readG2Vec(r io.Reader, c config.Compression, mode config.CorrectnessMode) ([]curve.G2Affine, error) {
	n, err := readU64(r)
	if err != nil {
		return nil, fmt.Errorf("reading g2 vec length: %w", err)
	}
	compressed := isCompressed(c)
	out := make([]curve.G2Affine, n)
	for i := range out {
		p, err := curve.ReadG2(r, compressed)
		if err != nil {
			return nil, &ErrDeserialization{Cause: fmt.Errorf("g2_query[%d]: %w", i, err)}
		}
		out[i] = p
	}
	if mode != config.CheckNone {
		if err := curve.CheckSubgroupG2(out); err != nil {
			return nil, &ErrSubgroupCheckFailed{Cause: err}
		}
	}
	return out, nil
}

func writeProvingKey(w io.Writer, pk *ProvingKey, c config.Compression) error {
	writers := []func() error{
		func() error { return curve.WriteG1(w, &pk.VK.AlphaG1, isCompressed(c)) },
		func() error { return curve.WriteG2(w, &pk.VK.BetaG2, isCompressed(c)) },
		func() error { return curve.WriteG2(w, &pk.VK.GammaG2, isCompressed(c)) },
		func() error { return curve.WriteG2(w, &pk.VK.DeltaG2, isCompressed(c)) },
		func() error { return writeG1Vec(w, pk.VK.GammaABCG1, c) },
		func() error { return curve.WriteG1(w, &pk.BetaG1, isCompressed(c)) },
		func() error { return curve.WriteG1(w, &pk.DeltaG1, isCompressed(c)) },
		func() error { return writeG1Vec(w, pk.AQuery, c) },
		func() error { return writeG1Vec(w, pk.BG1Query, c) },
		func() error { return writeG2Vec(w, pk.BG2Query, c) },
		func() error { return writeG1Vec(w, pk.HQuery, c) },
		func() error { return writeG1Vec(w, pk.LQuery, c) },
	}
	for _, step := range writers {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// readProvingKey decodes a ProvingKey. When fast is true and mode is
// CheckFull, a_query/b_g1_query/b_g2_query (whose entries are allowed to be
// the point at infinity by construction) are read at OnlyInGroup instead.
// If deferredSubgroupCheck is also true, those three vectors are read with
// no per-vector subgroup check and are checked together by one
// CheckQuerySubgroups pass after the last vector has been read. Any mode
// other than CheckNone runs the same subgroup check, which accepts the
// point at infinity.
func readProvingKey(r io.Reader, c config.Compression, mode config.CorrectnessMode, fast bool, deferredSubgroupCheck bool) (*ProvingKey, error) {
	var pk ProvingKey
	var err error

	pk.VK.AlphaG1, err = curve.ReadG1(r, isCompressed(c))
	if err != nil {
		return nil, &ErrDeserialization{Cause: err}
	}
	pk.VK.BetaG2, err = curve.ReadG2(r, isCompressed(c))
	if err != nil {
		return nil, &ErrDeserialization{Cause: err}
	}
	pk.VK.GammaG2, err = curve.ReadG2(r, isCompressed(c))
	if err != nil {
		return nil, &ErrDeserialization{Cause: err}
	}
	pk.VK.DeltaG2, err = curve.ReadG2(r, isCompressed(c))
	if err != nil {
		return nil, &ErrDeserialization{Cause: err}
	}
	pk.VK.GammaABCG1, err = readG1Vec(r, c, mode)
	if err != nil {
		return nil, err
	}

	pk.BetaG1, err = curve.ReadG1(r, isCompressed(c))
	if err != nil {
		return nil, &ErrDeserialization{Cause: err}
	}
	pk.DeltaG1, err = curve.ReadG1(r, isCompressed(c))
	if err != nil {
		return nil, &ErrDeserialization{Cause: err}
	}

	// a_query, b_g1_query, b_g2_query are expected to contain infinity
	// points for variables unused on the respective side of the circuit;
	// Full correctness downgrades to OnlyInGroup for them (§6).
	abMode := mode
	abDeferred := false
	if fast && mode == config.CheckFull {
		abMode = config.CheckOnlyInGroup
		if deferredSubgroupCheck {
			abMode = config.CheckNone
			abDeferred = true
		}
	}

	pk.AQuery, err = readG1Vec(r, c, abMode)
	if err != nil {
		return nil, err
	}
	pk.BG1Query, err = readG1Vec(r, c, abMode)
	if err != nil {
		return nil, err
	}
	pk.BG2Query, err = readG2Vec(r, c, abMode)
	if err != nil {
		return nil, err
	}
	pk.HQuery, err = readG1Vec(r, c, mode)
	if err != nil {
		return nil, err
	}
	pk.LQuery, err = readG1Vec(r, c, mode)
	if err != nil {
		return nil, err
	}

	if abDeferred {
		if err := CheckQuerySubgroups(&pk); err != nil {
			return nil, err
		}
	}

	return &pk, nil
}

// CheckQuerySubgroups runs the batched subgroup-membership pass on
// a_query/b_g1_query/b_g2_query that a fast read may have deferred
// (SUPPLEMENTED FEATURES #1).
func CheckQuerySubgroups(pk *ProvingKey) error {
	if err := curve.CheckSubgroupG1(pk.AQuery); err != nil {
		return &ErrSubgroupCheckFailed{Cause: fmt.Errorf("a_query: %w", err)}
	}
	if err := curve.CheckSubgroupG1(pk.BG1Query); err != nil {
		return &ErrSubgroupCheckFailed{Cause: fmt.Errorf("b_g1_query: %w", err)}
	}
	if err := curve.CheckSubgroupG2(pk.BG2Query); err != nil {
		return &ErrSubgroupCheckFailed{Cause: fmt.Errorf("b_g2_query: %w", err)}
	}
	return nil
}

func writePublicKey(w io.Writer, pk *PublicKey) error {
	if err := curve.WriteG1(w, &pk.DeltaAfter, false); err != nil {
		return err
	}
	if err := curve.WriteG1(w, &pk.S, false); err != nil {
		return err
	}
	if err := curve.WriteG1(w, &pk.SDelta, false); err != nil {
		return err
	}
	if err := curve.WriteG2(w, &pk.RDelta, false); err != nil {
		return err
	}
	_, err := w.Write(pk.Transcript[:])
	return err
}

func readPublicKey(r io.Reader) (PublicKey, error) {
	var pk PublicKey
	var err error
	pk.DeltaAfter, err = curve.ReadG1(r, false)
	if err != nil {
		return pk, &ErrDeserialization{Cause: err}
	}
	pk.S, err = curve.ReadG1(r, false)
	if err != nil {
		return pk, &ErrDeserialization{Cause: err}
	}
	pk.SDelta, err = curve.ReadG1(r, false)
	if err != nil {
		return pk, &ErrDeserialization{Cause: err}
	}
	pk.RDelta, err = curve.ReadG2(r, false)
	if err != nil {
		return pk, &ErrDeserialization{Cause: err}
	}
	if _, err := io.ReadFull(r, pk.Transcript[:]); err != nil {
		return pk, &ErrDeserialization{Cause: err}
	}
	return pk, nil
}

func writePublicKeyBatch(w io.Writer, pks []PublicKey) error {
	if err := writeU32(w, uint32(len(pks))); err != nil {
		return err
	}
	for i := range pks {
		if err := writePublicKey(w, &pks[i]); err != nil {
			return fmt.Errorf("writing contribution[%d]: %w", i, err)
		}
	}
	return nil
}

func readPublicKeyBatch(r io.Reader) ([]PublicKey, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("reading contribution count: %w", err)
	}
	out := make([]PublicKey, n)
	for i := range out {
		pk, err := readPublicKey(r)
		if err != nil {
			return nil, fmt.Errorf("reading contribution[%d]: %w", i, err)
		}
		out[i] = pk
	}
	return out, nil
}

// Write serializes m in the bit-exact wire format of §6.
func (m *MPCParameters) Write(w io.Writer, c config.Compression) error {
	if err := writeProvingKey(w, &m.Params, c); err != nil {
		return fmt.Errorf("ceremony: writing proving key: %w", err)
	}
	if _, err := w.Write(m.CsHash[:]); err != nil {
		return fmt.Errorf("ceremony: writing cs_hash: %w", err)
	}
	if err := writePublicKeyBatch(w, m.Contributions); err != nil {
		return fmt.Errorf("ceremony: writing contributions: %w", err)
	}
	return nil
}

// Read deserializes an MPCParameters written by Write, applying full
// correctness and subgroup checking.
func Read(r io.Reader, c config.Compression) (*MPCParameters, error) {
	return ReadFast(r, c, config.CheckFull, false)
}

// ReadFast deserializes an MPCParameters with caller-selected correctness.
// When deferQuerySubgroupCheck is true and mode is CheckFull,
// a_query/b_g1_query/b_g2_query are decoded without a per-vector subgroup
// check, and one batched CheckQuerySubgroups pass over all three runs once
// the whole proving key has been read.
func ReadFast(r io.Reader, c config.Compression, mode config.CorrectnessMode, deferQuerySubgroupCheck bool) (*MPCParameters, error) {
	pk, err := readProvingKey(r, c, mode, true, deferQuerySubgroupCheck)
	if err != nil {
		return nil, err
	}

	var csHash [64]byte
	if _, err := io.ReadFull(r, csHash[:]); err != nil {
		return nil, &ErrDeserialization{Cause: fmt.Errorf("cs_hash: %w", err)}
	}

	contributions, err := readPublicKeyBatch(r)
	if err != nil {
		return nil, &ErrDeserialization{Cause: err}
	}

	return &MPCParameters{
		Params:        *pk,
		CsHash:        csHash,
		Contributions: contributions,
	}, nil
}
