package ceremony

import (
	"bytes"
	"fmt"
	"io"

	"github.com/kysee/groth16-ceremony/curve"
	"golang.org/x/crypto/blake2b"
)

// PublicKey is the public material one contributor leaves behind: the new
// delta_g1, the signature-of-knowledge pair (s, s_delta) and (r, r_delta),
// and the transcript binding this contribution to every prior one (§3).
type PublicKey struct {
	DeltaAfter curve.G1Affine
	S          curve.G1Affine
	SDelta     curve.G1Affine
	RDelta     curve.G2Affine
	Transcript [64]byte
}

// Equal reports field-wise equality.
func (pk PublicKey) Equal(o PublicKey) bool {
	return pk.DeltaAfter.Equal(&o.DeltaAfter) &&
		pk.S.Equal(&o.S) &&
		pk.SDelta.Equal(&o.SDelta) &&
		pk.RDelta.Equal(&o.RDelta) &&
		pk.Transcript == o.Transcript
}

// bytes is the canonical uncompressed encoding used both on the wire and as
// the input to Hash(): delta_after || s || s_delta || r_delta || transcript.
func (pk *PublicKey) bytes() []byte {
	var buf bytes.Buffer
	da := pk.DeltaAfter.RawBytes()
	buf.Write(da[:])
	s := pk.S.RawBytes()
	buf.Write(s[:])
	sd := pk.SDelta.RawBytes()
	buf.Write(sd[:])
	rd := pk.RDelta.RawBytes()
	buf.Write(rd[:])
	buf.Write(pk.Transcript[:])
	return buf.Bytes()
}

// Hash returns BLAKE2b-512 of the public key's canonical encoding: the value
// a contributor can keep to later confirm their contribution made it into a
// downstream MPCParameters (§4.2 step 7).
func (pk *PublicKey) Hash() [64]byte {
	return blake2b.Sum512(pk.bytes())
}

// keypair is a single contribution's secret material plus the public key it
// produces. It must not outlive the Contribute call that creates it; delta
// is overwritten by zeroize before the keypair is discarded.
type keypair struct {
	public PublicKey
	delta  curve.Scalar
}

// newKeypair samples a fresh delta and s, derives the signature-of-knowledge
// pair over (r, r_delta), and computes this contribution's delta_after,
// implementing §4.2 steps 1.
func newKeypair(rnd io.Reader, currentDeltaG1 curve.G1Affine, csHash [64]byte, prior []PublicKey) (*keypair, error) {
	delta, err := curve.RandomScalar(rnd)
	if err != nil {
		return nil, fmt.Errorf("ceremony: sampling delta: %w", err)
	}
	s, err := curve.RandomG1(rnd)
	if err != nil {
		return nil, fmt.Errorf("ceremony: sampling s: %w", err)
	}
	sDelta := curve.MulG1(&s, &delta)

	transcript, err := computeTranscript(csHash, prior, s, sDelta)
	if err != nil {
		return nil, err
	}

	r, err := curve.HashToG2(transcript)
	if err != nil {
		return nil, err
	}
	rDelta := curve.MulG2(&r, &delta)

	deltaAfter := curve.MulG1(&currentDeltaG1, &delta)

	return &keypair{
		public: PublicKey{
			DeltaAfter: deltaAfter,
			S:          s,
			SDelta:     sDelta,
			RDelta:     rDelta,
			Transcript: transcript,
		},
		delta: delta,
	}, nil
}

// zeroize overwrites the secret scalar so it cannot be recovered from the
// keypair value after Contribute returns.
func (k *keypair) zeroize() {
	k.delta = curve.Scalar{}
}
