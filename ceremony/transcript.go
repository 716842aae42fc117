package ceremony

import (
	"fmt"

	"github.com/kysee/groth16-ceremony/config"
	"github.com/kysee/groth16-ceremony/curve"
	"golang.org/x/crypto/blake2b"
)

// computeTranscript is transcript = BLAKE2b(cs_hash || serialize(prior) || s || s_delta), §3/§4.2.
func computeTranscript(csHash [64]byte, prior []PublicKey, s, sDelta curve.G1Affine) ([64]byte, error) {
	h, err := blake2b.New512(nil)
	if err != nil {
		return [64]byte{}, fmt.Errorf("ceremony: blake2b init: %w", err)
	}
	h.Write(csHash[:])
	for _, pk := range prior {
		h.Write(pk.bytes())
	}
	sBytes := s.RawBytes()
	h.Write(sBytes[:])
	sdBytes := sDelta.RawBytes()
	h.Write(sdBytes[:])

	var out [64]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// hashProvingKey computes cs_hash: BLAKE2b-512 over the uncompressed
// canonical serialization of the initial proving key, streamed through the
// hash rather than buffered (§3, SUPPLEMENTED FEATURES #3).
func hashProvingKey(pk *ProvingKey) ([64]byte, error) {
	h, err := blake2b.New512(nil)
	if err != nil {
		return [64]byte{}, fmt.Errorf("ceremony: blake2b init: %w", err)
	}
	if err := writeProvingKey(h, pk, config.Uncompressed); err != nil {
		return [64]byte{}, fmt.Errorf("ceremony: hashing proving key: %w", err)
	}
	var out [64]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}
