// Package curve is a thin façade over gnark-crypto's BLS12-377 group and
// pairing arithmetic: generators, scalar sampling/inversion, batched scalar
// multiplication, the random-linear-combination pairing ratio check, and
// hash-to-curve. Nothing in this package understands proving keys or
// ceremony transcripts; it only knows points and scalars.
package curve

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sync/errgroup"
)

// G1Affine and G2Affine are the curve point types this package operates on.
type G1Affine = bls12377.G1Affine
type G2Affine = bls12377.G2Affine

// Scalar is an element of the scalar field Fr.
type Scalar = fr.Element

// hashToCurveDST is the domain separation tag used when deriving curve
// points from arbitrary byte strings. A fixed, package-owned DST keeps the
// mapping stable across the life of a ceremony.
var hashToCurveDST = []byte("groth16-ceremony-v1")

// Generators returns the standard generators of G1 and G2.
func Generators() (g1 G1Affine, g2 G2Affine) {
	_, _, g1, g2 = bls12377.Generators()
	return g1, g2
}

// RandomScalar samples a uniform nonzero element of Fr using entropy drawn
// from rnd. A nil rnd uses crypto/rand.Reader.
func RandomScalar(rnd io.Reader) (Scalar, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	var buf [fr.Bytes]byte
	for {
		if _, err := io.ReadFull(rnd, buf[:]); err != nil {
			return Scalar{}, fmt.Errorf("curve: sampling scalar: %w", err)
		}
		var s Scalar
		s.SetBytes(buf[:])
		if !s.IsZero() {
			return s, nil
		}
	}
}

// RandomG1 samples a uniformly random element of G1 by hashing fresh
// entropy onto the curve.
func RandomG1(rnd io.Reader) (G1Affine, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	var seed [32]byte
	if _, err := io.ReadFull(rnd, seed[:]); err != nil {
		return G1Affine{}, fmt.Errorf("curve: sampling G1 point: %w", err)
	}
	p, err := bls12377.HashToG1(seed[:], hashToCurveDST)
	if err != nil {
		return G1Affine{}, fmt.Errorf("curve: hash to G1: %w", err)
	}
	return p, nil
}

// HashToG2 deterministically derives a G2 point from the lowercase hex
// encoding of a 64-byte transcript, per the wire contract in §6.
func HashToG2(transcript [64]byte) (G2Affine, error) {
	hexMsg := make([]byte, 128)
	const hextable = "0123456789abcdef"
	for i, b := range transcript {
		hexMsg[i*2] = hextable[b>>4]
		hexMsg[i*2+1] = hextable[b&0x0f]
	}
	p, err := bls12377.HashToG2(hexMsg, hashToCurveDST)
	if err != nil {
		return G2Affine{}, fmt.Errorf("curve: hash to G2: %w", err)
	}
	return p, nil
}

// Invert returns the multiplicative inverse of s. s must be nonzero.
func Invert(s *Scalar) Scalar {
	var out Scalar
	out.Inverse(s)
	return out
}

// MulG1 returns base scaled by s.
func MulG1(base *G1Affine, s *Scalar) G1Affine {
	var out G1Affine
	out.ScalarMultiplication(base, s.BigInt(new(big.Int)))
	return out
}

// MulG2 returns base scaled by s.
func MulG2(base *G2Affine, s *Scalar) G2Affine {
	var out G2Affine
	out.ScalarMultiplication(base, s.BigInt(new(big.Int)))
	return out
}

// BatchMulG1 scales every point in place by the same scalar s, using
// Parallel to spread the work across disjoint index ranges.
func BatchMulG1(points []G1Affine, s *Scalar) error {
	exp := s.BigInt(new(big.Int))
	return Parallel(len(points), func(start, end int) error {
		for i := start; i < end; i++ {
			points[i].ScalarMultiplication(&points[i], exp)
		}
		return nil
	})
}

// CheckSameRatio verifies e(g1[0], g2[1]) == e(g1[1], g2[0]), i.e. that the
// same scalar relates g1[0]->g1[1] and g2[0]->g2[1].
func CheckSameRatio(g1 [2]G1Affine, g2 [2]G2Affine) (bool, error) {
	var negG1 G1Affine
	negG1.Neg(&g1[1])
	ok, err := bls12377.PairingCheck([]G1Affine{g1[0], negG1}, []G2Affine{g2[1], g2[0]})
	if err != nil {
		return false, fmt.Errorf("curve: pairing check: %w", err)
	}
	return ok, nil
}

// MergePairs collapses two equal-length G1 sequences into a single pair by
// sampling fresh independent nonzero scalars and taking the corresponding
// random linear combination of each sequence. Used to turn N pointwise
// ratio checks into one pairing equation (§4.3).
func MergePairs(rnd io.Reader, a, b []G1Affine) (G1Affine, G1Affine, error) {
	if len(a) != len(b) {
		return G1Affine{}, G1Affine{}, fmt.Errorf("curve: merge_pairs: mismatched lengths %d != %d", len(a), len(b))
	}
	n := len(a)
	scalars := make([]fr.Element, n)
	for i := 0; i < n; i++ {
		s, err := RandomScalar(rnd)
		if err != nil {
			return G1Affine{}, G1Affine{}, err
		}
		scalars[i] = s
	}
	var outA, outB G1Affine
	if _, err := outA.MultiExp(a, scalars, ecc.MultiExpConfig{}); err != nil {
		return G1Affine{}, G1Affine{}, fmt.Errorf("curve: merge_pairs multiexp: %w", err)
	}
	if _, err := outB.MultiExp(b, scalars, ecc.MultiExpConfig{}); err != nil {
		return G1Affine{}, G1Affine{}, fmt.Errorf("curve: merge_pairs multiexp: %w", err)
	}
	return outA, outB, nil
}

// CheckSubgroupG1 verifies every point lies in the prime-order G1 subgroup.
func CheckSubgroupG1(points []G1Affine) error {
	return Parallel(len(points), func(start, end int) error {
		for i := start; i < end; i++ {
			if points[i].IsInfinity() {
				continue
			}
			if !points[i].IsInSubGroup() {
				return fmt.Errorf("curve: G1 point at index %d not in subgroup", i)
			}
		}
		return nil
	})
}

// CheckSubgroupG2 verifies every point lies in the prime-order G2 subgroup.
func CheckSubgroupG2(points []G2Affine) error {
	return Parallel(len(points), func(start, end int) error {
		for i := start; i < end; i++ {
			if points[i].IsInfinity() {
				continue
			}
			if !points[i].IsInSubGroup() {
				return fmt.Errorf("curve: G2 point at index %d not in subgroup", i)
			}
		}
		return nil
	})
}

// workers picks the degree of parallelism for Parallel, based on the
// logical core count reported by cpuid.
func workers() int {
	n := cpuid.CPU.LogicalCores
	if n < 1 {
		n = 1
	}
	return n
}

// Parallel splits the index range [0, n) into disjoint contiguous chunks and
// runs fn over each chunk on its own goroutine, mirroring the work-stealing
// pool described in §5: each task reads/writes disjoint indices, so no
// locking is needed. The first error from any chunk is returned.
func Parallel(n int, fn func(start, end int) error) error {
	if n == 0 {
		return nil
	}
	w := workers()
	if w > n {
		w = n
	}
	chunkSize := (n + w - 1) / w

	var g errgroup.Group
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		start, end := start, end
		g.Go(func() error {
			return fn(start, end)
		})
	}
	return g.Wait()
}
