package curve_test

import (
	"crypto/rand"
	"testing"

	"github.com/kysee/groth16-ceremony/curve"
	"github.com/stretchr/testify/require"
)

func TestRandomScalarNonzero(t *testing.T) {
	for i := 0; i < 16; i++ {
		s, err := curve.RandomScalar(rand.Reader)
		require.NoError(t, err)
		require.False(t, s.IsZero())
	}
}

func TestBatchMulMatchesPerPointMul(t *testing.T) {
	g1, _ := curve.Generators()
	s, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)

	points := make([]curve.G1Affine, 5)
	for i := range points {
		points[i] = curve.MulG1(&g1, &s)
	}
	want := make([]curve.G1Affine, len(points))
	for i, p := range points {
		want[i] = curve.MulG1(&p, &s)
	}

	require.NoError(t, curve.BatchMulG1(points, &s))
	for i := range points {
		require.True(t, points[i].Equal(&want[i]))
	}
}

func TestCheckSameRatioHoldsForMatchingScalar(t *testing.T) {
	g1, g2 := curve.Generators()
	s, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)

	scaledG1 := curve.MulG1(&g1, &s)
	scaledG2 := curve.MulG2(&g2, &s)

	ok, err := curve.CheckSameRatio([2]curve.G1Affine{g1, scaledG1}, [2]curve.G2Affine{g2, scaledG2})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCheckSameRatioFailsForMismatchedScalar(t *testing.T) {
	g1, g2 := curve.Generators()
	s, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	other, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)

	scaledG1 := curve.MulG1(&g1, &s)
	scaledG2 := curve.MulG2(&g2, &other)

	ok, err := curve.CheckSameRatio([2]curve.G1Affine{g1, scaledG1}, [2]curve.G2Affine{g2, scaledG2})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashToG2IsDeterministic(t *testing.T) {
	var transcript [64]byte
	copy(transcript[:], []byte("some fixed transcript bytes for hashing test"))

	r1, err := curve.HashToG2(transcript)
	require.NoError(t, err)
	r2, err := curve.HashToG2(transcript)
	require.NoError(t, err)
	require.True(t, r1.Equal(&r2))

	transcript[0] ^= 0xFF
	r3, err := curve.HashToG2(transcript)
	require.NoError(t, err)
	require.False(t, r1.Equal(&r3))
}

func TestMergePairsPreservesRatio(t *testing.T) {
	g1, g2 := curve.Generators()
	delta, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)

	n := 6
	before := make([]curve.G1Affine, n)
	after := make([]curve.G1Affine, n)
	for i := range before {
		s, err := curve.RandomScalar(rand.Reader)
		require.NoError(t, err)
		before[i] = curve.MulG1(&g1, &s)
		after[i] = curve.MulG1(&before[i], &delta)
	}

	mergedBefore, mergedAfter, err := curve.MergePairs(rand.Reader, before, after)
	require.NoError(t, err)

	deltaG2 := curve.MulG2(&g2, &delta)
	ok, err := curve.CheckSameRatio([2]curve.G1Affine{mergedBefore, mergedAfter}, [2]curve.G2Affine{g2, deltaG2})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCheckSubgroupAcceptsGenerators(t *testing.T) {
	g1, g2 := curve.Generators()
	require.NoError(t, curve.CheckSubgroupG1([]curve.G1Affine{g1}))
	require.NoError(t, curve.CheckSubgroupG2([]curve.G2Affine{g2}))
}
