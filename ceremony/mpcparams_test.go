package ceremony

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/kysee/groth16-ceremony/config"
	"github.com/kysee/groth16-ceremony/curve"
	"github.com/kysee/groth16-ceremony/qaptest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.Logger{}
}

func freshCeremony(t *testing.T, numConstraints int) *MPCParameters {
	t.Helper()
	asm, err := qaptest.Circuit(numConstraints)
	require.NoError(t, err)
	phase1, err := qaptest.Phase1(numConstraints)
	require.NoError(t, err)
	mpc, err := New(asm, phase1, testLogger())
	require.NoError(t, err)
	return mpc
}

func TestNewCeremonyRoundTripsThroughSerialization(t *testing.T) {
	mpc := freshCeremony(t, 7)

	var buf bytes.Buffer
	require.NoError(t, mpc.Write(&buf, config.Uncompressed))

	got, err := Read(&buf, config.Uncompressed)
	require.NoError(t, err)
	require.True(t, got.Equal(mpc))
}

func TestVerifyAgainstSelfFails(t *testing.T) {
	mpc := freshCeremony(t, 5)
	_, err := Verify(mpc, mpc, testLogger())
	require.Error(t, err)
	require.IsType(t, ErrNoContributions{}, err)
}

func TestSingleContributionVerifies(t *testing.T) {
	before := freshCeremony(t, 6)
	after := before.Clone()

	hash, err := after.Contribute(rand.Reader, testLogger())
	require.NoError(t, err)

	hashes, err := Verify(before, after, testLogger())
	require.NoError(t, err)
	require.Len(t, hashes, 1)
	require.True(t, ContainsContribution(hashes, hash))
}

func TestChainedContributionsVerify(t *testing.T) {
	gen := freshCeremony(t, 6)

	first := gen.Clone()
	h1, err := first.Contribute(rand.Reader, testLogger())
	require.NoError(t, err)

	second := first.Clone()
	h2, err := second.Contribute(rand.Reader, testLogger())
	require.NoError(t, err)

	hashes, err := Verify(gen, second, testLogger())
	require.NoError(t, err)
	require.Len(t, hashes, 2)
	require.True(t, ContainsContribution(hashes, h1))
	require.True(t, ContainsContribution(hashes, h2))

	hashes, err = Verify(first, second, testLogger())
	require.NoError(t, err)
	require.Len(t, hashes, 2)
}

func TestVerifyRejectsTamperedContribution(t *testing.T) {
	before := freshCeremony(t, 6)
	after := before.Clone()
	_, err := after.Contribute(rand.Reader, testLogger())
	require.NoError(t, err)

	tampered := after.Contributions[0]
	tampered.Transcript[0] ^= 0xff
	after.Contributions[0] = tampered

	_, err = Verify(before, after, testLogger())
	require.Error(t, err)
	var invariantErr *ErrBrokenInvariant
	require.ErrorAs(t, err, &invariantErr)
}

func TestVerifyRejectsShorterContributionPrefix(t *testing.T) {
	gen := freshCeremony(t, 6)
	first := gen.Clone()
	_, err := first.Contribute(rand.Reader, testLogger())
	require.NoError(t, err)

	second := first.Clone()
	_, err = second.Contribute(rand.Reader, testLogger())
	require.NoError(t, err)

	// second has two contributions; first only has one, so second cannot
	// serve as "before" for first: before may not have more contributions
	// than after.
	_, err = Verify(second, first, testLogger())
	require.Error(t, err)
}

func TestChunkedCeremonyMatchesUnchunkedAfterCombine(t *testing.T) {
	const numConstraints = 9
	asm, err := qaptest.Circuit(numConstraints)
	require.NoError(t, err)
	phase1, err := qaptest.Phase1(numConstraints)
	require.NoError(t, err)

	full, queries, chunks, err := NewChunked(asm, phase1, 2, testLogger())
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	combinedBefore, err := Combine(queries, chunks, testLogger())
	require.NoError(t, err)
	require.True(t, combinedBefore.Equal(full))

	_, err = ContributeChunked(rand.Reader, chunks, testLogger())
	require.NoError(t, err)

	combinedAfter, err := Combine(queries, chunks, testLogger())
	require.NoError(t, err)

	_, err = Verify(full, combinedAfter, testLogger())
	require.NoError(t, err)
}

func TestVerifyChunkAcceptsEachChunkAndRejectsTamperedVK(t *testing.T) {
	const numConstraints = 9
	asm, err := qaptest.Circuit(numConstraints)
	require.NoError(t, err)
	phase1, err := qaptest.Phase1(numConstraints)
	require.NoError(t, err)

	_, _, chunks, err := NewChunked(asm, phase1, 2, testLogger())
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	before := make([]*MPCParameters, len(chunks))
	for i, c := range chunks {
		before[i] = c.Clone()
	}

	_, err = ContributeChunked(rand.Reader, chunks, testLogger())
	require.NoError(t, err)

	for i := range chunks {
		_, err := VerifyChunk(before[i], chunks[i], testLogger())
		require.NoError(t, err)
	}

	tampered := chunks[0].Clone()
	tampered.Params.VK.AlphaG1, _ = curve.Generators()
	_, err = VerifyChunk(before[0], tampered, testLogger())
	require.Error(t, err)
	var invariantErr *ErrBrokenInvariant
	require.ErrorAs(t, err, &invariantErr)
	require.Equal(t, InvariantAlphaG1, invariantErr.Kind)
}

func TestDensityCheckRejectsUnconstrainedVariable(t *testing.T) {
	asm, err := qaptest.Circuit(4)
	require.NoError(t, err)
	// Blank out the last private variable's rows so it never appears in any
	// constraint, violating the density invariant l_query relies on.
	last := asm.NumVariables() - 1
	asm.At[last] = nil
	asm.Bt[last] = nil
	asm.Ct[last] = nil

	phase1, err := qaptest.Phase1(4)
	require.NoError(t, err)

	_, err = New(asm, phase1, testLogger())
	require.Error(t, err)
	require.IsType(t, ErrUnconstrainedVariable{}, err)
}
