package ceremony

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/kysee/groth16-ceremony/config"
	"github.com/kysee/groth16-ceremony/qaptest"
	"github.com/stretchr/testify/require"
)

func TestWriteReadCompressedRoundTrips(t *testing.T) {
	mpc := freshCeremony(t, 5)
	_, err := mpc.Contribute(rand.Reader, testLogger())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, mpc.Write(&buf, config.Compressed))

	got, err := Read(&buf, config.Compressed)
	require.NoError(t, err)
	require.True(t, got.Equal(mpc))
}

func TestReadFastDowngradesQueryCorrectness(t *testing.T) {
	mpc := freshCeremony(t, 5)

	var buf bytes.Buffer
	require.NoError(t, mpc.Write(&buf, config.Uncompressed))

	got, err := ReadFast(&buf, config.Uncompressed, config.CheckFull, false)
	require.NoError(t, err)
	require.True(t, got.Equal(mpc))
}

func TestReadFastDeferredSubgroupCheckMatchesInline(t *testing.T) {
	mpc := freshCeremony(t, 5)

	var buf1, buf2 bytes.Buffer
	require.NoError(t, mpc.Write(&buf1, config.Uncompressed))
	require.NoError(t, mpc.Write(&buf2, config.Uncompressed))

	inline, err := ReadFast(&buf1, config.Uncompressed, config.CheckFull, false)
	require.NoError(t, err)

	deferred, err := ReadFast(&buf2, config.Uncompressed, config.CheckFull, true)
	require.NoError(t, err)

	require.True(t, inline.Equal(deferred))
	require.NoError(t, CheckQuerySubgroups(&deferred.Params))
}

func TestReadRejectsTruncatedBuffer(t *testing.T) {
	mpc := freshCeremony(t, 5)

	var buf bytes.Buffer
	require.NoError(t, mpc.Write(&buf, config.Uncompressed))

	truncated := buf.Bytes()[:buf.Len()-10]
	_, err := Read(bytes.NewReader(truncated), config.Uncompressed)
	require.Error(t, err)
}

func TestProvingKeyHashIsDeterministicAndMatchesCsHash(t *testing.T) {
	asm, err := qaptest.Circuit(4)
	require.NoError(t, err)
	phase1, err := qaptest.Phase1(4)
	require.NoError(t, err)
	mpc, err := New(asm, phase1, testLogger())
	require.NoError(t, err)

	hash1, err := hashProvingKey(&mpc.Params)
	require.NoError(t, err)
	hash2, err := hashProvingKey(&mpc.Params)
	require.NoError(t, err)
	require.Equal(t, hash1, hash2)
	require.Equal(t, mpc.CsHash, hash1)
}
