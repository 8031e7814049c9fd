package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeEchoesResponder(t *testing.T) {
	f := NewFake(func(written []byte) []byte {
		if string(written) == "\n" {
			return []byte("\n\r")
		}
		return nil
	})
	n, err := f.Write([]byte("\n"))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	buf := make([]byte, 2)
	n, err = f.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "\n\r", string(buf))
}

func TestFakeReadWithoutDataErrors(t *testing.T) {
	f := NewFake(nil)
	_, err := f.Read(make([]byte, 1))
	require.Error(t, err)
}

func TestFakeRecordsWrites(t *testing.T) {
	f := NewFake(nil)
	_, _ = f.Write([]byte("VER\n"))
	_, _ = f.Write([]byte("GETTIME\n"))
	require.Equal(t, [][]byte{[]byte("VER\n"), []byte("GETTIME\n")}, f.Writes())
}

func TestFakeDrainDiscardsQueued(t *testing.T) {
	f := NewFake(nil)
	f.Feed([]byte("stale"))
	require.NoError(t, f.Drain())
	_, err := f.Read(make([]byte, 5))
	require.Error(t, err)
}

func TestFakeCloseRejectsFurtherIO(t *testing.T) {
	f := NewFake(nil)
	require.NoError(t, f.Close())
	_, err := f.Write([]byte("x"))
	require.Error(t, err)
}
