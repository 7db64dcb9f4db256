package rowindex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOwnedByteLenCeil(t *testing.T) {
	idx := NewOwned(9) // not a multiple of 8: needs 2 bytes
	require.Equal(t, 2, idx.ByteLen())
	require.Len(t, idx.Raw(), 2)
}

func TestSetTestRoundTrip(t *testing.T) {
	idx := NewOwned(17)
	require.NoError(t, idx.Set(0, true))
	require.NoError(t, idx.Set(8, true))
	require.NoError(t, idx.Set(16, true))
	require.NoError(t, idx.Set(1, false))

	for r := 0; r < 17; r++ {
		got, err := idx.Test(r)
		require.NoError(t, err)
		want := r == 0 || r == 8 || r == 16
		require.Equal(t, want, got, "row %d", r)
	}
}

func TestOutOfRange(t *testing.T) {
	idx := NewOwned(4)
	require.Error(t, idx.Set(4, true))
	require.Error(t, idx.Set(-1, true))
	_, err := idx.Test(4)
	require.Error(t, err)
}

func TestNewBorrowedTooSmall(t *testing.T) {
	_, err := NewBorrowed([]byte{0x00}, 9)
	require.Error(t, err)
}

func TestNewBorrowedViewsExternalBuffer(t *testing.T) {
	buf := []byte{0b00000101} // rows 0 and 2 are white
	idx, err := NewBorrowed(buf, 8)
	require.NoError(t, err)

	white0, _ := idx.Test(0)
	white1, _ := idx.Test(1)
	white2, _ := idx.Test(2)
	require.True(t, white0)
	require.False(t, white1)
	require.True(t, white2)
}

func TestNewFromBytesTakesOwnership(t *testing.T) {
	buf := []byte{0b00000101} // rows 0 and 2 are white
	idx, err := NewFromBytes(buf, 8)
	require.NoError(t, err)

	white0, _ := idx.Test(0)
	white1, _ := idx.Test(1)
	require.True(t, white0)
	require.False(t, white1)

	// Owned, not borrowed: mutating through the Index must not require
	// the caller to keep writing back into buf.
	require.NoError(t, idx.Set(1, true))
	white1, _ = idx.Test(1)
	require.True(t, white1)
}

func TestNewFromBytesTooSmall(t *testing.T) {
	_, err := NewFromBytes([]byte{0x00}, 9)
	require.Error(t, err)
}

func TestWhiteRowPattern(t *testing.T) {
	pattern := WhiteRowPattern(5, 3)
	require.Len(t, pattern, 8)
	for i := 0; i < 5; i++ {
		require.Equal(t, byte(0xFF), pattern[i])
	}
	for i := 5; i < 8; i++ {
		require.Equal(t, byte(0x00), pattern[i])
	}
}
