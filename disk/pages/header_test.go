package pages

import (
	"testing"

	"keeldb/disk"
	"keeldb/wal"

	"github.com/stretchr/testify/require"
)

func TestHeader_RoundTrip(t *testing.T) {
	f := NewFrame()
	h := HeaderOf(f.Data())

	h.SetPageID(disk.PageID(42))
	h.SetLSN(wal.LSN(7))

	require.Equal(t, disk.PageID(42), h.PageID())
	require.Equal(t, wal.LSN(7), h.LSN())
}

func TestHeader_ViewsSharedBuffer(t *testing.T) {
	f := NewFrame()
	HeaderOf(f.Data()).SetLSN(wal.LSN(99))

	require.Equal(t, wal.LSN(99), HeaderOf(f.Data()).LSN())
}

func TestHeader_NegativeSentinels(t *testing.T) {
	f := NewFrame()
	h := HeaderOf(f.Data())

	h.SetPageID(disk.InvalidPageID)
	h.SetLSN(wal.InvalidLSN)

	require.Equal(t, disk.InvalidPageID, h.PageID())
	require.Equal(t, wal.InvalidLSN, h.LSN())
}
