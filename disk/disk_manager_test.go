package disk

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFileManager(t *testing.T) *FileManager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	m, isNew, err := NewFileManager(path)
	require.NoError(t, err)
	require.True(t, isNew)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestFileManager_AllocatePageSkipsHeader(t *testing.T) {
	m := newTestFileManager(t)
	id := m.AllocatePage()
	require.NotEqual(t, headerPageID, id)
}

func TestFileManager_WriteThenReadRoundTrips(t *testing.T) {
	m := newTestFileManager(t)
	id := m.AllocatePage()

	var want [PageSize]byte
	copy(want[:], "hello, page")
	require.NoError(t, m.WritePage(id, want[:]))

	var got [PageSize]byte
	require.NoError(t, m.ReadPage(id, got[:], true))
	require.Equal(t, want, got)
}

func TestFileManager_ReadPastEOF(t *testing.T) {
	m := newTestFileManager(t)
	id := m.AllocatePage()

	var buf [PageSize]byte
	for i := range buf {
		buf[i] = 0xAB
	}

	require.NoError(t, m.ReadPage(id, buf[:], false))
	for i, b := range buf {
		require.Zerof(t, b, "byte %d not zeroed", i)
	}

	require.ErrorIs(t, m.ReadPage(id, buf[:], true), ErrPageNotFound)
}

func TestFileManager_AllocateReusesDeallocatedPages(t *testing.T) {
	m := newTestFileManager(t)

	a := m.AllocatePage()
	b := m.AllocatePage()

	m.DeallocatePage(a)
	m.DeallocatePage(b)

	first := m.AllocatePage()
	second := m.AllocatePage()

	require.ElementsMatch(t, []PageID{a, b}, []PageID{first, second})
}

func TestFileManager_ReopenPreservesAllocatedRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	m1, _, err := NewFileManager(path)
	require.NoError(t, err)
	id := m1.AllocatePage()
	var buf [PageSize]byte
	copy(buf[:], "persisted")
	require.NoError(t, m1.WritePage(id, buf[:]))
	require.NoError(t, m1.Close())

	m2, isNew, err := NewFileManager(path)
	require.NoError(t, err)
	require.False(t, isNew)
	defer m2.Close()

	var got [PageSize]byte
	require.NoError(t, m2.ReadPage(id, got[:], true))
	require.Equal(t, buf, got)

	next := m2.AllocatePage()
	require.NotEqual(t, id, next)
}
