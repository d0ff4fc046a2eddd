package wal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileManager_FlushIsNoopForInvalidLSN(t *testing.T) {
	m := newTestFileManager(t)
	require.NoError(t, m.Flush(InvalidLSN, true))
	require.Equal(t, InvalidLSN, m.GetFlushedLSN())
}

func TestFileManager_FlushPersistsAppendedRecords(t *testing.T) {
	m := newTestFileManager(t)

	lsn1 := m.AppendLog([]byte("first record"))
	lsn2 := m.AppendLog([]byte("second record"))

	require.NoError(t, m.Flush(lsn2, true))
	require.Equal(t, lsn2, m.GetFlushedLSN())
	require.Greater(t, int32(lsn2), int32(lsn1))
}

func TestFileManager_FlushOfAlreadyDurableLSNIsNoop(t *testing.T) {
	m := newTestFileManager(t)

	lsn := m.AppendLog([]byte("record"))
	require.NoError(t, m.Flush(lsn, true))

	// flushing the same, already durable lsn again must not error or re-flush an empty buffer
	require.NoError(t, m.Flush(lsn, true))
}

func newTestFileManager(t *testing.T) *FileManager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wal")
	m, err := NewFileManager(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}
