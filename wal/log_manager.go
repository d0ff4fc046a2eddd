package wal

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/golang/snappy"
)

// Manager is the narrow interface the buffer pool consumes from a log
// manager: flush blocks until every record with sequence number <= lsn
// is durable.
type Manager interface {
	Flush(lsn LSN, force bool) error
}

// FileManager is a Manager backed by an append-only log file. Appended
// records are snappy-compressed and buffered in memory; Flush writes the
// buffer out and, when force is true, fsyncs it before returning.
type FileManager struct {
	mu         sync.Mutex
	w          *os.File
	buf        []byte
	currLSN    LSN
	flushedLSN LSN
}

var _ Manager = &FileManager{}

// NewFileManager opens (creating if necessary) an append-only log file.
func NewFileManager(path string) (*FileManager, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("wal: open %s: %w", path, err)
	}
	return &FileManager{w: f, flushedLSN: InvalidLSN}, nil
}

// AppendLog compresses record and appends it to the in-memory buffer,
// returning the LSN assigned to it. The record is not durable until a
// subsequent Flush covers this LSN.
func (m *FileManager) AppendLog(record []byte) LSN {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.currLSN++

	compressed := snappy.Encode(nil, record)
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(compressed)))
	m.buf = append(m.buf, lenPrefix[:]...)
	m.buf = append(m.buf, compressed...)

	return m.currLSN
}

// Flush blocks until every appended record up to and including lsn is
// durable. lsn == InvalidLSN is a no-op. force requests a synchronous
// fsync in addition to the write; the buffer pool always asks for force
// so that a dirty page's write never outruns the log record describing
// it.
func (m *FileManager) Flush(lsn LSN, force bool) error {
	if lsn == InvalidLSN {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if lsn <= m.flushedLSN {
		return nil
	}

	if len(m.buf) > 0 {
		n, err := m.w.Write(m.buf)
		if err != nil {
			return fmt.Errorf("wal: flush write: %w", err)
		}
		if n != len(m.buf) {
			return fmt.Errorf("wal: short write: wrote %d of %d bytes", n, len(m.buf))
		}
		m.buf = m.buf[:0]
	}

	if force {
		if err := m.w.Sync(); err != nil {
			return fmt.Errorf("wal: fsync: %w", err)
		}
	}

	m.flushedLSN = m.currLSN
	return nil
}

// GetFlushedLSN returns the latest LSN known to be durable.
func (m *FileManager) GetFlushedLSN() LSN {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushedLSN
}

// Close flushes nothing implicitly (mirroring the buffer pool's own
// teardown contract) and releases the underlying file handle.
func (m *FileManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.w.Close()
}
