// Package disk implements the on-disk half of the storage engine: fixed
// size page I/O and page id allocation. It knows nothing about caching,
// pinning, or the write-ahead log; it is the narrow collaborator the
// buffer pool drives through buffer.DiskManager.
package disk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"keeldb/common"
	"os"
	"sync"
)

// PageID identifies a page on disk. -1 (InvalidPageID) means "no page."
type PageID int32

// InvalidPageID is the reserved sentinel meaning "no page."
const InvalidPageID PageID = -1

// PageSize is the fixed size, in bytes, of every page in the file.
const PageSize = 4096

// headerPageID is reserved for the Manager's own free-list bookkeeping and
// is never handed out by AllocatePage.
const headerPageID PageID = 0

// ErrPageNotFound is returned by ReadPage when treatMissingAsError is true
// and the requested page lies at or past the end of the file.
var ErrPageNotFound = errors.New("disk: page not found")

// Manager is the narrow interface the buffer pool consumes from a disk
// manager.
type Manager interface {
	ReadPage(pageID PageID, buf []byte, treatMissingAsError bool) error
	WritePage(pageID PageID, buf []byte) error
	AllocatePage() PageID
	DeallocatePage(pageID PageID)
	Close() error
}

// FileManager is a Manager backed by a single OS file. Page 0 is reserved
// for a small header tracking the head and tail of an on-disk free-page
// list; pages 1..N hold caller data. This header format is internal to
// FileManager and is unrelated to the page-header contract described by
// the pages package, which governs the content of pages handed out to
// callers.
type FileManager struct {
	file       *os.File
	mu         sync.Mutex
	nextPageID PageID
}

var _ Manager = &FileManager{}

type freeListHeader struct {
	head PageID
	tail PageID
}

// NewFileManager opens (creating if necessary) the database file at path.
// The returned bool reports whether the file was newly created.
func NewFileManager(path string) (*FileManager, bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("disk: open %s: %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, false, fmt.Errorf("disk: stat %s: %w", path, err)
	}

	m := &FileManager{file: f}

	isNew := stat.Size() == 0
	if isNew {
		m.nextPageID = headerPageID + 1
		if err := m.writeHeader(freeListHeader{head: InvalidPageID, tail: InvalidPageID}); err != nil {
			_ = f.Close()
			return nil, false, err
		}
	} else {
		numFullPages := stat.Size() / PageSize
		if stat.Size()%PageSize != 0 {
			// tolerate a short trailing page, e.g. a previous crash mid-write
			numFullPages++
		}
		m.nextPageID = PageID(numFullPages)
	}

	return m, isNew, nil
}

func (m *FileManager) offsetOf(pageID PageID) int64 {
	return int64(PageSize) * int64(pageID)
}

// ReadPage fills buf[0:PageSize) with the on-disk contents of pageID. When
// treatMissingAsError is false, a read past the end of file zero-fills buf
// and succeeds instead of returning an error.
func (m *FileManager) ReadPage(pageID PageID, buf []byte, treatMissingAsError bool) error {
	if len(buf) < PageSize {
		return fmt.Errorf("disk: read buffer smaller than page size (%d < %d)", len(buf), PageSize)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.file.ReadAt(buf[:PageSize], m.offsetOf(pageID))
	if err != nil {
		if errors.Is(err, io.EOF) {
			if treatMissingAsError {
				return fmt.Errorf("disk: read page %d: %w", pageID, ErrPageNotFound)
			}
			for i := range buf[:PageSize] {
				buf[i] = 0
			}
			return nil
		}
		return fmt.Errorf("disk: read page %d: %w", pageID, err)
	}
	if n != PageSize {
		return fmt.Errorf("disk: short read on page %d: got %d of %d bytes", pageID, n, PageSize)
	}

	return nil
}

// WritePage persists buf[0:PageSize) at pageID's location.
func (m *FileManager) WritePage(pageID PageID, buf []byte) error {
	if len(buf) < PageSize {
		return fmt.Errorf("disk: write buffer smaller than page size (%d < %d)", len(buf), PageSize)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.file.WriteAt(buf[:PageSize], m.offsetOf(pageID))
	if err != nil {
		return fmt.Errorf("disk: write page %d: %w", pageID, err)
	}
	if n != PageSize {
		return fmt.Errorf("disk: short write on page %d: wrote %d of %d bytes", pageID, n, PageSize)
	}

	return nil
}

// AllocatePage hands out a fresh page id, preferring a previously freed
// page over growing the file.
func (m *FileManager) AllocatePage() PageID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id := m.popFreeList(); id != InvalidPageID {
		return id
	}

	id := m.nextPageID
	m.nextPageID++
	return id
}

// DeallocatePage returns pageID to the on-disk free list.
func (m *FileManager) DeallocatePage(pageID PageID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.readHeader()

	if h.head == InvalidPageID {
		h.head, h.tail = pageID, pageID
		common.PanicIfErr(m.writeHeader(h))
		common.PanicIfErr(m.writeFreeListLink(pageID, InvalidPageID))
		return
	}

	common.PanicIfErr(m.writeFreeListLink(h.tail, pageID))
	common.PanicIfErr(m.writeFreeListLink(pageID, InvalidPageID))
	h.tail = pageID
	common.PanicIfErr(m.writeHeader(h))
}

// Close releases the underlying file handle.
func (m *FileManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Close()
}

// popFreeList removes and returns the head of the on-disk free list, or
// InvalidPageID if it is empty. Caller holds m.mu.
func (m *FileManager) popFreeList() PageID {
	h := m.readHeader()
	if h.head == InvalidPageID {
		return InvalidPageID
	}

	popped := h.head
	next := m.readFreeListLink(popped)

	h.head = next
	if h.head == InvalidPageID {
		h.tail = InvalidPageID
	}
	common.PanicIfErr(m.writeHeader(h))

	return popped
}

// readFreeListLink reads the "next" pointer a freed page was stamped with.
func (m *FileManager) readFreeListLink(pageID PageID) PageID {
	var buf [4]byte
	n, err := m.file.ReadAt(buf[:], m.offsetOf(pageID))
	if err != nil && !errors.Is(err, io.EOF) {
		panic(fmt.Errorf("disk: read free list link at page %d: %w", pageID, err))
	}
	if n < 4 {
		return InvalidPageID
	}
	return PageID(int32(binary.BigEndian.Uint32(buf[:])))
}

func (m *FileManager) writeFreeListLink(pageID PageID, next PageID) error {
	var page [PageSize]byte
	binary.BigEndian.PutUint32(page[:4], uint32(int32(next)))
	_, err := m.file.WriteAt(page[:], m.offsetOf(pageID))
	return err
}

func (m *FileManager) readHeader() freeListHeader {
	var buf [8]byte
	_, err := m.file.ReadAt(buf[:], m.offsetOf(headerPageID))
	if err != nil && !errors.Is(err, io.EOF) {
		panic(fmt.Errorf("disk: read header: %w", err))
	}
	return freeListHeader{
		head: PageID(int32(binary.BigEndian.Uint32(buf[0:4]))),
		tail: PageID(int32(binary.BigEndian.Uint32(buf[4:8]))),
	}
}

func (m *FileManager) writeHeader(h freeListHeader) error {
	var page [PageSize]byte
	binary.BigEndian.PutUint32(page[0:4], uint32(int32(h.head)))
	binary.BigEndian.PutUint32(page[4:8], uint32(int32(h.tail)))
	_, err := m.file.WriteAt(page[:], m.offsetOf(headerPageID))
	return err
}
