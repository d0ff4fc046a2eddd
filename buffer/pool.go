package buffer

import (
	"fmt"
	"log"
	"os"
	"sync"

	"keeldb/common"
	"keeldb/disk"
	"keeldb/disk/pages"
	"keeldb/wal"

	"github.com/google/uuid"
)

// BufferPoolManager coordinates a fixed-size array of frames, a page
// table, a free list, a Replacer, and the Disk and Log Manager
// collaborators. A single mutex (the pool latch) protects
// every mutable field, including each frame's metadata; it is held for
// the full body of every exported method, including while a disk read or
// a flush is in flight. Callers must not assume any concurrency between
// two operations on the same pool.
type BufferPoolManager struct {
	mu sync.Mutex

	poolSize    int
	frames      []*pages.Frame
	pageTable   map[disk.PageID]FrameID
	freeList    []FrameID
	replacer    Replacer
	diskManager DiskManager
	logManager  LogManager

	id     uuid.UUID
	logger *log.Logger
}

// New constructs a BufferPoolManager with poolSize frames, backed by
// diskManager. logManager may be nil, in which case WAL flushing is a
// no-op (wal.Noop), for callers that want a pool with WAL ordering
// disabled entirely.
func New(poolSize int, diskManager DiskManager, logManager LogManager) *BufferPoolManager {
	if logManager == nil {
		logManager = wal.Noop
	}

	id := uuid.New()

	frames := make([]*pages.Frame, poolSize)
	freeList := make([]FrameID, poolSize)
	for i := 0; i < poolSize; i++ {
		frames[i] = pages.NewFrame()
		freeList[i] = FrameID(i)
	}

	return &BufferPoolManager{
		poolSize:    poolSize,
		frames:      frames,
		pageTable:   make(map[disk.PageID]FrameID, poolSize),
		freeList:    freeList,
		replacer:    NewLRUReplacer(),
		diskManager: diskManager,
		logManager:  logManager,
		id:          id,
		logger:      log.New(os.Stderr, fmt.Sprintf("[keeldb][buffer][%s] ", id), log.LstdFlags),
	}
}

// FetchPage returns the pinned frame holding pageID, reading it from disk
// on a cache miss. treatMissingAsError is forwarded to the Disk Manager
// unchanged. Returns ErrPoolExhausted if every frame is pinned.
func (p *BufferPoolManager) FetchPage(pageID disk.PageID, treatMissingAsError bool) (*pages.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if frameID, ok := p.pageTable[pageID]; ok {
		p.pinFrame(frameID)
		return p.frames[frameID], nil
	}

	frameID, err := p.acquireFrame()
	if err != nil {
		return nil, err
	}

	frame := p.frames[frameID]
	frame.Rebind(pageID)
	p.pageTable[pageID] = frameID

	if err := p.diskManager.ReadPage(pageID, frame.Data(), treatMissingAsError); err != nil {
		p.releaseFailedFrame(pageID, frameID)
		return nil, fmt.Errorf("buffer: fetch page %d: %w", pageID, err)
	}

	return frame, nil
}

// NewPage allocates a fresh disk page and returns it pinned with a
// zeroed buffer. Pool capacity is checked before the Disk Manager is
// asked to allocate, so a call that cannot be satisfied never leaks a
// disk page id.
func (p *BufferPoolManager) NewPage() (disk.PageID, *pages.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.freeList) == 0 && p.replacer.Size() == 0 {
		return disk.InvalidPageID, nil, ErrPoolExhausted
	}

	frameID, err := p.acquireFrame()
	if err != nil {
		return disk.InvalidPageID, nil, err
	}

	pageID := p.diskManager.AllocatePage()

	frame := p.frames[frameID]
	frame.Rebind(pageID)
	frame.Zero()
	p.pageTable[pageID] = frameID

	return pageID, frame, nil
}

// UnpinPage decrements pageID's pin count, ORing in isDirty along the
// way. Returns false both when pageID is not resident and when its pin
// count was already zero — the two conditions are merged deliberately,
// preserving the historical boolean contract existing callers rely on.
func (p *BufferPoolManager) UnpinPage(pageID disk.PageID, isDirty bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.pageTable[pageID]
	if !ok {
		return false
	}

	frame := p.frames[frameID]
	frame.SetDirty(isDirty)

	if frame.PinCount() <= 0 {
		return false
	}

	frame.DecrPinCount()
	if frame.PinCount() == 0 {
		p.replacer.Unpin(frameID)
	}

	return true
}

// FlushPage writes pageID to disk, forcing the log up to its LSN first,
// regardless of whether it is currently dirty. Returns an error wrapping
// ErrUnknownPage if pageID is not resident.
func (p *BufferPoolManager) FlushPage(pageID disk.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.pageTable[pageID]
	if !ok {
		return fmt.Errorf("buffer: flush page %d: %w", pageID, ErrUnknownPage)
	}

	return p.flushFrame(frameID)
}

// FlushAllPages flushes every currently resident frame. It stops and
// returns the first error encountered, leaving any not-yet-reached
// frames untouched.
func (p *BufferPoolManager) FlushAllPages() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < p.poolSize; i++ {
		frameID := FrameID(i)
		frame := p.frames[frameID]
		if _, resident := p.pageTable[frame.PageID()]; !resident {
			continue
		}
		if err := p.flushFrame(frameID); err != nil {
			return err
		}
	}

	return nil
}

// DeletePage asks the Disk Manager to deallocate pageID unconditionally,
// then evicts it from the pool if resident. Returns an error wrapping
// ErrPageInUse if the page is still pinned; the caller must unpin and
// retry. A page that is not resident is treated as already deleted.
func (p *BufferPoolManager) DeletePage(pageID disk.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.diskManager.DeallocatePage(pageID)

	frameID, ok := p.pageTable[pageID]
	if !ok {
		return nil
	}

	frame := p.frames[frameID]
	if frame.PinCount() > 0 {
		return fmt.Errorf("buffer: delete page %d: %w", pageID, ErrPageInUse)
	}

	delete(p.pageTable, pageID)
	frame.SetPageID(disk.InvalidPageID)
	frame.SetClean()
	p.replacer.Pin(frameID)
	p.freeList = append(p.freeList, frameID)

	return nil
}

// CheckPinCount reports whether every resident frame currently has a
// pin count of zero. It is a diagnostic for tests and shutdown
// assertions, not part of normal operation.
func (p *BufferPoolManager) CheckPinCount() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	ok := true
	for pageID, frameID := range p.pageTable {
		if pc := p.frames[frameID].PinCount(); pc != 0 {
			p.logger.Printf("page %d (frame %d) has pin count %d", pageID, frameID, pc)
			ok = false
		}
	}

	return ok
}

// pinFrame increments a resident frame's pin count and removes it from
// the replacer's evictable set. Caller holds p.mu.
func (p *BufferPoolManager) pinFrame(frameID FrameID) {
	p.frames[frameID].IncrPinCount()
	p.replacer.Pin(frameID)
}

// acquireFrame returns a frame ready to be bound to a new page: either
// from the free list, or by evicting and (if necessary) flushing the
// LRU replacer's victim. Caller holds p.mu.
func (p *BufferPoolManager) acquireFrame() (FrameID, error) {
	if n := len(p.freeList); n > 0 {
		frameID := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return frameID, nil
	}

	frameID, ok := p.replacer.Evict()
	if !ok {
		return 0, ErrPoolExhausted
	}

	victim := p.frames[frameID]
	common.Assertf(victim.PinCount() == 0, "victim frame %d chosen with nonzero pin count %d", frameID, victim.PinCount())

	if victim.IsDirty() {
		if err := p.flushFrame(frameID); err != nil {
			// roll back: the victim is still a valid, resident, evictable
			// frame. Put it back so a future call can retry the eviction.
			p.replacer.Unpin(frameID)
			return 0, fmt.Errorf("buffer: evict frame %d: %w", frameID, err)
		}
	}

	delete(p.pageTable, victim.PageID())
	return frameID, nil
}

// releaseFailedFrame undoes the speculative binding made for pageID when
// the subsequent disk read fails, returning frameID to the free list
// untouched by the failed fetch. Caller holds p.mu.
func (p *BufferPoolManager) releaseFailedFrame(pageID disk.PageID, frameID FrameID) {
	delete(p.pageTable, pageID)

	frame := p.frames[frameID]
	frame.DecrPinCount()
	frame.SetPageID(disk.InvalidPageID)
	frame.SetClean()

	p.freeList = append(p.freeList, frameID)
}

// flushFrame writes a frame's buffer to disk unconditionally, first
// forcing the log up to the frame's LSN if a log manager is attached.
// Caller holds p.mu.
func (p *BufferPoolManager) flushFrame(frameID FrameID) error {
	frame := p.frames[frameID]

	lsn := pages.HeaderOf(frame.Data()).LSN()
	if err := p.logManager.Flush(lsn, true); err != nil {
		return fmt.Errorf("buffer: flush log up to lsn %d: %w", lsn, err)
	}

	if err := p.diskManager.WritePage(frame.PageID(), frame.Data()); err != nil {
		return fmt.Errorf("buffer: write page %d: %w", frame.PageID(), err)
	}

	frame.SetClean()
	return nil
}
