// Package pages defines the in-memory page frame (the fixed-size buffer a
// buffer pool caches a disk page into) and a structural view over the
// small header every page carries for the write-ahead log.
package pages

import (
	"keeldb/disk"
)

// Frame is the in-memory representation of one disk page: a fixed-size
// byte buffer plus the bookkeeping a buffer pool needs to decide whether
// it can be reused. Frame carries no concurrency control of its own — the
// buffer pool serializes every access to a frame's metadata under its own
// latch, per the pool's single-latch design.
type Frame struct {
	data     [disk.PageSize]byte
	pageID   disk.PageID
	pinCount int
	isDirty  bool
}

// NewFrame returns a freshly zeroed, unbound frame.
func NewFrame() *Frame {
	return &Frame{pageID: disk.InvalidPageID}
}

// Data returns the frame's byte buffer. Callers sharing this slice with
// the buffer pool are responsible for their own read/write coordination;
// the pool only guarantees the frame is not reassigned to a different
// page while pinned.
func (f *Frame) Data() []byte {
	return f.data[:]
}

// PageID returns the disk page currently held by this frame, or
// disk.InvalidPageID if the frame is free.
func (f *Frame) PageID() disk.PageID {
	return f.pageID
}

// PinCount returns the number of active consumers holding this frame.
func (f *Frame) PinCount() int {
	return f.pinCount
}

// IsDirty reports whether the buffer has been modified since it was last
// read from or written to disk.
func (f *Frame) IsDirty() bool {
	return f.isDirty
}

// Zero fills the data buffer with zero bytes, used when a freshly
// allocated page must start clean.
func (f *Frame) Zero() {
	for i := range f.data {
		f.data[i] = 0
	}
}

// Rebind rebinds the frame to pageID with pinCount 1 and a clean dirty
// bit. It does not touch the data buffer; callers overwrite it (via Zero
// or a disk read) immediately after. Only the owning buffer pool, which
// holds the pool latch, should call this.
func (f *Frame) Rebind(pageID disk.PageID) {
	f.pageID = pageID
	f.pinCount = 1
	f.isDirty = false
}

// IncrPinCount increments the pin count. Only the owning buffer pool
// should call this.
func (f *Frame) IncrPinCount() {
	f.pinCount++
}

// DecrPinCount decrements the pin count. Only the owning buffer pool
// should call this.
func (f *Frame) DecrPinCount() {
	f.pinCount--
}

// SetDirty ORs dirty into the frame's dirty bit; it never clears it.
func (f *Frame) SetDirty(dirty bool) {
	f.isDirty = f.isDirty || dirty
}

// SetClean clears the dirty bit, typically right after a flush.
func (f *Frame) SetClean() {
	f.isDirty = false
}

// SetPageID directly overwrites the page id, used when a frame is
// returned to the free list (reset to InvalidPageID).
func (f *Frame) SetPageID(pageID disk.PageID) {
	f.pageID = pageID
}
