package pages

import (
	"encoding/binary"
	"keeldb/disk"
	"keeldb/wal"
)

// HeaderSize is the width, in bytes, of the page header: a little-endian
// page id followed by a little-endian LSN. Content written by higher
// layers (table heap, B+Tree) belongs at this offset or later.
const HeaderSize = 8

// Header is a structural (not nominal) view over the first HeaderSize
// bytes of a frame's data buffer. It does not copy the buffer; reads and
// writes through it observe and mutate the frame directly. The buffer
// pool only ever reads the LSN through this view, and only when writing a
// frame back to disk (dirty or not), to force the log up to that LSN
// first; page id and LSN are otherwise written by higher layers (table heap, B+Tree)
// that know the page's real content layout.
type Header struct {
	buf []byte
}

// HeaderOf returns a Header view over data, which must be at least
// HeaderSize bytes long (any frame's buffer qualifies, since
// disk.PageSize is always larger).
func HeaderOf(data []byte) Header {
	return Header{buf: data[:HeaderSize]}
}

// PageID reads the page id stored in the header.
func (h Header) PageID() disk.PageID {
	return disk.PageID(int32(binary.LittleEndian.Uint32(h.buf[0:4])))
}

// SetPageID writes the page id into the header.
func (h Header) SetPageID(id disk.PageID) {
	binary.LittleEndian.PutUint32(h.buf[0:4], uint32(int32(id)))
}

// LSN reads the log sequence number of the most recent mutation
// described in the write-ahead log for this page.
func (h Header) LSN() wal.LSN {
	return wal.LSN(int32(binary.LittleEndian.Uint32(h.buf[4:8])))
}

// SetLSN writes the LSN into the header.
func (h Header) SetLSN(lsn wal.LSN) {
	binary.LittleEndian.PutUint32(h.buf[4:8], uint32(int32(lsn)))
}
