// Package buffer implements the pinned buffer pool: a fixed set of frames
// (Buffer) managed by BufferMgr, with naive first-unpinned eviction, dirty
// tracking, and WAL-before-write flush ordering.
package buffer

import (
	"github.com/cs-systems-lab/simpledb-go/logging"
	"github.com/cs-systems-lab/simpledb-go/simpledberr"
	"github.com/cs-systems-lab/simpledb-go/storage"
)

// Buffer is a single frame: a Page paired with the metadata needed to
// decide when it may be evicted and what must happen before it is written
// back to disk.
//
// Invariants (see spec.md §3):
//   - pinCount > 0 means the frame is ineligible for eviction.
//   - modifyingTx != nil means the page is dirty and must be flushed before
//     the frame may be reassigned to a different block.
//   - lsn != nil means that LSN must be durable on the log before the page
//     is written to disk.
//   - block == nil means the page's contents are undefined and the frame
//     must never be flushed.
type Buffer struct {
	fm *storage.FileMgr
	lm *logging.LogMgr

	contents    *storage.Page
	block       *storage.BlockId
	pinCount    int
	modifyingTx *int64
	lsn         *logging.LSN
}

// NewBuffer allocates an unassigned frame backed by fm and lm.
func NewBuffer(fm *storage.FileMgr, lm *logging.LogMgr) *Buffer {
	return &Buffer{
		fm:       fm,
		lm:       lm,
		contents: storage.NewPage(fm.BlockSize()),
	}
}

// Contents returns the frame's Page for typed reads and writes.
func (b *Buffer) Contents() *storage.Page {
	return b.contents
}

// Block returns the BlockId currently assigned to this frame, or nil if
// the frame holds no meaningful contents.
func (b *Buffer) Block() *storage.BlockId {
	return b.block
}

// SetModified records that transaction txnum modified this buffer. If lsn
// is non-nil it updates the buffer's LSN; an older LSN is never clobbered
// by a subsequent call that passes nil, so once set, the LSN monotonically
// tracks the most recent modification that supplied one.
func (b *Buffer) SetModified(txnum int64, lsn *logging.LSN) {
	b.modifyingTx = &txnum
	if lsn != nil {
		b.lsn = lsn
	}
}

// IsPinned reports whether the frame currently has at least one pin.
func (b *Buffer) IsPinned() bool {
	return b.pinCount > 0
}

// ModifyingTx returns the transaction number that last modified this
// buffer, or nil if it is clean.
func (b *Buffer) ModifyingTx() *int64 {
	return b.modifyingTx
}

// AssignToBlock flushes the frame if dirty, then reads blk into its page
// and resets the pin count to zero. Used only by BufferMgr during
// eviction; callers elsewhere should never reassign a frame directly.
func (b *Buffer) AssignToBlock(blk storage.BlockId) error {
	if err := b.Flush(); err != nil {
		return err
	}
	b.block = &blk
	if err := b.fm.Read(blk, b.contents); err != nil {
		return err
	}
	b.pinCount = 0
	return nil
}

// Flush writes this frame back to disk if it is dirty. Write-ahead logging
// is enforced here: if an LSN is pending, the log is flushed up to that LSN
// before the data page is written. The LSN itself is not cleared afterward,
// so repeated calls to Flush on an already-clean buffer remain idempotent
// no-ops rather than re-deriving "is this flush necessary" from the LSN.
func (b *Buffer) Flush() error {
	if b.modifyingTx == nil {
		return nil
	}

	if b.lsn != nil {
		if err := b.lm.Flush(*b.lsn); err != nil {
			return err
		}
	}
	if b.block != nil {
		if err := b.fm.Write(*b.block, b.contents); err != nil {
			return err
		}
	}
	b.modifyingTx = nil
	return nil
}

// Pin increments the frame's pin count.
func (b *Buffer) Pin() {
	b.pinCount++
}

// Unpin decrements the frame's pin count. Calling it when the count is
// already zero is a caller error (a programming mistake, not a runtime
// condition the core recovers from).
func (b *Buffer) Unpin() {
	simpledberr.Assert(b.pinCount > 0, "unpin of frame with pin count 0")
	b.pinCount--
}
