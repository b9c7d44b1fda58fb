package record

import (
	"github.com/cs-systems-lab/simpledb-go/buffer"
	"github.com/cs-systems-lab/simpledb-go/storage"
)

// slotFlag is the value stored in a slot's first 4 bytes.
type slotFlag int32

const (
	flagEmpty slotFlag = 0
	flagUsed  slotFlag = 1
)

// placeholderTxNum is the transaction number written by every RecordPage
// mutation. The record layer has no transaction concept of its own; a
// future transaction layer is expected to thread a real transaction number
// down from the scan instead of hard-coding this sentinel.
const placeholderTxNum = 0

// RecordPage is a typed view over one pinned Buffer under one Layout: a
// conceptual array of floor(pageSize/slotSize) fixed-size slots, each
// tagged EMPTY or USED by its leading 4-byte flag.
type RecordPage struct {
	buf    *buffer.Buffer
	layout *Layout
}

// NewRecordPage constructs a view of buf under layout. buf must already be
// pinned to a block; RecordPage does not pin or unpin anything itself.
func NewRecordPage(buf *buffer.Buffer, layout *Layout) *RecordPage {
	return &RecordPage{buf: buf, layout: layout}
}

func (rp *RecordPage) slotOffset(slot int) int {
	return slot * rp.layout.SlotSize()
}

// IsValidSlot reports whether slot fits entirely within the page, i.e.
// (slot+1) * slotSize <= pageSize.
func (rp *RecordPage) IsValidSlot(slot int) bool {
	return rp.slotOffset(slot+1) <= rp.buf.Contents().Size()
}

func (rp *RecordPage) getFlag(slot int) (slotFlag, error) {
	v, err := rp.buf.Contents().GetInt(rp.slotOffset(slot))
	return slotFlag(v), err
}

func (rp *RecordPage) setFlag(slot int, flag slotFlag) error {
	return rp.buf.Contents().SetInt(rp.slotOffset(slot), int32(flag))
}

func (rp *RecordPage) fieldOffset(slot int, fldname string) int {
	return rp.slotOffset(slot) + rp.layout.Offset(fldname)
}

// GetInt reads the Integer field fldname from slot.
func (rp *RecordPage) GetInt(slot int, fldname string) (int32, error) {
	return rp.buf.Contents().GetInt(rp.fieldOffset(slot, fldname))
}

// GetString reads the Varchar field fldname from slot.
func (rp *RecordPage) GetString(slot int, fldname string) (string, error) {
	return rp.buf.Contents().GetString(rp.fieldOffset(slot, fldname))
}

// SetInt writes val into the Integer field fldname of slot, marking the
// frame modified.
func (rp *RecordPage) SetInt(slot int, fldname string, val int32) error {
	if err := rp.buf.Contents().SetInt(rp.fieldOffset(slot, fldname), val); err != nil {
		return err
	}
	rp.buf.SetModified(placeholderTxNum, nil)
	return nil
}

// SetString writes val into the Varchar field fldname of slot, marking the
// frame modified.
func (rp *RecordPage) SetString(slot int, fldname string, val string) error {
	if err := rp.buf.Contents().SetString(rp.fieldOffset(slot, fldname), val); err != nil {
		return err
	}
	rp.buf.SetModified(placeholderTxNum, nil)
	return nil
}

// DeleteRecord marks slot EMPTY.
func (rp *RecordPage) DeleteRecord(slot int) error {
	if err := rp.setFlag(slot, flagEmpty); err != nil {
		return err
	}
	rp.buf.SetModified(placeholderTxNum, nil)
	return nil
}

// Format initializes every valid slot on the page to EMPTY with zeroed
// fields (0 for Integer, "" for Varchar). Called exactly once, when a new
// block is appended to a table file.
func (rp *RecordPage) Format() error {
	for slot := 0; rp.IsValidSlot(slot); slot++ {
		if err := rp.setFlag(slot, flagEmpty); err != nil {
			return err
		}
		for _, fldname := range rp.layout.Schema().Fields() {
			pos := rp.fieldOffset(slot, fldname)
			if rp.layout.Schema().Type(fldname) == Integer {
				if err := rp.buf.Contents().SetInt(pos, 0); err != nil {
					return err
				}
			} else {
				if err := rp.buf.Contents().SetString(pos, ""); err != nil {
					return err
				}
			}
		}
	}
	rp.buf.SetModified(placeholderTxNum, nil)
	return nil
}

// NextAfter returns the next USED slot strictly after slot (or at slot 0
// if slot is nil), and nil if there is none.
func (rp *RecordPage) NextAfter(slot *int) (*int, error) {
	return rp.searchAfter(slot, flagUsed)
}

// InsertAfter returns the next EMPTY slot strictly after slot (or at slot 0
// if slot is nil), marking it USED, and nil if the page is full.
func (rp *RecordPage) InsertAfter(slot *int) (*int, error) {
	newSlot, err := rp.searchAfter(slot, flagEmpty)
	if err != nil {
		return nil, err
	}
	if newSlot != nil {
		if err := rp.setFlag(*newSlot, flagUsed); err != nil {
			return nil, err
		}
		rp.buf.SetModified(placeholderTxNum, nil)
	}
	return newSlot, nil
}

func (rp *RecordPage) searchAfter(slot *int, flag slotFlag) (*int, error) {
	current := 0
	if slot != nil {
		current = *slot + 1
	}
	for rp.IsValidSlot(current) {
		f, err := rp.getFlag(current)
		if err != nil {
			return nil, err
		}
		if f == flag {
			found := current
			return &found, nil
		}
		current++
	}
	return nil, nil
}

// Block returns the BlockId of the buffer backing this RecordPage.
func (rp *RecordPage) Block() *storage.BlockId {
	return rp.buf.Block()
}
