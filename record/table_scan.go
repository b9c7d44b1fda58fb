package record

import (
	"github.com/cs-systems-lab/simpledb-go/buffer"
	"github.com/cs-systems-lab/simpledb-go/simpledberr"
	"github.com/cs-systems-lab/simpledb-go/storage"
)

// noFrame marks currentBufferIdx as "nothing pinned".
const noFrame = -1

// TableScan implements sequential and RID-addressed access to one table
// stored in "<tableName>.tbl". It owns exactly one pin on that file at any
// time (or none, after Close), and drives a RecordPage bound to whichever
// block is currently pinned.
type TableScan struct {
	bm       *buffer.BufferMgr
	layout   *Layout
	fileName string

	rp               *RecordPage
	currentBufferIdx int
	currentSlot      *int
}

// NewTableScan opens a scan over tableName using layout. If the table file
// is empty, a first block is appended and formatted; otherwise the scan
// starts positioned before block 0.
func NewTableScan(bm *buffer.BufferMgr, tableName string, layout *Layout) (*TableScan, error) {
	ts := &TableScan{
		bm:               bm,
		layout:           layout,
		fileName:         tableName + ".tbl",
		currentBufferIdx: noFrame,
	}

	length, err := bm.FileMgr().Length(ts.fileName)
	if err != nil {
		return nil, err
	}

	if length == 0 {
		if err := ts.moveToNewBlock(); err != nil {
			return nil, err
		}
	} else {
		if err := ts.moveToBlock(0); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

// BeforeFirst resets the cursor to the start of the table.
func (ts *TableScan) BeforeFirst() error {
	return ts.moveToBlock(0)
}

// Next advances to the next USED slot, moving across blocks as needed.
// It returns false once the end of the table is reached.
func (ts *TableScan) Next() (bool, error) {
	slot, err := ts.rp.NextAfter(ts.currentSlot)
	if err != nil {
		return false, err
	}
	ts.currentSlot = slot

	for ts.currentSlot == nil {
		atLast, err := ts.atLastBlock()
		if err != nil {
			return false, err
		}
		if atLast {
			return false, nil
		}
		if err := ts.moveToBlock(ts.rp.Block().Number + 1); err != nil {
			return false, err
		}
		slot, err := ts.rp.NextAfter(ts.currentSlot)
		if err != nil {
			return false, err
		}
		ts.currentSlot = slot
	}
	return true, nil
}

func (ts *TableScan) requirePositioned() {
	simpledberr.Assert(ts.currentSlot != nil, "scan read before a successful call to Next")
}

// GetInt reads field fldname at the current position.
func (ts *TableScan) GetInt(fldname string) (int32, error) {
	ts.requirePositioned()
	return ts.rp.GetInt(*ts.currentSlot, fldname)
}

// GetString reads field fldname at the current position.
func (ts *TableScan) GetString(fldname string) (string, error) {
	ts.requirePositioned()
	return ts.rp.GetString(*ts.currentSlot, fldname)
}

// GetVal reads field fldname at the current position, dispatching on its
// declared type.
func (ts *TableScan) GetVal(fldname string) (any, error) {
	if ts.layout.Schema().Type(fldname) == Integer {
		return ts.GetInt(fldname)
	}
	return ts.GetString(fldname)
}

// HasField reports whether fldname exists in this table's schema.
func (ts *TableScan) HasField(fldname string) bool {
	return ts.layout.Schema().HasField(fldname)
}

// Close unpins the currently pinned frame, if any.
func (ts *TableScan) Close() {
	if ts.currentBufferIdx != noFrame {
		ts.bm.Unpin(ts.currentBufferIdx)
		ts.currentBufferIdx = noFrame
	}
}

// SetInt writes val into field fldname at the current position.
func (ts *TableScan) SetInt(fldname string, val int32) error {
	ts.requirePositioned()
	return ts.rp.SetInt(*ts.currentSlot, fldname, val)
}

// SetString writes val into field fldname at the current position.
func (ts *TableScan) SetString(fldname string, val string) error {
	ts.requirePositioned()
	return ts.rp.SetString(*ts.currentSlot, fldname, val)
}

// SetVal writes val into field fldname at the current position, dispatching
// on the field's declared type.
func (ts *TableScan) SetVal(fldname string, val any) error {
	if ts.layout.Schema().Type(fldname) == Integer {
		return ts.SetInt(fldname, val.(int32))
	}
	return ts.SetString(fldname, val.(string))
}

// Insert advances the cursor to a fresh USED slot, appending a new block if
// every existing block is full.
func (ts *TableScan) Insert() error {
	slot, err := ts.rp.InsertAfter(ts.currentSlot)
	if err != nil {
		return err
	}
	ts.currentSlot = slot

	for ts.currentSlot == nil {
		atLast, err := ts.atLastBlock()
		if err != nil {
			return err
		}
		if atLast {
			if err := ts.moveToNewBlock(); err != nil {
				return err
			}
		} else {
			if err := ts.moveToBlock(ts.rp.Block().Number + 1); err != nil {
				return err
			}
		}
		slot, err := ts.rp.InsertAfter(ts.currentSlot)
		if err != nil {
			return err
		}
		ts.currentSlot = slot
	}
	return nil
}

// DeleteRecord marks the record at the current position EMPTY.
func (ts *TableScan) DeleteRecord() error {
	ts.requirePositioned()
	return ts.rp.DeleteRecord(*ts.currentSlot)
}

// GetRID returns the RID of the current position, or nil if the scan is
// not currently positioned on a record.
func (ts *TableScan) GetRID() *RID {
	if ts.currentSlot == nil {
		return nil
	}
	rid := NewRID(ts.rp.Block().Number, *ts.currentSlot)
	return &rid
}

// MoveToRID repositions the scan directly to rid, pinning its block.
func (ts *TableScan) MoveToRID(rid RID) error {
	ts.Close()
	blk := storage.NewBlockId(ts.fileName, rid.BlockNumber)
	idx, err := ts.bm.Pin(blk)
	if err != nil {
		return err
	}
	ts.currentBufferIdx = idx
	ts.rp = NewRecordPage(ts.bm.Buffer(idx), ts.layout)
	slot := rid.Slot
	ts.currentSlot = &slot
	return nil
}

func (ts *TableScan) moveToBlock(blockNum int32) error {
	ts.Close()
	blk := storage.NewBlockId(ts.fileName, blockNum)
	idx, err := ts.bm.Pin(blk)
	if err != nil {
		return err
	}
	ts.currentBufferIdx = idx
	ts.rp = NewRecordPage(ts.bm.Buffer(idx), ts.layout)
	ts.currentSlot = nil
	return nil
}

func (ts *TableScan) moveToNewBlock() error {
	ts.Close()
	blk, err := ts.bm.FileMgr().Append(ts.fileName)
	if err != nil {
		return err
	}
	idx, err := ts.bm.Pin(blk)
	if err != nil {
		return err
	}
	ts.currentBufferIdx = idx
	ts.rp = NewRecordPage(ts.bm.Buffer(idx), ts.layout)
	if err := ts.rp.Format(); err != nil {
		return err
	}
	ts.currentSlot = nil
	return nil
}

func (ts *TableScan) atLastBlock() (bool, error) {
	length, err := ts.bm.FileMgr().Length(ts.fileName)
	if err != nil {
		return false, err
	}
	return ts.rp.Block().Number == length-1, nil
}
