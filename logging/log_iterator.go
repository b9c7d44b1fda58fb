package logging

import (
	"github.com/cs-systems-lab/simpledb-go/simpledberr"
	"github.com/cs-systems-lab/simpledb-go/storage"
)

// LogIterator produces log records in reverse chronological order: from the
// most recent record in the most recent block, back through block 0.
// Within one block, records are yielded in the order they physically
// appear, which is newest-first because the boundary grows leftward.
type LogIterator struct {
	fm         *storage.FileMgr
	blk        storage.BlockId
	page       *storage.Page
	currentPos int32
	boundary   int32
}

func newLogIterator(fm *storage.FileMgr, blk storage.BlockId) (*LogIterator, error) {
	it := &LogIterator{
		fm:   fm,
		page: storage.NewPage(fm.BlockSize()),
	}
	if err := it.moveToBlock(blk); err != nil {
		return nil, err
	}
	return it, nil
}

func (it *LogIterator) moveToBlock(blk storage.BlockId) error {
	if err := it.fm.Read(blk, it.page); err != nil {
		return err
	}
	boundary, err := it.page.GetInt(boundaryOffset)
	if err != nil {
		return err
	}
	it.blk = blk
	it.boundary = boundary
	it.currentPos = boundary
	return nil
}

// HasNext reports whether a subsequent call to Next would succeed: either
// the current page has more records, or an earlier block remains unread.
func (it *LogIterator) HasNext() bool {
	if it.currentPos < int32(it.fm.BlockSize()) {
		return true
	}
	return it.blk.Number > 0
}

// Next returns the payload of the next record in reverse chronological
// order, advancing the cursor past it. It fails with NoMoreRecords once
// block 0's last record has been returned.
func (it *LogIterator) Next() ([]byte, error) {
	if it.currentPos >= int32(it.fm.BlockSize()) && it.blk.Number <= 0 {
		return nil, simpledberr.New(simpledberr.NoMoreRecords, "no more log records")
	}

	if it.currentPos >= int32(it.fm.BlockSize()) {
		if err := it.moveToBlock(storage.NewBlockId(it.blk.FileName, it.blk.Number-1)); err != nil {
			return nil, err
		}
	}

	record, err := it.page.GetBytes(int(it.currentPos))
	if err != nil {
		return nil, err
	}
	it.currentPos += 4 + int32(len(record))
	return record, nil
}
