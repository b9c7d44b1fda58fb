package record

import "fmt"

// RID identifies a record's physical location within one table file: the
// block number it lives on plus its slot index. It is stable only while
// the record is not deleted or moved.
type RID struct {
	BlockNumber int32
	Slot        int
}

// NewRID constructs an RID.
func NewRID(blockNumber int32, slot int) RID {
	return RID{BlockNumber: blockNumber, Slot: slot}
}

func (r RID) String() string {
	return fmt.Sprintf("[%d, %d]", r.BlockNumber, r.Slot)
}
