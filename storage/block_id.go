package storage

import "fmt"

// BlockId is a value-typed reference to one block within one file:
// file name plus a non-negative block number. It indexes into the
// containing file at block_number * block_size. BlockId is immutable,
// hashable (usable as a map key), and totally ordered.
type BlockId struct {
	FileName string
	Number   int32
}

// NewBlockId constructs a BlockId for the given file and block number.
func NewBlockId(fileName string, number int32) BlockId {
	return BlockId{FileName: fileName, Number: number}
}

func (b BlockId) String() string {
	return fmt.Sprintf("[file %s, block %d]", b.FileName, b.Number)
}

// Less reports whether b sorts before other: lexicographically on
// FileName, then numerically on Number.
func (b BlockId) Less(other BlockId) bool {
	if b.FileName != other.FileName {
		return b.FileName < other.FileName
	}
	return b.Number < other.Number
}
