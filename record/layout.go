package record

import "github.com/cs-systems-lab/simpledb-go/storage"

// flagSize is the width of the used/empty flag at the start of every slot.
const flagSize = 4

// Layout derives each field's byte offset within a slot, and the total
// slot size, from a Schema. Slot format is
// [4-byte used-flag][field1 bytes][field2 bytes]...
// with offsets computed in schema insertion order.
type Layout struct {
	schema   *Schema
	offsets  map[string]int
	slotSize int
}

// NewLayout computes offsets and slot size for schema.
func NewLayout(schema *Schema) *Layout {
	offsets := make(map[string]int)
	slotSize := flagSize
	for _, fldname := range schema.Fields() {
		offsets[fldname] = slotSize
		slotSize += lengthInBytes(schema, fldname)
	}
	return &Layout{schema: schema, offsets: offsets, slotSize: slotSize}
}

// NewLayoutFromParts reconstructs a Layout from precomputed offsets and
// slot size, e.g. when a Layout must be rebuilt from catalog metadata
// rather than derived fresh from a Schema.
func NewLayoutFromParts(schema *Schema, offsets map[string]int, slotSize int) *Layout {
	return &Layout{schema: schema, offsets: offsets, slotSize: slotSize}
}

func lengthInBytes(schema *Schema, fldname string) int {
	if schema.Type(fldname) == Integer {
		return 4
	}
	return storage.MaxLength(schema.Length(fldname))
}

// Schema returns the schema this layout was derived from.
func (l *Layout) Schema() *Schema {
	return l.schema
}

// Offset returns the byte offset of fldname within a slot.
func (l *Layout) Offset(fldname string) int {
	return l.offsets[fldname]
}

// SlotSize returns the total size in bytes of one slot.
func (l *Layout) SlotSize() int {
	return l.slotSize
}
