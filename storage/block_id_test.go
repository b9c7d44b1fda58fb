package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cs-systems-lab/simpledb-go/storage"
)

func TestBlockIdEquality(t *testing.T) {
	a := storage.NewBlockId("table.tbl", 3)
	b := storage.NewBlockId("table.tbl", 3)
	c := storage.NewBlockId("table.tbl", 4)
	d := storage.NewBlockId("other.tbl", 3)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestBlockIdUsableAsMapKey(t *testing.T) {
	m := map[storage.BlockId]int{}
	m[storage.NewBlockId("t.tbl", 0)] = 1
	m[storage.NewBlockId("t.tbl", 1)] = 2

	assert.Equal(t, 1, m[storage.NewBlockId("t.tbl", 0)])
	assert.Equal(t, 2, m[storage.NewBlockId("t.tbl", 1)])
}

func TestBlockIdLess(t *testing.T) {
	a := storage.NewBlockId("a.tbl", 5)
	b := storage.NewBlockId("b.tbl", 0)
	c := storage.NewBlockId("a.tbl", 6)

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, a.Less(c))
	assert.False(t, a.Less(a))
}

func TestBlockIdString(t *testing.T) {
	blk := storage.NewBlockId("students.tbl", 2)
	assert.Equal(t, "[file students.tbl, block 2]", blk.String())
}
