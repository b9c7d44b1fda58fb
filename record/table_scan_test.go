package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cs-systems-lab/simpledb-go/buffer"
	"github.com/cs-systems-lab/simpledb-go/logging"
	"github.com/cs-systems-lab/simpledb-go/record"
	"github.com/cs-systems-lab/simpledb-go/storage"
)

type scanRig struct {
	fm     *storage.FileMgr
	bm     *buffer.BufferMgr
	layout *record.Layout
}

func newScanRig(t *testing.T, blockSize, numBuffers int) *scanRig {
	fm, err := storage.NewFileMgr(t.TempDir(), blockSize)
	require.NoError(t, err)
	lm, err := logging.NewLogMgr(fm, "wal.log")
	require.NoError(t, err)
	bm := buffer.NewBufferMgr(fm, lm, numBuffers)

	sch := record.NewSchema()
	sch.AddIntField("id")
	sch.AddStringField("name", 10)

	return &scanRig{fm: fm, bm: bm, layout: record.NewLayout(sch)}
}

func insertN(t *testing.T, ts *record.TableScan, n int) {
	for i := 0; i < n; i++ {
		require.NoError(t, ts.Insert())
		require.NoError(t, ts.SetInt("id", int32(i)))
		require.NoError(t, ts.SetString("name", "row"))
	}
}

func TestTableScanInsertAndScanRoundTrip(t *testing.T) {
	rig := newScanRig(t, 400, 3)

	ts, err := record.NewTableScan(rig.bm, "students", rig.layout)
	require.NoError(t, err)

	insertN(t, ts, 5)
	ts.Close()

	ts2, err := record.NewTableScan(rig.bm, "students", rig.layout)
	require.NoError(t, err)
	defer ts2.Close()

	var ids []int32
	for {
		ok, err := ts2.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		id, err := ts2.GetInt("id")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []int32{0, 1, 2, 3, 4}, ids)
}

func TestTableScanSpansMultipleBlocks(t *testing.T) {
	// slot size is 4 (flag) + 4 (id) + 14 (name, maxlen 10) = 22 bytes;
	// a 64-byte page holds 2 slots, forcing several block appends for 9 rows.
	rig := newScanRig(t, 64, 2)

	ts, err := record.NewTableScan(rig.bm, "students", rig.layout)
	require.NoError(t, err)

	insertN(t, ts, 9)
	ts.Close()

	ts2, err := record.NewTableScan(rig.bm, "students", rig.layout)
	require.NoError(t, err)
	defer ts2.Close()

	count := 0
	for {
		ok, err := ts2.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 9, count)

	length, err := rig.fm.Length("students.tbl")
	require.NoError(t, err)
	assert.Greater(t, length, int32(1))
}

func TestTableScanDeleteInMiddleSkipsRecord(t *testing.T) {
	rig := newScanRig(t, 400, 3)

	ts, err := record.NewTableScan(rig.bm, "students", rig.layout)
	require.NoError(t, err)
	insertN(t, ts, 5)

	ts.BeforeFirst()
	var toDelete record.RID
	for i := 0; i < 3; i++ {
		ok, err := ts.Next()
		require.NoError(t, err)
		require.True(t, ok)
		if i == 2 {
			toDelete = *ts.GetRID()
		}
	}
	require.NoError(t, ts.MoveToRID(toDelete))
	require.NoError(t, ts.DeleteRecord())

	ts.BeforeFirst()
	var ids []int32
	for {
		ok, err := ts.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		id, err := ts.GetInt("id")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []int32{0, 1, 3, 4}, ids)
	ts.Close()
}

func TestTableScanUpdateInPlace(t *testing.T) {
	rig := newScanRig(t, 400, 3)

	ts, err := record.NewTableScan(rig.bm, "students", rig.layout)
	require.NoError(t, err)
	defer ts.Close()

	insertN(t, ts, 3)

	ts.BeforeFirst()
	ok, err := ts.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, ts.SetString("name", "updated"))

	ts.BeforeFirst()
	ok, err = ts.Next()
	require.NoError(t, err)
	require.True(t, ok)
	name, err := ts.GetString("name")
	require.NoError(t, err)
	assert.Equal(t, "updated", name)
}

func TestTableScanMoveToRIDJumpsDirectly(t *testing.T) {
	rig := newScanRig(t, 400, 3)

	ts, err := record.NewTableScan(rig.bm, "students", rig.layout)
	require.NoError(t, err)
	defer ts.Close()

	insertN(t, ts, 4)

	var rids []record.RID
	ts.BeforeFirst()
	for {
		ok, err := ts.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		rids = append(rids, *ts.GetRID())
	}
	require.Len(t, rids, 4)

	require.NoError(t, ts.MoveToRID(rids[2]))
	id, err := ts.GetInt("id")
	require.NoError(t, err)
	assert.Equal(t, int32(2), id)
}

func TestTableScanHasField(t *testing.T) {
	rig := newScanRig(t, 400, 3)

	ts, err := record.NewTableScan(rig.bm, "students", rig.layout)
	require.NoError(t, err)
	defer ts.Close()

	assert.True(t, ts.HasField("id"))
	assert.False(t, ts.HasField("missing"))
}

func TestTableScanGetValDispatchesByType(t *testing.T) {
	rig := newScanRig(t, 400, 3)

	ts, err := record.NewTableScan(rig.bm, "students", rig.layout)
	require.NoError(t, err)
	defer ts.Close()

	require.NoError(t, ts.Insert())
	require.NoError(t, ts.SetVal("id", int32(9)))
	require.NoError(t, ts.SetVal("name", "zz"))

	idVal, err := ts.GetVal("id")
	require.NoError(t, err)
	assert.Equal(t, int32(9), idVal)

	nameVal, err := ts.GetVal("name")
	require.NoError(t, err)
	assert.Equal(t, "zz", nameVal)
}
