package logging_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cs-systems-lab/simpledb-go/logging"
	"github.com/cs-systems-lab/simpledb-go/simpledberr"
	"github.com/cs-systems-lab/simpledb-go/storage"
)

func newLogMgr(t *testing.T, blockSize int) *logging.LogMgr {
	fm, err := storage.NewFileMgr(t.TempDir(), blockSize)
	require.NoError(t, err)
	lm, err := logging.NewLogMgr(fm, "test.log")
	require.NoError(t, err)
	return lm
}

func TestLogMgrAppendAssignsMonotonicLSNs(t *testing.T) {
	lm := newLogMgr(t, 400)

	lsn1, err := lm.Append([]byte("record one"))
	require.NoError(t, err)
	lsn2, err := lm.Append([]byte("record two"))
	require.NoError(t, err)
	lsn3, err := lm.Append([]byte("record three"))
	require.NoError(t, err)

	assert.Less(t, lsn1, lsn2)
	assert.Less(t, lsn2, lsn3)
}

func TestLogMgrIteratorReturnsDurableRecords(t *testing.T) {
	lm := newLogMgr(t, 400)

	_, err := lm.Append([]byte("alpha"))
	require.NoError(t, err)
	_, err = lm.Append([]byte("beta"))
	require.NoError(t, err)
	_, err = lm.Append([]byte("gamma"))
	require.NoError(t, err)

	it, err := lm.Iterator()
	require.NoError(t, err)

	var records []string
	for it.HasNext() {
		rec, err := it.Next()
		require.NoError(t, err)
		records = append(records, string(rec))
	}

	assert.Equal(t, []string{"gamma", "beta", "alpha"}, records)
}

func TestLogMgrFlushGuardIsInclusive(t *testing.T) {
	fm, err := storage.NewFileMgr(t.TempDir(), 400)
	require.NoError(t, err)
	lm, err := logging.NewLogMgr(fm, "test.log")
	require.NoError(t, err)

	// "pending" (7 bytes) is stored at 400 - (4 + 7) = 389 in memory only.
	_, err = lm.Append([]byte("pending"))
	require.NoError(t, err)

	// A fresh log has lastSavedLSN == 0; flushing LSN 0 must still perform
	// a flush rather than silently doing nothing.
	require.NoError(t, lm.Flush(logging.LSN(0)))

	p := storage.NewPage(400)
	require.NoError(t, fm.Read(storage.NewBlockId("test.log", 0), p))
	boundary, err := p.GetInt(0)
	require.NoError(t, err)
	assert.Equal(t, int32(389), boundary)
}

func TestLogMgrOverflowsAcrossBlocks(t *testing.T) {
	lm := newLogMgr(t, 64)

	var lastLSN logging.LSN
	for i := 0; i < 20; i++ {
		lsn, err := lm.Append([]byte("payload-entry"))
		require.NoError(t, err)
		lastLSN = lsn
	}

	it, err := lm.Iterator()
	require.NoError(t, err)

	count := 0
	for it.HasNext() {
		_, err := it.Next()
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 20, count)
	assert.Equal(t, logging.LSN(20), lastLSN)
}

func TestLogMgrIteratorExhaustionReturnsNoMoreRecords(t *testing.T) {
	lm := newLogMgr(t, 400)

	_, err := lm.Append([]byte("only record"))
	require.NoError(t, err)

	it, err := lm.Iterator()
	require.NoError(t, err)

	require.True(t, it.HasNext())
	_, err = it.Next()
	require.NoError(t, err)

	assert.False(t, it.HasNext())
	_, err = it.Next()
	require.Error(t, err)

	var sdbErr *simpledberr.Error
	require.True(t, errors.As(err, &sdbErr))
	assert.Equal(t, simpledberr.NoMoreRecords, sdbErr.Code)
}
