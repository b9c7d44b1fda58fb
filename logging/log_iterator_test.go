package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cs-systems-lab/simpledb-go/logging"
	"github.com/cs-systems-lab/simpledb-go/storage"
)

func TestLogIteratorTraversesMultipleBlocksNewestFirst(t *testing.T) {
	fm, err := storage.NewFileMgr(t.TempDir(), 48)
	require.NoError(t, err)
	lm, err := logging.NewLogMgr(fm, "multi.log")
	require.NoError(t, err)

	records := []string{"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7"}
	for _, r := range records {
		_, err := lm.Append([]byte(r))
		require.NoError(t, err)
	}

	it, err := lm.Iterator()
	require.NoError(t, err)

	var got []string
	for it.HasNext() {
		rec, err := it.Next()
		require.NoError(t, err)
		got = append(got, string(rec))
	}

	want := make([]string, len(records))
	for i, r := range records {
		want[len(records)-1-i] = r
	}
	assert.Equal(t, want, got)
}

func TestLogIteratorHasNextFalseOnEmptyLog(t *testing.T) {
	fm, err := storage.NewFileMgr(t.TempDir(), 64)
	require.NoError(t, err)
	lm, err := logging.NewLogMgr(fm, "empty.log")
	require.NoError(t, err)

	it, err := lm.Iterator()
	require.NoError(t, err)
	assert.False(t, it.HasNext())
}
