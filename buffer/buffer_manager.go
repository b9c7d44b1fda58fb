package buffer

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cs-systems-lab/simpledb-go/logging"
	"github.com/cs-systems-lab/simpledb-go/simpledberr"
	"github.com/cs-systems-lab/simpledb-go/storage"
)

// defaultMaxTime is the default ceiling BufferMgr.Pin waits for a frame to
// become available before raising BufferAbort.
const defaultMaxTime = 10 * time.Second

// pollInterval is how long Pin sleeps between retries while the pool is
// exhausted. This is a placeholder for a proper condition-variable wait in
// a multi-threaded implementation; see spec.md §9.
const pollInterval = 100 * time.Millisecond

// BufferMgr manages a fixed pool of frames with naive first-unpinned
// eviction. It is single-threaded: the bounded wait in Pin is a polling
// sleep loop, not a condition variable, by design (see spec.md §5, §9).
type BufferMgr struct {
	fm     *storage.FileMgr
	lm     *logging.LogMgr
	frames []*Buffer

	numAvailable int
	maxTime      time.Duration

	logger *logrus.Logger
}

// NewBufferMgr allocates numBuffers frames, each backed by fm and lm.
func NewBufferMgr(fm *storage.FileMgr, lm *logging.LogMgr, numBuffers int) *BufferMgr {
	frames := make([]*Buffer, numBuffers)
	for i := range frames {
		frames[i] = NewBuffer(fm, lm)
	}
	return &BufferMgr{
		fm:           fm,
		lm:           lm,
		frames:       frames,
		numAvailable: numBuffers,
		maxTime:      defaultMaxTime,
		logger:       logrus.StandardLogger(),
	}
}

// Available returns the number of currently unpinned frames.
func (bm *BufferMgr) Available() int {
	return bm.numAvailable
}

// Buffer returns the frame at index i.
func (bm *BufferMgr) Buffer(i int) *Buffer {
	return bm.frames[i]
}

// FileMgr returns the FileMgr shared by every frame in this pool.
func (bm *BufferMgr) FileMgr() *storage.FileMgr {
	return bm.fm
}

// SetMaxTime overrides how long Pin will wait for a frame to free up before
// raising BufferAbort.
func (bm *BufferMgr) SetMaxTime(d time.Duration) {
	bm.maxTime = d
}

// FlushAll flushes every frame currently modified by txnum. Used by
// transaction commit in a higher layer; the core itself has no notion of
// commit beyond this sweep.
func (bm *BufferMgr) FlushAll(txnum int64) error {
	for _, f := range bm.frames {
		if tx := f.ModifyingTx(); tx != nil && *tx == txnum {
			if err := f.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Pin returns the index of a frame holding blk, pinning it first. If blk is
// not already resident, an unpinned frame is evicted (flushing it first if
// dirty) and blk is read into it. If every frame is pinned, Pin polls every
// 100ms until one frees up or maxTime elapses, at which point it fails with
// BufferAbort.
func (bm *BufferMgr) Pin(blk storage.BlockId) (int, error) {
	start := time.Now()

	idx, err := bm.tryToPin(blk)
	if err != nil {
		return 0, err
	}

	for idx < 0 && time.Since(start) <= bm.maxTime {
		time.Sleep(pollInterval)
		idx, err = bm.tryToPin(blk)
		if err != nil {
			return 0, err
		}
	}

	if idx < 0 {
		bm.logger.WithField("block", blk).Warn("buffer pool exhausted past max wait time")
		return 0, simpledberr.New(simpledberr.BufferAbort, "timed out waiting for a free frame for %s", blk)
	}
	return idx, nil
}

// Unpin releases one pin on the frame at index i, making it eligible for
// eviction once its count reaches zero.
func (bm *BufferMgr) Unpin(i int) {
	f := bm.frames[i]
	f.Unpin()
	if !f.IsPinned() {
		bm.numAvailable++
	}
}

// tryToPin attempts a single non-blocking pin attempt, returning -1 if the
// pool is currently exhausted (every frame pinned and none already assigned
// to blk).
func (bm *BufferMgr) tryToPin(blk storage.BlockId) (int, error) {
	idx := bm.findExistingBuffer(blk)
	if idx < 0 {
		idx = bm.chooseUnpinnedBuffer()
		if idx < 0 {
			return -1, nil
		}
		if err := bm.frames[idx].AssignToBlock(blk); err != nil {
			return 0, err
		}
		bm.logger.WithFields(logrus.Fields{"frame": idx, "block": blk}).Debug("evicted frame reassigned")
	}

	if !bm.frames[idx].IsPinned() {
		bm.numAvailable--
	}
	bm.frames[idx].Pin()
	return idx, nil
}

// findExistingBuffer linearly scans the pool for a frame already assigned
// to blk. Returns -1 if none is found.
func (bm *BufferMgr) findExistingBuffer(blk storage.BlockId) int {
	for i, f := range bm.frames {
		if b := f.Block(); b != nil && *b == blk {
			return i
		}
	}
	return -1
}

// chooseUnpinnedBuffer picks the first unpinned frame it finds, scanning
// from frame 0. This is deliberately the simplest possible eviction
// policy — the design permits replacing it with clock or LRU without
// changing any caller.
func (bm *BufferMgr) chooseUnpinnedBuffer() int {
	for i, f := range bm.frames {
		if !f.IsPinned() {
			return i
		}
	}
	return -1
}
