// Package logging implements the write-ahead log: a single backward-growing
// log page with monotonic sequence numbers (LogMgr) and a backward iterator
// over recovery reads (LogIterator).
package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/cs-systems-lab/simpledb-go/storage"
)

// boundaryOffset is the byte offset of the boundary header within a log page.
const boundaryOffset = 0

// LSN is a Log Sequence Number: a monotonically increasing identifier
// assigned to each appended record. LSN 0 never appears on the wire; it is
// used as the zero value meaning "no LSN yet".
type LSN int64

// LogMgr is a single-page, append-only, backward-growing write-ahead log.
// Records are written from the high end of the page toward the low end;
// the 4-byte boundary header doubles as "first free byte" and "offset of
// the most recent record", so a fresh read of the page can be scanned
// forward from the boundary to yield records newest-first.
type LogMgr struct {
	fm      *storage.FileMgr
	logFile string

	logPage      *storage.Page
	currentBlock storage.BlockId
	latestLSN    LSN
	lastSavedLSN LSN
	logger       *logrus.Logger
}

// NewLogMgr opens (or initializes) the write-ahead log stored in logFile
// within fm's database directory.
func NewLogMgr(fm *storage.FileMgr, logFile string) (*LogMgr, error) {
	lm := &LogMgr{
		fm:      fm,
		logFile: logFile,
		logPage: storage.NewPage(fm.BlockSize()),
		logger:  logrus.StandardLogger(),
	}

	logSize, err := fm.Length(logFile)
	if err != nil {
		return nil, err
	}

	if logSize == 0 {
		blk, err := lm.appendNewBlock()
		if err != nil {
			return nil, err
		}
		lm.currentBlock = blk
	} else {
		lm.currentBlock = storage.NewBlockId(logFile, logSize-1)
		if err := fm.Read(lm.currentBlock, lm.logPage); err != nil {
			return nil, err
		}
	}

	return lm, nil
}

// appendNewBlock appends a fresh block to the log file and resets the
// in-memory page's boundary to the end of the page (no records yet).
func (lm *LogMgr) appendNewBlock() (storage.BlockId, error) {
	blk, err := lm.fm.Append(lm.logFile)
	if err != nil {
		return storage.BlockId{}, err
	}
	if err := lm.logPage.SetInt(boundaryOffset, int32(lm.fm.BlockSize())); err != nil {
		return storage.BlockId{}, err
	}
	if err := lm.fm.Write(blk, lm.logPage); err != nil {
		return storage.BlockId{}, err
	}
	lm.logger.WithField("block", blk).Debug("log allocated new block")
	return blk, nil
}

// Append writes record to the log and returns its assigned LSN. The record
// is not guaranteed durable until a subsequent Flush(lsn) with lsn >= the
// returned value, or a call to Iterator (which flushes unconditionally).
func (lm *LogMgr) Append(record []byte) (LSN, error) {
	boundary, err := lm.logPage.GetInt(boundaryOffset)
	if err != nil {
		return 0, err
	}

	bytesNeeded := int32(len(record)) + 4
	if boundary-bytesNeeded < 4 {
		// No room left for this record plus its length header without
		// colliding with the boundary field itself: flush what we have and
		// start a fresh block.
		if err := lm.flushCurrentPage(); err != nil {
			return 0, err
		}
		blk, err := lm.appendNewBlock()
		if err != nil {
			return 0, err
		}
		lm.currentBlock = blk
		boundary, err = lm.logPage.GetInt(boundaryOffset)
		if err != nil {
			return 0, err
		}
	}

	recPos := boundary - bytesNeeded
	if err := lm.logPage.SetBytes(int(recPos), record); err != nil {
		return 0, err
	}
	if err := lm.logPage.SetInt(boundaryOffset, recPos); err != nil {
		return 0, err
	}

	lm.latestLSN++
	return lm.latestLSN, nil
}

// flushCurrentPage writes the in-memory log page to disk and records that
// everything up to latestLSN is now durable. Callers must hold no lock;
// LogMgr relies on single-threaded use, per the core's concurrency model.
func (lm *LogMgr) flushCurrentPage() error {
	if err := lm.fm.Write(lm.currentBlock, lm.logPage); err != nil {
		return err
	}
	lm.lastSavedLSN = lm.latestLSN
	return nil
}

// Flush writes the current log page to disk unless lsn is below the last
// saved LSN. The guard is intentionally lsn >= lastSavedLSN (inclusive): a
// caller asking to flush LSN 0 on a freshly opened, empty log performs one
// harmless extra write rather than silently doing nothing.
func (lm *LogMgr) Flush(lsn LSN) error {
	if lsn >= lm.lastSavedLSN {
		return lm.flushCurrentPage()
	}
	return nil
}

// Iterator flushes the current page and returns a LogIterator that walks
// backward from the most recent record to the oldest.
func (lm *LogMgr) Iterator() (*LogIterator, error) {
	if err := lm.flushCurrentPage(); err != nil {
		return nil, err
	}
	return newLogIterator(lm.fm, lm.currentBlock)
}
