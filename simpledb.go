// Package simpledb wires three storage-core layers together: the file
// manager, the write-ahead log manager, and the buffer pool manager, in
// that dependency order.
package simpledb

import (
	"github.com/sirupsen/logrus"

	"github.com/cs-systems-lab/simpledb-go/buffer"
	"github.com/cs-systems-lab/simpledb-go/logging"
	"github.com/cs-systems-lab/simpledb-go/storage"
)

const logFileName = "simpledb.log"

// SimpleDB is the top-level container for the storage core: a database
// directory's FileMgr, the LogMgr layered on top of it, and a BufferMgr
// layered on top of both.
type SimpleDB struct {
	FileMgr   *storage.FileMgr
	LogMgr    *logging.LogMgr
	BufferMgr *buffer.BufferMgr
}

// SetLogger reconfigures the package-wide standard logrus logger that every
// layer of the storage core logs through. Every sub-manager fetches
// logrus.StandardLogger() at construction time rather than caching its own
// copy of its fields, so this takes effect both for managers already open
// and for managers opened afterward.
func SetLogger(l *logrus.Logger) {
	std := logrus.StandardLogger()
	std.SetOutput(l.Out)
	std.SetFormatter(l.Formatter)
	std.SetLevel(l.GetLevel())
	std.ReplaceHooks(l.Hooks)
}

// Open opens (creating if necessary) the database directory dbDirectory,
// with blocks of blockSize bytes and a buffer pool of numBuffers frames.
func Open(dbDirectory string, blockSize, numBuffers int) (*SimpleDB, error) {
	fm, err := storage.NewFileMgr(dbDirectory, blockSize)
	if err != nil {
		return nil, err
	}

	lm, err := logging.NewLogMgr(fm, logFileName)
	if err != nil {
		return nil, err
	}

	bm := buffer.NewBufferMgr(fm, lm, numBuffers)

	return &SimpleDB{
		FileMgr:   fm,
		LogMgr:    lm,
		BufferMgr: bm,
	}, nil
}
