package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/btree"

	"github.com/cs-systems-lab/simpledb-go/simpledberr"
)

// tempFilePrefix marks files purged at FileMgr construction time.
const tempFilePrefix = "temp"

// FileMgr translates (BlockId, Page) pairs into block-aligned disk I/O on
// files rooted at one database directory. A single mutex serializes every
// I/O method; correctness, not throughput, is the design goal for this
// layer, since the core does no I/O parallelism of its own.
type FileMgr struct {
	dbDirectory string
	blockSize   int
	isNew       bool

	mu sync.Mutex

	// lengths caches each open file's length in blocks, refreshed on every
	// append and write so higher layers never need an fstat to learn it.
	lengths *xsync.MapOf[string, int32]

	logger *logrus.Logger
}

// fileEntry is one row of the ordered directory scanned at construction,
// used only to make the temp-file purge deterministic.
type fileEntry struct {
	name   string
	isTemp bool
}

func fileEntryLess(a, b fileEntry) bool {
	return a.name < b.name
}

// NewFileMgr opens (creating if necessary) the database directory dbDirectory
// and returns a FileMgr that reads and writes blockSize-byte blocks within
// it. Files whose names begin with "temp" are deleted as part of
// construction.
func NewFileMgr(dbDirectory string, blockSize int) (*FileMgr, error) {
	logger := logrus.StandardLogger()

	_, statErr := os.Stat(dbDirectory)
	isNew := os.IsNotExist(statErr)

	if isNew {
		if err := os.MkdirAll(dbDirectory, 0o755); err != nil {
			return nil, simpledberr.Wrap(simpledberr.FileIO, err, "creating database directory %s", dbDirectory)
		}
	}

	fm := &FileMgr{
		dbDirectory: dbDirectory,
		blockSize:   blockSize,
		isNew:       isNew,
		lengths:     xsync.NewMapOf[string, int32](),
		logger:      logger,
	}

	if err := fm.purgeTempFiles(); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"directory":  dbDirectory,
		"block_size": blockSize,
		"is_new":     isNew,
	}).Debug("file manager opened")

	return fm, nil
}

// purgeTempFiles deletes every file in the directory whose name begins with
// "temp". Entries are collected into a filename-ordered btree first so the
// deletions happen in a deterministic order, matching the original
// implementation's directory_iterator-based purge but without depending on
// OS directory-listing order.
func (fm *FileMgr) purgeTempFiles() error {
	entries, err := os.ReadDir(fm.dbDirectory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return simpledberr.Wrap(simpledberr.FileIO, err, "listing database directory %s", fm.dbDirectory)
	}

	dir := btree.NewBTreeG(fileEntryLess)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		dir.Set(fileEntry{name: entry.Name(), isTemp: strings.HasPrefix(entry.Name(), tempFilePrefix)})
	}

	var purgeErr error
	dir.Scan(func(fe fileEntry) bool {
		if !fe.isTemp {
			return true
		}
		if err := os.Remove(filepath.Join(fm.dbDirectory, fe.name)); err != nil && !os.IsNotExist(err) {
			purgeErr = simpledberr.Wrap(simpledberr.FileIO, err, "removing temp file %s", fe.name)
			return false
		}
		return true
	})
	return purgeErr
}

func (fm *FileMgr) path(fileName string) string {
	return filepath.Join(fm.dbDirectory, fileName)
}

func (fm *FileMgr) openFile(fileName string) (*os.File, error) {
	f, err := os.OpenFile(fm.path(fileName), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, simpledberr.Wrap(simpledberr.FileIO, err, "opening file %s", fileName)
	}
	return f, nil
}

// refreshLength recomputes and caches the block length of fileName from the
// filesystem. Callers must hold fm.mu.
func (fm *FileMgr) refreshLength(fileName string) (int32, error) {
	info, err := os.Stat(fm.path(fileName))
	if err != nil {
		if os.IsNotExist(err) {
			fm.lengths.Store(fileName, 0)
			return 0, nil
		}
		return 0, simpledberr.Wrap(simpledberr.FileIO, err, "statting file %s", fileName)
	}
	n := int32(info.Size() / int64(fm.blockSize))
	fm.lengths.Store(fileName, n)
	return n, nil
}

// Read fills page with the contents of blk. If blk's file does not exist, or
// blk's offset extends past the current end of the file, page is left
// untouched: callers rely on append's zero-fill for newly allocated blocks,
// not on read to provide it.
func (fm *FileMgr) Read(blk BlockId, page *Page) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	path := fm.path(blk.FileName)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return simpledberr.Wrap(simpledberr.FileIO, err, "statting file %s", blk.FileName)
	}

	offset := int64(blk.Number) * int64(fm.blockSize)
	if offset+int64(fm.blockSize) > info.Size() {
		return nil
	}

	f, err := fm.openFile(blk.FileName)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.ReadAt(page.Contents(), offset); err != nil && err != io.EOF {
		return simpledberr.Wrap(simpledberr.FileIO, err, "reading block %s", blk)
	}
	return nil
}

// Write writes the full contents of page to blk, flushing the write to the
// OS and refreshing the cached file length afterward.
func (fm *FileMgr) Write(blk BlockId, page *Page) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return fm.writeLocked(blk, page)
}

func (fm *FileMgr) writeLocked(blk BlockId, page *Page) error {
	f, err := fm.openFile(blk.FileName)
	if err != nil {
		return err
	}
	defer f.Close()

	offset := int64(blk.Number) * int64(fm.blockSize)
	if _, err := f.WriteAt(page.Contents(), offset); err != nil {
		return simpledberr.Wrap(simpledberr.FileIO, err, "writing block %s", blk)
	}
	if err := f.Sync(); err != nil {
		return simpledberr.Wrap(simpledberr.FileIO, err, "syncing file %s", blk.FileName)
	}

	_, err = fm.refreshLength(blk.FileName)
	return err
}

// Append extends file by one zero-filled block and returns its BlockId. The
// returned block number equals the file's length in blocks before the
// append.
func (fm *FileMgr) Append(file string) (BlockId, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	newBlockNum, err := fm.lengthLocked(file)
	if err != nil {
		return BlockId{}, err
	}
	blk := NewBlockId(file, newBlockNum)

	zeros := make([]byte, fm.blockSize)
	if err := fm.writeLocked(blk, NewPageFromBytes(zeros)); err != nil {
		return BlockId{}, err
	}

	fm.logger.WithFields(logrus.Fields{"file": file, "block": newBlockNum}).Debug("appended block")
	return blk, nil
}

// Length returns the number of blockSize blocks currently in file.
func (fm *FileMgr) Length(file string) (int32, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return fm.lengthLocked(file)
}

func (fm *FileMgr) lengthLocked(file string) (int32, error) {
	if n, ok := fm.lengths.Load(file); ok {
		return n, nil
	}
	return fm.refreshLength(file)
}

// BlockSize returns the fixed block size this FileMgr reads and writes.
func (fm *FileMgr) BlockSize() int {
	return fm.blockSize
}

// IsNew reports whether the database directory did not exist before this
// FileMgr was constructed.
func (fm *FileMgr) IsNew() bool {
	return fm.isNew
}

// String implements fmt.Stringer for diagnostic output.
func (fm *FileMgr) String() string {
	return fmt.Sprintf("FileMgr(%s, block=%d)", fm.dbDirectory, fm.blockSize)
}
