// Package storage implements the file layer of the storage core: the
// in-memory Page buffer, the BlockId value type, and FileMgr's block-level
// I/O over a database directory.
package storage

import (
	"encoding/binary"

	"github.com/cs-systems-lab/simpledb-go/simpledberr"
)

// intSize is the on-disk width of an integer field.
const intSize = 4

// Page is a fixed-size, owned byte buffer with typed accessors. Pages carry
// no identity of their own; they are raw spans of memory that a Buffer
// assigns meaning to by pairing one with a BlockId.
type Page struct {
	bb []byte
}

// NewPage allocates a zero-filled page of blockSize bytes.
func NewPage(blockSize int) *Page {
	return &Page{bb: make([]byte, blockSize)}
}

// NewPageFromBytes wraps an existing byte slice as a Page without copying.
// The caller must not retain another reference to data that outlives the
// Page's exclusive ownership of it.
func NewPageFromBytes(data []byte) *Page {
	return &Page{bb: data}
}

// Size returns the number of bytes in the page.
func (p *Page) Size() int {
	return len(p.bb)
}

// Contents exposes the raw buffer for FileMgr-level I/O. Callers outside
// this package should prefer the typed accessors below.
func (p *Page) Contents() []byte {
	return p.bb
}

func (p *Page) checkBounds(offset, size int) error {
	if offset < 0 || size < 0 || offset+size > len(p.bb) {
		return simpledberr.New(simpledberr.OutOfBounds,
			"page access at offset %d size %d exceeds page size %d", offset, size, len(p.bb))
	}
	return nil
}

// GetInt reads a big-endian, two's-complement int32 at offset.
func (p *Page) GetInt(offset int) (int32, error) {
	if err := p.checkBounds(offset, intSize); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(p.bb[offset:])), nil
}

// SetInt writes val as a big-endian int32 at offset.
func (p *Page) SetInt(offset int, val int32) error {
	if err := p.checkBounds(offset, intSize); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(p.bb[offset:], uint32(val))
	return nil
}

// GetBytes reads a length-prefixed byte array: a 4-byte big-endian length
// followed by that many raw bytes. The returned slice is a copy.
func (p *Page) GetBytes(offset int) ([]byte, error) {
	if err := p.checkBounds(offset, intSize); err != nil {
		return nil, err
	}
	length := int32(binary.BigEndian.Uint32(p.bb[offset:]))
	if length < 0 {
		return nil, simpledberr.New(simpledberr.InvalidFormat,
			"negative length %d decoded at offset %d", length, offset)
	}
	if err := p.checkBounds(offset+intSize, int(length)); err != nil {
		return nil, err
	}
	start := offset + intSize
	out := make([]byte, length)
	copy(out, p.bb[start:start+int(length)])
	return out, nil
}

// SetBytes writes val as a length-prefixed byte array at offset.
func (p *Page) SetBytes(offset int, val []byte) error {
	if err := p.checkBounds(offset, intSize+len(val)); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(p.bb[offset:], uint32(len(val)))
	copy(p.bb[offset+intSize:], val)
	return nil
}

// GetString reads a UTF-8 string stored via the byte-array accessor.
func (p *Page) GetString(offset int) (string, error) {
	b, err := p.GetBytes(offset)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SetString writes val as a length-prefixed UTF-8 byte array at offset.
func (p *Page) SetString(offset int, val string) error {
	return p.SetBytes(offset, []byte(val))
}

// MaxLength returns the number of bytes needed to store a string of up to
// strlen bytes via the length-prefixed byte-array encoding: 4 bytes of
// length header plus strlen bytes of payload.
func MaxLength(strlen int) int {
	return intSize + strlen
}
