// stand for bytes helper
package bx

import (
	"encoding/binary"
	"errors"
)

// BE is the byte order of every integer in a .dtb file.
var BE = binary.BigEndian

var ErrShortBuffer = errors.New("bx: short buffer")

// --- BE: read ---
func U16BE(b []byte) uint16 { return BE.Uint16(b) }
func U32BE(b []byte) uint32 { return BE.Uint32(b) }

// --- BE: append ---
func AppendU16BE(b []byte, v uint16) []byte { return BE.AppendUint16(b, v) }
func AppendU32BE(b []byte, v uint32) []byte { return BE.AppendUint32(b, v) }

// Reader is a forward-only cursor over a byte slice. Reads past the end
// return ErrShortBuffer and leave the cursor where it was.
type Reader struct {
	buf []byte
	off int
}

func NewReader(b []byte) *Reader { return &Reader{buf: b} }

func (r *Reader) Offset() int    { return r.off }
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrShortBuffer
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return U16BE(b), nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return U32BE(b), nil
}

// String16 reads a u16 length followed by that many bytes.
func (r *Reader) String16() (string, error) {
	n, err := r.U16()
	if err != nil {
		return "", err
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// String32 reads a u32 length followed by that many bytes.
func (r *Reader) String32() (string, error) {
	n, err := r.U32()
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(r.Remaining()) {
		return "", ErrShortBuffer
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
