// Package codec implements the compact binary encoding used to persist
// engine state blobs (claim bitsets, cursors, pooled balances). Values are
// written as reverse-stop varints: 7 data bits per byte, and the byte that
// carries the most significant bits has its top bit set. Small numbers,
// which dominate the snapshots, take a single byte.
//
// The encoding is canonical: a value has exactly one valid byte sequence,
// and decoders reject padded or truncated input. Canonical blobs can be
// compared byte-for-byte, which the storage layer relies on to detect
// unchanged snapshots.
package codec

import (
	"errors"
	"math/big"
)

var (
	// ErrNonCanonical is returned when a value is not packed minimally.
	ErrNonCanonical = errors.New("non canonical encoding")
	// ErrMalformed is returned when a blob is truncated or oversized.
	ErrMalformed = errors.New("malformed encoding")
	// ErrTooLargeAlloc guards decoders against hostile length prefixes.
	ErrTooLargeAlloc = errors.New("too large allocation")
)

// MaxAlloc limits decoded slice sizes. Snapshots never approach it.
const MaxAlloc = 4 * 1024 * 1024

// Writer appends compact values to a growing buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with a small pre-allocated buffer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Uint64 writes v as a reverse-stop varint.
func (w *Writer) Uint64(v uint64) {
	for {
		chunk := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			w.buf = append(w.buf, chunk|0x80)
			return
		}
		w.buf = append(w.buf, chunk)
	}
}

// Bool writes a boolean as a single byte.
func (w *Writer) Bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// Uint64s writes a length-prefixed slice of uint64.
func (w *Writer) Uint64s(vv []uint64) {
	w.Uint64(uint64(len(vv)))
	for _, v := range vv {
		w.Uint64(v)
	}
}

// BigInt writes a non-negative big integer as length-prefixed big-endian
// bytes. nil is encoded like zero.
func (w *Writer) BigInt(v *big.Int) {
	if v == nil || v.Sign() == 0 {
		w.Uint64(0)
		return
	}
	b := v.Bytes()
	w.Uint64(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

// Reader consumes values produced by Writer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps an encoded blob.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Done returns nil if the whole blob has been consumed, ErrMalformed
// otherwise. Trailing garbage means the blob is not canonical.
func (r *Reader) Done() error {
	if r.pos != len(r.buf) {
		return ErrMalformed
	}
	return nil
}

func (r *Reader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, ErrMalformed
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// Uint64 reads a reverse-stop varint.
func (r *Reader) Uint64() (uint64, error) {
	var v uint64
	for i := 0; ; i++ {
		if i >= 10 {
			return 0, ErrMalformed
		}
		chunk, err := r.readByte()
		if err != nil {
			return 0, err
		}
		word := uint64(chunk & 0x7f)
		v |= word << (i * 7)
		if chunk&0x80 != 0 {
			// The stop byte must carry data unless the value is zero.
			if i > 0 && word == 0 {
				return 0, ErrNonCanonical
			}
			return v, nil
		}
	}
}

// Bool reads a boolean byte, rejecting anything but 0 or 1.
func (r *Reader) Bool() (bool, error) {
	b, err := r.readByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrNonCanonical
	}
}

// Uint64s reads a length-prefixed slice of uint64.
func (r *Reader) Uint64s() ([]uint64, error) {
	n, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	if n > MaxAlloc/8 {
		return nil, ErrTooLargeAlloc
	}
	vv := make([]uint64, n)
	for i := range vv {
		vv[i], err = r.Uint64()
		if err != nil {
			return nil, err
		}
	}
	return vv, nil
}

// BigInt reads a length-prefixed big-endian integer.
func (r *Reader) BigInt() (*big.Int, error) {
	n, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return new(big.Int), nil
	}
	if n > MaxAlloc {
		return nil, ErrTooLargeAlloc
	}
	if r.pos+int(n) > len(r.buf) {
		return nil, ErrMalformed
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	if b[0] == 0 {
		// Leading zero bytes would make the encoding ambiguous.
		return nil, ErrNonCanonical
	}
	return new(big.Int).SetBytes(b), nil
}
