package byteutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"
)

var bytesBuffer = sync.Pool{
	New: func() interface{} { return &bytes.Buffer{} },
}

func GetBytesBuf() *bytes.Buffer {
	return bytesBuffer.Get().(*bytes.Buffer)
}

// PutBytesBuf resets p and returns it to the pool.
func PutBytesBuf(p *bytes.Buffer) {
	p.Reset()
	bytesBuffer.Put(p)
}

// Hasher accumulates ints and floats in a pooled buffer and hashes them with
// sha256. Floats are written as their IEEE-754 bits, so -0 and 0 differ.
type Hasher struct {
	buf     *bytes.Buffer
	scratch [8]byte
}

func NewHasher() *Hasher {
	return &Hasher{buf: GetBytesBuf()}
}

func (h *Hasher) Int(v int) {
	binary.LittleEndian.PutUint64(h.scratch[:], uint64(int64(v)))
	h.buf.Write(h.scratch[:])
}

func (h *Hasher) Floats(vs []float64) {
	for _, v := range vs {
		binary.LittleEndian.PutUint64(h.scratch[:], math.Float64bits(v))
		h.buf.Write(h.scratch[:])
	}
}

// Sum returns the digest and releases the buffer; the Hasher must not be used
// afterwards.
func (h *Hasher) Sum() [32]byte {
	sum := sha256.Sum256(h.buf.Bytes())
	PutBytesBuf(h.buf)
	h.buf = nil
	return sum
}
