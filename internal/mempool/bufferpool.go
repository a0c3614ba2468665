package mempool

import (
	"bytes"
	"sync"
)

// A simple pool for byte buffers used on encode hot paths (PNG snapshots
// handed to the OCR engine, report thumbnails) to reduce allocations when
// many cards are processed concurrently.

var bufferPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// maxRetainedBytes caps the capacity of buffers returned to the pool.
// Oversized buffers are dropped so one huge sheet does not pin memory.
const maxRetainedBytes = 8 << 20

// GetBuffer retrieves an empty buffer from the pool.
// The caller must return it via PutBuffer when done.
func GetBuffer() *bytes.Buffer {
	buf, ok := bufferPool.Get().(*bytes.Buffer)
	if !ok {
		// Fallback
		return new(bytes.Buffer)
	}
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool. It is safe to pass nil.
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxRetainedBytes {
		return
	}
	bufferPool.Put(buf)
}
