package pool

import "bytes"

// Message bodies for typical chunk sizes land in the tens of kilobytes;
// 4KB starting capacity keeps small dictionary bodies allocation-free
// while letting large bodies grow once and stay grown.
const defaultBufferSize = 4096

var bufferPool = New(
	func() *bytes.Buffer {
		return bytes.NewBuffer(make([]byte, 0, defaultBufferSize))
	},
	func(b *bytes.Buffer) {
		b.Reset()
	},
)

// GetBuffer gets a pooled bytes.Buffer, reset and ready for use.
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get()
}

// PutBuffer returns a buffer to the pool.
func PutBuffer(b *bytes.Buffer) {
	if b == nil {
		return
	}
	bufferPool.Put(b)
}
