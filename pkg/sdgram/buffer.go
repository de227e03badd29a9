package sdgram

// rcvBuffer holds received bytes that are not yet part of a dispatched or
// discarded datagram. Bytes are appended at the tail and consumed from the
// head; consuming only moves an index.
type rcvBuffer struct {
	buf  []byte
	head int
}

func (b *rcvBuffer) Len() int {
	return len(b.buf) - b.head
}

// Bytes returns the unconsumed bytes. The slice is valid until the next
// reserve call.
func (b *rcvBuffer) Bytes() []byte {
	return b.buf[b.head:]
}

func (b *rcvBuffer) Consume(n int) {
	b.head += n
	if b.head >= len(b.buf) {
		b.buf = b.buf[:0]
		b.head = 0
	}
}

// reserve returns n writable bytes past the tail. Call commit with the number
// actually filled.
func (b *rcvBuffer) reserve(n int) []byte {
	if cap(b.buf)-len(b.buf) < n {
		b.compact()
	}
	if cap(b.buf)-len(b.buf) < n {
		grown := make([]byte, len(b.buf), 2*cap(b.buf)+n)
		copy(grown, b.buf)
		b.buf = grown
	}
	return b.buf[len(b.buf) : len(b.buf)+n]
}

func (b *rcvBuffer) commit(n int) {
	b.buf = b.buf[:len(b.buf)+n]
}

// compact moves the unconsumed bytes to the start of the backing array.
func (b *rcvBuffer) compact() {
	if b.head == 0 {
		return
	}
	n := copy(b.buf, b.buf[b.head:])
	b.buf = b.buf[:n]
	b.head = 0
}
