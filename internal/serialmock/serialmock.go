// Package serialmock provides an in-memory serial link for tests and demos.
package serialmock

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("serialmock: endpoint closed")

type channel struct {
	mu  sync.Mutex
	buf []byte
}

func (c *channel) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

func (c *channel) read(p []byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	return n
}

func (c *channel) write(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf = append(c.buf, p...)
}

// Endpoint is one end of a pair. What one end writes the other reads.
type Endpoint struct {
	r, w *channel

	mu         sync.Mutex
	writeLimit int
	writes     int
	closed     bool
}

// NewPair returns two connected endpoints.
func NewPair() (*Endpoint, *Endpoint) {
	ab, ba := &channel{}, &channel{}
	return &Endpoint{r: ba, w: ab}, &Endpoint{r: ab, w: ba}
}

// SetWriteLimit makes every Write accept at most k bytes. Zero removes the
// limit.
func (e *Endpoint) SetWriteLimit(k int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.writeLimit = k
}

// Writes returns the number of Write calls made so far.
func (e *Endpoint) Writes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writes
}

func (e *Endpoint) Available() (int, error) {
	if e.isClosed() {
		return 0, ErrClosed
	}
	return e.r.len(), nil
}

func (e *Endpoint) Read(p []byte) (int, error) {
	if e.isClosed() {
		return 0, ErrClosed
	}
	return e.r.read(p), nil
}

func (e *Endpoint) Write(p []byte) (int, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return 0, ErrClosed
	}
	e.writes++
	if e.writeLimit > 0 && len(p) > e.writeLimit {
		p = p[:e.writeLimit]
	}
	e.mu.Unlock()

	e.w.write(p)
	return len(p), nil
}

func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *Endpoint) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
