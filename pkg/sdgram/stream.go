package sdgram

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

const (
	streamReadSize = 512

	minEmptyReadWait = time.Millisecond
	maxEmptyReadWait = 50 * time.Millisecond
)

// StreamTransport turns a blocking io.ReadWriteCloser, such as an open serial
// port, into a Transport. A background goroutine reads from the device into a
// buffer; Available and Read only look at that buffer. The first read error
// is reported once the buffered bytes are drained.
type StreamTransport struct {
	rwc io.ReadWriteCloser

	mu  sync.Mutex
	buf bytes.Buffer
	err error

	done      chan struct{}
	closing   chan struct{}
	closeOnce sync.Once
}

func NewStreamTransport(rwc io.ReadWriteCloser) *StreamTransport {
	t := &StreamTransport{
		rwc:     rwc,
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}
	go t.readLoop()
	return t
}

func (t *StreamTransport) readLoop() {
	defer close(t.done)

	p := make([]byte, streamReadSize)
	idle := time.Duration(0)
	for {
		n, err := t.rwc.Read(p)

		t.mu.Lock()
		t.buf.Write(p[:n])
		if err != nil && t.err == nil {
			t.err = err
		}
		t.mu.Unlock()

		if err != nil {
			return
		}

		// Some devices return (0, nil) when nothing arrived in time.
		if n > 0 {
			idle = 0
			continue
		}
		idle = min(max(2*idle, minEmptyReadWait), maxEmptyReadWait)
		select {
		case <-t.closing:
			return
		case <-time.After(idle):
		}
	}
}

func (t *StreamTransport) Available() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.buf.Len() > 0 {
		return t.buf.Len(), nil
	}
	return 0, t.err
}

func (t *StreamTransport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.buf.Len() == 0 {
		return 0, t.err
	}
	return t.buf.Read(p)
}

func (t *StreamTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	err := t.err
	t.mu.Unlock()
	if errors.Is(err, ErrClosed) {
		return 0, err
	}
	return t.rwc.Write(p)
}

// Done is closed once the read loop has stopped.
func (t *StreamTransport) Done() <-chan struct{} {
	return t.done
}

// Close closes the underlying device. Buffered bytes stay readable; after
// them Read reports ErrClosed.
func (t *StreamTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.mu.Lock()
		if t.err == nil {
			t.err = ErrClosed
		}
		t.mu.Unlock()
		close(t.closing)
		err = t.rwc.Close()
	})
	return err
}
