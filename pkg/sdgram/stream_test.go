package sdgram

import (
	"bytes"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"
)

func waitAvailable(t *testing.T, st *StreamTransport, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if avail, _ := st.Available(); avail >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d bytes", n)
}

func TestStreamTransportReceive(t *testing.T) {
	device, remote := net.Pipe()
	st := NewStreamTransport(device)
	defer st.Close()

	n := New(st)
	var got []byte
	n.Register(1, func(payload []byte) error {
		got = append([]byte(nil), payload...)
		return nil
	})

	packet := mustPrepare(t, 1, testPayload)
	go func() { _, _ = remote.Write(packet) }()

	waitAvailable(t, st, len(packet))
	if err := n.Process(); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !bytes.Equal(got, testPayload) {
		t.Fatalf("payload %v", got)
	}
}

func TestStreamTransportSend(t *testing.T) {
	device, remote := net.Pipe()
	st := NewStreamTransport(device)
	defer st.Close()

	want := mustPrepare(t, 2, testPayload)
	received := make(chan []byte, 1)
	go func() {
		p := make([]byte, 64)
		n, _ := io.ReadAtLeast(remote, p, len(want))
		received <- p[:n]
	}()

	n := New(st)
	if err := n.Send(2, testPayload); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-received:
		if !bytes.Equal(got, want) {
			t.Fatalf("remote got % x", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for datagram")
	}
}

func TestStreamTransportReadErrorAfterDrain(t *testing.T) {
	device, remote := net.Pipe()
	st := NewStreamTransport(device)
	defer st.Close()

	go func() {
		_, _ = remote.Write([]byte{1, 2, 3})
		_ = remote.Close()
	}()

	select {
	case <-st.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("read loop did not stop")
	}

	if avail, err := st.Available(); avail != 3 || err != nil {
		t.Fatalf("Available() = %d, %v", avail, err)
	}
	p := make([]byte, 8)
	if n, err := st.Read(p); n != 3 || err != nil {
		t.Fatalf("Read() = %d, %v", n, err)
	}
	if _, err := st.Available(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after drain, got %v", err)
	}
	if _, err := st.Read(p); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after drain, got %v", err)
	}
}

func TestStreamTransportClose(t *testing.T) {
	device, remote := net.Pipe()
	defer remote.Close()
	st := NewStreamTransport(device)

	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	select {
	case <-st.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("read loop did not stop")
	}

	if _, err := st.Available(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Available after Close: %v", err)
	}
	if _, err := st.Write([]byte{1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Write after Close: %v", err)
	}
	if err := New(st).Process(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Process after Close: %v", err)
	}
}

func TestStreamTransportDatagramBeforeEOF(t *testing.T) {
	device, remote := net.Pipe()
	st := NewStreamTransport(device)
	defer st.Close()

	n := New(st)
	rcv := &recorder{}
	n.Register(1, rcv.handle)

	packet := mustPrepare(t, 1, testPayload)
	go func() {
		_, _ = remote.Write(packet)
		_ = remote.Close()
	}()

	select {
	case <-st.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("read loop did not stop")
	}

	if err := n.Process(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if rcv.count() != 1 || !bytes.Equal(rcv.payloads[0], testPayload) {
		t.Fatalf("dispatched %d: %v", rcv.count(), rcv.payloads)
	}

	if err := n.Process(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	stats := n.Stats()
	if rcv.count() != 1 || stats.ReceivedMessages != 1 || stats.ReceivedBytes != uint64(len(packet)) {
		t.Fatalf("dispatched %d, stats %+v", rcv.count(), stats)
	}
}

// idleDevice returns (0, nil) from Read until closed.
type idleDevice struct {
	mu     sync.Mutex
	reads  int
	closed bool
}

func (d *idleDevice) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, io.EOF
	}
	d.reads++
	return 0, nil
}

func (d *idleDevice) Write(p []byte) (int, error) { return len(p), nil }

func (d *idleDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *idleDevice) readCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads
}

func TestStreamTransportEmptyReadsWait(t *testing.T) {
	dev := &idleDevice{}
	st := NewStreamTransport(dev)

	time.Sleep(100 * time.Millisecond)
	if reads := dev.readCount(); reads > 50 {
		t.Fatalf("%d reads of an idle device in 100ms", reads)
	}
	if avail, err := st.Available(); avail != 0 || err != nil {
		t.Fatalf("Available() = %d, %v", avail, err)
	}

	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-st.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("read loop did not stop")
	}
}
