package sdgram

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"

	"github.com/seagrayinc/sdgram/internal/serialmock"
)

func TestStatsErrorsAndClear(t *testing.T) {
	s := Stats{
		SentMessages:     4,
		ChecksumErrors:   1,
		SizeErrors:       2,
		TrailerErrors:    3,
		NoReceiverErrors: 4,
		DroppedBytes:     9,
	}
	if s.Errors() != 10 {
		t.Fatalf("Errors() = %d, want 10", s.Errors())
	}

	s.Clear()
	if s != (Stats{}) {
		t.Fatalf("Clear left %+v", s)
	}
}

func TestClearStats(t *testing.T) {
	l := newTestLink(t)
	l.write(t, []byte{0xFF, 0xFF}, mustPrepare(t, 1, testPayload))
	l.process(t)

	if l.net.Stats().ReceivedMessages != 1 {
		t.Fatalf("unexpected stats: %+v", l.net.Stats())
	}
	l.net.ClearStats()
	if l.net.Stats() != (Stats{}) {
		t.Fatalf("ClearStats left %+v", l.net.Stats())
	}
}

func TestStatsSnapshot(t *testing.T) {
	l := newTestLink(t)
	before := l.net.Stats()

	l.write(t, mustPrepare(t, 1, testPayload))
	l.process(t)

	if before.ReceivedMessages != 0 {
		t.Fatalf("snapshot changed after Process: %+v", before)
	}
}

func TestNetPorts(t *testing.T) {
	local, _ := serialmock.NewPair()
	n := New(local)
	n.Register(9, func([]byte) error { return nil })
	n.Register(2, func([]byte) error { return nil })

	ports := n.Ports()
	if len(ports) != 2 || ports[0] != 2 || ports[1] != 9 {
		t.Fatalf("Ports() = %v", ports)
	}
}

func TestTraceLogging(t *testing.T) {
	var out bytes.Buffer
	logger := zerolog.New(&out).Level(zerolog.TraceLevel)

	l := newTestLink(t, WithLogger(logger))
	l.write(t, []byte{0x00}, mustPrepare(t, 1, testPayload))
	l.process(t)
	if err := l.net.Send(1, testPayload); err != nil {
		t.Fatalf("Send: %v", err)
	}

	for _, want := range []string{`"component":"sdgram-rcv"`, `"component":"sdgram-snd"`, `"dropped"`, `"datagram sent"`} {
		if !bytes.Contains(out.Bytes(), []byte(want)) {
			t.Fatalf("log output missing %s:\n%s", want, out.String())
		}
	}
}
