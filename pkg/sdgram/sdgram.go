package sdgram

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/seagrayinc/sdgram/internal/frame"
)

const (
	DefaultMaxPayloadSize = frame.DefaultMaxPayloadSize
	DefaultReadChunk      = 256
)

type options struct {
	maxPayload int
	readChunk  int
	logger     zerolog.Logger
}

// Option configures a Net.
type Option func(*options)

// WithMaxPayloadSize sets the largest payload sent or accepted, 1..255.
// Out of range values are ignored. Both ends of a link must agree on it.
func WithMaxPayloadSize(n int) Option {
	return func(o *options) {
		if n > 0 && n <= frame.MaxPayloadSize {
			o.maxPayload = n
		}
	}
}

// WithReadChunk bounds how many bytes a single transport read may return.
func WithReadChunk(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readChunk = n
		}
	}
}

// WithLogger sets the logger for receive and send diagnostics. Framing
// errors are logged at debug level, buffer dumps at trace level.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Net exchanges datagrams over a Transport.
type Net struct {
	registry *Registry
	stats    Stats
	maxSize  int

	rcv receiver
	snd sender
}

func New(t Transport, opts ...Option) *Net {
	o := options{
		maxPayload: DefaultMaxPayloadSize,
		readChunk:  DefaultReadChunk,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	n := &Net{
		registry: NewRegistry(),
		maxSize:  o.maxPayload,
	}
	n.rcv = receiver{
		t:          t,
		registry:   n.registry,
		stats:      &n.stats,
		log:        o.logger.With().Str("component", "sdgram-rcv").Logger(),
		maxPayload: o.maxPayload,
		readChunk:  o.readChunk,
	}
	n.snd = sender{
		t:          t,
		stats:      &n.stats,
		log:        o.logger.With().Str("component", "sdgram-snd").Logger(),
		maxPayload: o.maxPayload,
	}
	return n
}

// Register installs h as the receiver for port. A later registration for the
// same port replaces the earlier one.
func (n *Net) Register(port uint8, h Handler) {
	n.registry.Register(port, h)
}

// Ports returns the ports that have a registered handler.
func (n *Net) Ports() []uint8 {
	return n.registry.Ports()
}

// Send frames payload for port and writes it, blocking until the transport
// accepted every byte.
func (n *Net) Send(port uint8, payload []byte) error {
	return n.snd.send(port, payload)
}

// SendValue encodes v little-endian with encoding/binary and sends it. v must
// be a fixed-size value or a pointer to one.
func (n *Net) SendValue(port uint8, v any) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("sdgram: encode value: %w", err)
	}
	return n.snd.send(port, buf.Bytes())
}

// Prepare returns the datagram Send would write for payload.
func (n *Net) Prepare(port uint8, payload []byte) ([]byte, error) {
	return n.snd.prepare(port, payload)
}

// SendDatagram writes a datagram built by Prepare.
func (n *Net) SendDatagram(datagram []byte) error {
	return n.snd.sendDatagram(datagram)
}

// Process consumes all bytes currently available from the transport and
// dispatches every complete datagram among them. It does not block. The
// returned error is either the transport's or a handler's, unmodified.
func (n *Net) Process() error {
	return n.rcv.process()
}

// Stats returns a snapshot of the counters.
func (n *Net) Stats() Stats {
	return n.stats
}

func (n *Net) ClearStats() {
	n.stats.Clear()
}

func (n *Net) MaxPayloadSize() int {
	return n.maxSize
}
