package sdgram

import (
	"bytes"
	"errors"

	"github.com/rs/zerolog"

	"github.com/seagrayinc/sdgram/internal/frame"
)

type rcvState int

const (
	stateSearchSync rcvState = iota
	stateAwaitHeader
	stateAwaitBody
)

func (s rcvState) String() string {
	switch s {
	case stateSearchSync:
		return "search_sync"
	case stateAwaitHeader:
		return "await_header"
	case stateAwaitBody:
		return "await_body"
	default:
		return "unknown"
	}
}

// receiver extracts datagrams from the byte stream of a Transport.
type receiver struct {
	t          Transport
	registry   *Registry
	stats      *Stats
	log        zerolog.Logger
	maxPayload int
	readChunk  int

	state    rcvState
	buf      rcvBuffer
	hdr      frame.Header
	frameLen int
}

// process reads everything the transport has and steps the state machine
// until the buffered bytes allow no further progress. A transport error is
// returned only after the bytes read before it have been framed.
func (r *receiver) process() error {
	var readErr error
	for {
		if readErr == nil {
			readErr = r.fill()
		}
		r.logBuffer()

		progressed, err := r.step()
		if err != nil {
			return err
		}
		if !progressed {
			return readErr
		}
	}
}

func (r *receiver) fill() error {
	for {
		n, err := r.t.Available()
		if err != nil {
			return err
		}
		if n <= 0 {
			return nil
		}
		if n > r.readChunk {
			n = r.readChunk
		}

		read, err := r.t.Read(r.buf.reserve(n))
		r.buf.commit(read)
		if err != nil {
			return err
		}
		if read == 0 {
			return nil
		}
		r.log.Trace().Int("bytes", read).Msg("read")
	}
}

// step performs one transition and reports whether it made progress.
func (r *receiver) step() (bool, error) {
	switch r.state {
	case stateSearchSync:
		return r.searchSync(), nil
	case stateAwaitHeader:
		return r.awaitHeader(), nil
	case stateAwaitBody:
		return r.awaitBody()
	default:
		panic("sdgram: invalid receiver state " + r.state.String())
	}
}

func (r *receiver) searchSync() bool {
	data := r.buf.Bytes()

	if idx := bytes.Index(data, frame.HeaderMagicBytes()); idx >= 0 {
		if idx > 0 {
			r.drop(idx)
		}
		r.log.Trace().Msg("found header magic")
		r.state = stateAwaitHeader
		return true
	}

	// The last MagicLen-1 bytes may be the start of a magic that is still
	// arriving; everything before them cannot be.
	if keep := frame.MagicLen - 1; len(data) > keep {
		r.drop(len(data) - keep)
	}
	return false
}

func (r *receiver) awaitHeader() bool {
	if r.buf.Len() < frame.HeaderLen {
		r.log.Trace().Int("buffered", r.buf.Len()).Msg("not enough bytes for header")
		return false
	}

	hdr, err := frame.DecodeHeader(r.buf.Bytes())
	if err != nil {
		return false
	}
	if int(hdr.Size) > r.maxPayload {
		r.log.Debug().Uint8("size", hdr.Size).Int("max", r.maxPayload).Msg("declared size too large")
		r.stats.SizeErrors++
		r.resync()
		return true
	}

	r.hdr = hdr
	r.frameLen = frame.Len(int(hdr.Size))
	r.state = stateAwaitBody
	return true
}

func (r *receiver) awaitBody() (bool, error) {
	if r.buf.Len() < r.frameLen {
		r.log.Trace().Int("want", r.frameLen).Int("buffered", r.buf.Len()).Msg("incomplete datagram")
		return false, nil
	}

	_, payload, err := frame.Decode(r.buf.Bytes()[:r.frameLen], r.maxPayload)
	switch {
	case errors.Is(err, frame.ErrTrailerMismatch):
		r.log.Debug().Uint8("port", r.hdr.Port).Msg("trailer mismatch")
		r.stats.TrailerErrors++
		r.resync()
		return true, nil
	case errors.Is(err, frame.ErrChecksumMismatch):
		r.log.Debug().Uint8("port", r.hdr.Port).Uint16("crc", r.hdr.CRC).Msg("checksum mismatch")
		r.stats.ChecksumErrors++
		r.resync()
		return true, nil
	case err != nil:
		// header was validated in awaitHeader; treat anything else as noise
		r.resync()
		return true, nil
	}

	r.stats.ReceivedMessages++
	r.stats.ReceivedBytes += uint64(r.frameLen)

	handled, herr := r.registry.Dispatch(r.hdr.Port, payload)
	if !handled {
		r.log.Debug().Uint8("port", r.hdr.Port).Msg("no receiver for port")
		r.stats.NoReceiverErrors++
	}

	r.buf.Consume(r.frameLen)
	r.state = stateSearchSync
	return true, herr
}

// resync skips the header magic of a rejected candidate so the next search
// can find a datagram that starts inside it.
func (r *receiver) resync() {
	r.drop(frame.MagicLen)
	r.state = stateSearchSync
}

func (r *receiver) drop(n int) {
	r.buf.Consume(n)
	r.stats.DroppedBytes += uint64(n)
	r.log.Trace().Int("bytes", n).Msg("dropped")
}

func (r *receiver) logBuffer() {
	if e := r.log.Trace(); e.Enabled() {
		e.Str("state", r.state.String()).Str("buf", frame.Hex(r.buf.Bytes())).Msg("receive buffer")
	}
}
