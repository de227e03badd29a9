package sdgram

import (
	"github.com/rs/zerolog"

	"github.com/seagrayinc/sdgram/internal/frame"
)

type sender struct {
	t          Transport
	stats      *Stats
	log        zerolog.Logger
	maxPayload int
}

// prepare builds the datagram for payload without writing it.
func (s *sender) prepare(port uint8, payload []byte) ([]byte, error) {
	if len(payload) > s.maxPayload {
		return nil, &PayloadSizeError{Port: port, Size: len(payload), Max: s.maxPayload}
	}
	return frame.Encode(port, payload)
}

func (s *sender) send(port uint8, payload []byte) error {
	datagram, err := s.prepare(port, payload)
	if err != nil {
		return err
	}
	return s.sendDatagram(datagram)
}

// sendDatagram writes datagram in full, retrying after short writes.
func (s *sender) sendDatagram(datagram []byte) error {
	written, err := s.t.Write(datagram)
	if err != nil {
		return err
	}

	for written < len(datagram) {
		n, err := s.t.Write(datagram[written:])
		s.stats.IncompleteWrites++
		written += n
		if err != nil {
			return err
		}
		s.log.Trace().Int("written", written).Int("total", len(datagram)).Msg("datagram partially sent")
	}

	s.stats.SentMessages++
	s.stats.SentBytes += uint64(len(datagram))
	s.log.Trace().Hex("datagram", datagram).Msg("datagram sent")
	return nil
}
