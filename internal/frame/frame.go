// Package frame defines the sdgram wire layout:
//
//	[MAGIC 2][SIZE 1][PORT 1][CRC 2][PAYLOAD SIZE][TRAILER 2]
//
// MAGIC, CRC and TRAILER are little-endian. CRC is CRC-16/USB over the whole
// datagram with the CRC field zeroed.
package frame

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/sigurn/crc16"
)

const (
	HeaderMagic  uint16 = 0xA357
	TrailerMagic uint16 = 0xC69B

	MagicLen   = 2
	HeaderLen  = 6
	TrailerLen = 2
	Overhead   = HeaderLen + TrailerLen

	// DefaultMaxPayloadSize is the payload bound both ends agree on unless
	// configured otherwise.
	DefaultMaxPayloadSize = 56

	// MaxPayloadSize is the largest payload the 8-bit size field can describe.
	MaxPayloadSize = 0xFF

	sizeOffset = 2
	portOffset = 3
	crcOffset  = 4
)

var (
	ErrShortFrame       = errors.New("frame: short datagram")
	ErrBadMagic         = errors.New("frame: header magic mismatch")
	ErrPayloadTooLarge  = errors.New("frame: payload too large")
	ErrTrailerMismatch  = errors.New("frame: trailer magic mismatch")
	ErrChecksumMismatch = errors.New("frame: checksum mismatch")
)

var (
	crcTable = crc16.MakeTable(crc16.CRC16_USB)

	headerMagic  = [MagicLen]byte{byte(HeaderMagic & 0xFF), byte(HeaderMagic >> 8)}
	trailerMagic = [MagicLen]byte{byte(TrailerMagic & 0xFF), byte(TrailerMagic >> 8)}
	zeroCRC      = []byte{0, 0}
)

// Header is the fixed datagram header.
type Header struct {
	Magic uint16
	Size  uint8
	Port  uint8
	CRC   uint16
}

// Len returns the on-wire length of a datagram carrying size payload bytes.
func Len(size int) int {
	return HeaderLen + size + TrailerLen
}

// HeaderMagicBytes returns the header sentinel as it appears on the wire.
func HeaderMagicBytes() []byte {
	b := headerMagic
	return b[:]
}

// TrailerMagicBytes returns the trailer sentinel as it appears on the wire.
func TrailerMagicBytes() []byte {
	b := trailerMagic
	return b[:]
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderLen)
	putHeader(buf, h)
	return buf
}

func putHeader(buf []byte, h Header) {
	binary.LittleEndian.PutUint16(buf[0:2], h.Magic)
	buf[sizeOffset] = h.Size
	buf[portOffset] = h.Port
	binary.LittleEndian.PutUint16(buf[crcOffset:crcOffset+2], h.CRC)
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, have %d", ErrShortFrame, HeaderLen, len(b))
	}
	return Header{
		Magic: binary.LittleEndian.Uint16(b[0:2]),
		Size:  b[sizeOffset],
		Port:  b[portOffset],
		CRC:   binary.LittleEndian.Uint16(b[crcOffset : crcOffset+2]),
	}, nil
}

// Encode builds a complete datagram for port carrying payload.
func Encode(port uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	out := make([]byte, Len(len(payload)))
	putHeader(out, Header{
		Magic: HeaderMagic,
		Size:  uint8(len(payload)),
		Port:  port,
	})
	copy(out[HeaderLen:], payload)
	binary.LittleEndian.PutUint16(out[HeaderLen+len(payload):], TrailerMagic)

	// crc field is still zero here
	binary.LittleEndian.PutUint16(out[crcOffset:crcOffset+2], Checksum(out))
	return out, nil
}

// Checksum computes CRC-16/USB over b.
func Checksum(b []byte) uint16 {
	return crc16.Checksum(b, crcTable)
}

// DatagramChecksum computes the checksum of datagram as if its header CRC
// field were zero. datagram is not modified. Input shorter than a header is
// checksummed with whatever part of the CRC field it holds zeroed.
func DatagramChecksum(datagram []byte) uint16 {
	crc := crc16.Init(crcTable)
	crc = crc16.Update(crc, datagram[:min(len(datagram), crcOffset)], crcTable)
	if len(datagram) > crcOffset {
		crc = crc16.Update(crc, zeroCRC[:min(len(datagram), HeaderLen)-crcOffset], crcTable)
	}
	if len(datagram) > HeaderLen {
		crc = crc16.Update(crc, datagram[HeaderLen:], crcTable)
	}
	return crc16.Complete(crc, crcTable)
}

// HasTrailer reports whether datagram, a complete candidate of size payload
// bytes, ends in the trailer magic. It is false when datagram is too short to
// hold the trailer.
func HasTrailer(datagram []byte, size int) bool {
	off := HeaderLen + size
	if size < 0 || len(datagram) < off+TrailerLen {
		return false
	}
	return datagram[off] == trailerMagic[0] && datagram[off+1] == trailerMagic[1]
}

// Decode validates the datagram at the head of b and returns its header and
// payload. The payload aliases b. Bytes after the datagram are ignored.
func Decode(b []byte, maxPayload int) (Header, []byte, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return Header{}, nil, err
	}
	if h.Magic != HeaderMagic {
		return h, nil, ErrBadMagic
	}
	size := int(h.Size)
	if size > maxPayload {
		return h, nil, fmt.Errorf("%w: declared %d, max %d", ErrPayloadTooLarge, size, maxPayload)
	}
	total := Len(size)
	if len(b) < total {
		return h, nil, fmt.Errorf("%w: datagram needs %d bytes, have %d", ErrShortFrame, total, len(b))
	}
	datagram := b[:total]
	if !HasTrailer(datagram, size) {
		return h, nil, ErrTrailerMismatch
	}
	if DatagramChecksum(datagram) != h.CRC {
		return h, nil, ErrChecksumMismatch
	}
	return h, datagram[HeaderLen : HeaderLen+size], nil
}

// Hex renders b as dash separated hex pairs, e.g. "57-a3-06".
func Hex(b []byte) string {
	hexDigits := hex.EncodeToString(b)
	var builder strings.Builder
	builder.Grow(len(hexDigits) + len(b))
	for i, r := range hexDigits {
		if i > 0 && i%2 == 0 {
			builder.WriteByte('-')
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
