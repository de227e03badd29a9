// Package sdgram implements small checksummed datagrams over a byte stream
// that has no framing of its own, such as a serial link.
//
// # Wire Format
//
//	[0x57 0xA3][SIZE][PORT][CRC_L][CRC_H][PAYLOAD...][0x9B 0xC6]
//
// SIZE is the payload length (at most 56 bytes by default), PORT selects the
// receiving handler and CRC is CRC-16/USB over the whole datagram computed
// with the CRC field zeroed. The header and trailer magics let a receiver
// find datagram boundaries again after corruption or after joining a stream
// mid-message.
//
// # Usage
//
//	net := sdgram.New(transport)
//	net.Register(1, func(payload []byte) error {
//	    fmt.Printf("port 1: %x\n", payload)
//	    return nil
//	})
//
//	if err := net.Send(2, []byte{0x01, 0x02}); err != nil {
//	    return err
//	}
//
//	for {
//	    if err := net.Process(); err != nil {
//	        return err
//	    }
//	    time.Sleep(10 * time.Millisecond)
//	}
//
// Process never blocks: it drains whatever the transport has buffered,
// dispatches every complete datagram and returns. Corrupted, truncated or
// oversized datagrams are skipped and counted in Stats; they never stop
// processing. Only transport errors and handler errors are returned.
//
// A Net is not safe for concurrent use. Applications that share one between
// goroutines must serialize calls themselves.
package sdgram
