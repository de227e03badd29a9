package sdgram

// Stats counts send and receive activity of a Net. Counters only grow until
// Clear is called.
//
// SentMessages and SentBytes count datagrams that were written in full. A
// send that fails with a transport error is not counted, even if part of the
// datagram reached the wire; its retries still show in IncompleteWrites.
type Stats struct {
	SentMessages     uint64
	SentBytes        uint64
	IncompleteWrites uint64 // write retries caused by short writes

	ReceivedMessages uint64
	ReceivedBytes    uint64 // whole datagrams, header and trailer included
	DroppedBytes     uint64

	ChecksumErrors   uint64
	SizeErrors       uint64
	TrailerErrors    uint64
	NoReceiverErrors uint64
}

// Clear resets every counter to zero.
func (s *Stats) Clear() {
	*s = Stats{}
}

// Errors returns the total number of receive errors of all categories.
func (s Stats) Errors() uint64 {
	return s.ChecksumErrors + s.SizeErrors + s.TrailerErrors + s.NoReceiverErrors
}
