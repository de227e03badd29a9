// Package metrics exports sdgram link counters to Prometheus.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/seagrayinc/sdgram/pkg/sdgram"
)

const namespace = "sdgram"

type counter struct {
	desc  *prometheus.Desc
	value func(sdgram.Stats) uint64
}

// Collector reports the last Stats passed to Observe. The counters reset when
// the link's stats are cleared, as Prometheus counters do on restart.
type Collector struct {
	counters []counter

	mu    sync.Mutex
	stats sdgram.Stats
}

// NewCollector returns a collector whose series carry the const label
// link=name.
func NewCollector(link string) *Collector {
	labels := prometheus.Labels{"link": link}
	def := func(name, help string, value func(sdgram.Stats) uint64) counter {
		return counter{
			desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, labels),
			value: value,
		}
	}

	return &Collector{counters: []counter{
		def("sent_messages_total", "Datagrams written in full.",
			func(s sdgram.Stats) uint64 { return s.SentMessages }),
		def("sent_bytes_total", "Bytes of datagrams written in full.",
			func(s sdgram.Stats) uint64 { return s.SentBytes }),
		def("incomplete_writes_total", "Write retries after short writes.",
			func(s sdgram.Stats) uint64 { return s.IncompleteWrites }),
		def("received_messages_total", "Valid datagrams received.",
			func(s sdgram.Stats) uint64 { return s.ReceivedMessages }),
		def("received_bytes_total", "Bytes of valid datagrams received.",
			func(s sdgram.Stats) uint64 { return s.ReceivedBytes }),
		def("dropped_bytes_total", "Received bytes discarded while searching for a datagram.",
			func(s sdgram.Stats) uint64 { return s.DroppedBytes }),
		def("checksum_errors_total", "Candidates rejected for a CRC mismatch.",
			func(s sdgram.Stats) uint64 { return s.ChecksumErrors }),
		def("size_errors_total", "Candidates rejected for a payload size above the maximum.",
			func(s sdgram.Stats) uint64 { return s.SizeErrors }),
		def("trailer_errors_total", "Candidates rejected for a bad trailer.",
			func(s sdgram.Stats) uint64 { return s.TrailerErrors }),
		def("no_receiver_errors_total", "Valid datagrams for a port without a handler.",
			func(s sdgram.Stats) uint64 { return s.NoReceiverErrors }),
	}}
}

// Observe records a stats snapshot.
func (c *Collector) Observe(s sdgram.Stats) {
	c.mu.Lock()
	c.stats = s
	c.mu.Unlock()
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.counters {
		ch <- m.desc
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	s := c.stats
	c.mu.Unlock()

	for _, m := range c.counters {
		ch <- prometheus.MustNewConstMetric(m.desc, prometheus.CounterValue, float64(m.value(s)))
	}
}
