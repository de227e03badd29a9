package sdgram

import "sort"

// Handler receives the payload of a validated datagram. The payload slice is
// only valid until the handler returns; handlers that keep the data must copy
// it. A non-nil error is returned from Net.Process as is.
type Handler func(payload []byte) error

// Registry maps ports to handlers.
type Registry struct {
	handlers map[uint8]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[uint8]Handler)}
}

// Register installs h for port, replacing any previous handler.
func (r *Registry) Register(port uint8, h Handler) {
	if h == nil {
		panic("sdgram: nil handler")
	}
	r.handlers[port] = h
}

// Dispatch calls the handler registered for port. handled is false when no
// handler is registered.
func (r *Registry) Dispatch(port uint8, payload []byte) (handled bool, err error) {
	h, ok := r.handlers[port]
	if !ok {
		return false, nil
	}
	return true, h(payload)
}

// Ports returns the registered ports in ascending order.
func (r *Registry) Ports() []uint8 {
	ports := make([]uint8, 0, len(r.handlers))
	for p := range r.handlers {
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports
}
