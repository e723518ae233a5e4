package coap

import "github.com/hwipl/thread-core/internal/corerr"

// Handler processes a decoded request for one Uri-Path and optionally
// returns a response to send back to sender.
type Handler func(req *Message, senderRloc16 uint16) (resp *Message, send bool)

// Server dispatches decoded messages to the handler registered for
// their Uri-Path, mirroring the original's per-resource AddResource
// registration (spec.md §4.6/§4.7 each register one URI).
type Server struct {
	resources map[string]Handler
}

// NewServer returns an empty dispatch table.
func NewServer() *Server {
	return &Server{resources: make(map[string]Handler)}
}

// AddResource registers handler for uriPath, replacing any existing
// registration.
func (s *Server) AddResource(uriPath string, handler Handler) {
	s.resources[uriPath] = handler
}

// Dispatch decodes data and invokes the handler registered for its
// Uri-Path. It returns corerr.NotFound if no resource matches, which
// callers should treat as "silently ignore" per spec.md §4.6/§4.7.
func (s *Server) Dispatch(data []byte, senderRloc16 uint16) (resp *Message, send bool, kind corerr.Kind) {
	req, kind := Decode(data)
	if kind.Fail() {
		return nil, false, kind
	}

	h, ok := s.resources[req.UriPath()]
	if !ok {
		return nil, false, corerr.NotFound
	}

	resp, send = h(req, senderRloc16)
	return resp, send, corerr.None
}
