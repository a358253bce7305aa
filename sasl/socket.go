package sasl

import (
	"time"

	"vmime.dev/vmime/transport"
)

// Socket wraps a transport.Socket so that, after a Mechanism completes
// negotiation, every read and write is funneled through its
// Decode/Encode (spec.md §4.10). Mechanisms that negotiated no security
// layer make Encode/Decode identity, so Socket is then a pass-through,
// exactly as spec.md describes.
type Socket struct {
	transport.Socket
	mech Mechanism
}

// NewSocket wraps inner so traffic passes through mech's security
// layer. mech must already be IsComplete().
func NewSocket(inner transport.Socket, mech Mechanism) *Socket {
	return &Socket{Socket: inner, mech: mech}
}

func (s *Socket) Send(b []byte) error {
	encoded, err := s.mech.Encode(b)
	if err != nil {
		return err
	}
	return s.Socket.Send(encoded)
}

func (s *Socket) Receive(b []byte) (int, error) {
	n, err := s.Socket.Receive(b)
	if err != nil {
		return n, err
	}
	decoded, err := s.mech.Decode(b[:n])
	if err != nil {
		return 0, err
	}
	copy(b, decoded)
	return len(decoded), nil
}

func (s *Socket) WaitForRead(timeout time.Duration) error  { return s.Socket.WaitForRead(timeout) }
func (s *Socket) WaitForWrite(timeout time.Duration) error { return s.Socket.WaitForWrite(timeout) }
func (s *Socket) Secure() bool                             { return true }
func (s *Socket) Disconnect() error                        { return s.Socket.Disconnect() }
