package sasl

import (
	"bytes"
	"testing"
	"time"
)

// memSocket is a minimal transport.Socket test double: Send appends to
// out, Receive reads from in.
type memSocket struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func (m *memSocket) Send(b []byte) error {
	m.out.Write(b)
	return nil
}
func (m *memSocket) Receive(b []byte) (int, error)        { return m.in.Read(b) }
func (m *memSocket) WaitForRead(time.Duration) error       { return nil }
func (m *memSocket) WaitForWrite(time.Duration) error      { return nil }
func (m *memSocket) Secure() bool                          { return false }
func (m *memSocket) Disconnect() error                     { return nil }

func TestSocket_PassthroughWhenNoSecurityLayer(t *testing.T) {
	inner := &memSocket{in: bytes.NewBufferString("decoded data"), out: &bytes.Buffer{}}
	mech := &Plain{Username: "u", Password: "p"}
	mech.Step(nil) // complete the mechanism before wrapping, as NewSocket requires

	s := NewSocket(inner, mech)
	if !s.Secure() {
		t.Fatal("wrapped socket should report Secure() == true")
	}

	if err := s.Send([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if inner.out.String() != "hello" {
		t.Fatalf("identity Encode should pass bytes through unchanged, got %q", inner.out.String())
	}

	buf := make([]byte, 32)
	n, err := s.Receive(buf)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:n]) != "decoded data" {
		t.Fatalf("identity Decode should pass bytes through unchanged, got %q", buf[:n])
	}
}
