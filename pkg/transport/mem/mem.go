// Package mem provides an in-process transport.Session pair. Useful in
// tests and wherever both endpoints live in one process.
package mem

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/Masterchef365/web-transport-test/pkg/transport"
)

var errSessionClosed = errors.New("mem: session closed")

// NewSessionPair returns two connected sessions. A stream opened on one side
// pops out of AcceptStream on the other.
func NewSessionPair() (transport.Session, transport.Session) {
	a := &session{inbox: make(chan transport.Stream, 8), closed: make(chan struct{})}
	b := &session{inbox: make(chan transport.Stream, 8), closed: make(chan struct{})}
	a.peer, b.peer = b, a
	return a, b
}

type session struct {
	peer   *session
	inbox  chan transport.Stream
	closed chan struct{}
	once   sync.Once
}

func (s *session) OpenStream(ctx context.Context) (transport.Stream, error) {
	select {
	case <-s.closed:
		return nil, errSessionClosed
	case <-s.peer.closed:
		return nil, errSessionClosed
	default:
	}
	local, remote := newStreamPair()
	select {
	case s.peer.inbox <- remote:
		return local, nil
	case <-s.closed:
		return nil, errSessionClosed
	case <-s.peer.closed:
		return nil, errSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *session) AcceptStream(ctx context.Context) (transport.Stream, error) {
	select {
	case st := <-s.inbox:
		return st, nil
	case <-s.closed:
		return nil, errSessionClosed
	case <-s.peer.closed:
		return nil, errSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *session) LocalAddr() net.Addr  { return memAddr("local") }
func (s *session) RemoteAddr() net.Addr { return memAddr("remote") }

func (s *session) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type memAddr string

func (a memAddr) Network() string { return "mem" }
func (a memAddr) String() string  { return string(a) }

// newStreamPair builds two connected streams with independent half-close per
// direction, one io.Pipe per flow.
func newStreamPair() (transport.Stream, transport.Stream) {
	ar, aw := io.Pipe()
	br, bw := io.Pipe()
	return &stream{r: ar, w: bw}, &stream{r: br, w: aw}
}

type stream struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (st *stream) Read(p []byte) (int, error)  { return st.r.Read(p) }
func (st *stream) Write(p []byte) (int, error) { return st.w.Write(p) }

func (st *stream) CloseWrite() error { return st.w.Close() }

func (st *stream) Close() error {
	_ = st.w.Close()
	return st.r.Close()
}
