// Package transport defines the session and stream primitives consumed by
// the bridging layer: a Session is an established secure multiplexed
// connection, and each Stream within it is one independent bidirectional
// byte flow, ordered and reliable per direction.
package transport

import (
	"context"
	"io"
	"net"
)

// Stream is one raw bidirectional stream within a Session. A Stream is
// exclusively consumed: once a bridge or channel takes ownership, nothing
// else may read or write it.
type Stream interface {
	io.Reader
	io.Writer

	// CloseWrite signals end-of-stream to the peer's reader. The read half
	// stays usable.
	CloseWrite() error

	// Close tears down both halves.
	Close() error
}

// Session is a handle to one secure multiplexed connection. Sessions are
// read-mostly after establishment and safe to share across concurrent
// callers opening streams.
type Session interface {
	// OpenStream opens a new outbound bidirectional stream.
	OpenStream(ctx context.Context) (Stream, error)

	// AcceptStream blocks until the peer opens a stream or ctx is done.
	AcceptStream(ctx context.Context) (Stream, error)

	LocalAddr() net.Addr
	RemoteAddr() net.Addr

	// Close tears down the session and all of its streams.
	Close() error
}

// Listener accepts inbound sessions.
type Listener interface {
	// Accept blocks until an inbound session is available or ctx is done.
	Accept(ctx context.Context) (Session, error)
	// Addr returns the local listening address.
	Addr() net.Addr
	// Close stops the listener and unblocks Accept.
	Close() error
}

// Dialer establishes outbound sessions.
type Dialer interface {
	Dial(ctx context.Context, address string) (Session, error)
}
