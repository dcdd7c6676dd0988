// Package session wraps a transport.Session with stream identity allocation
// and the small preamble exchange that lets both peers agree on which
// logical sub-channel a raw stream carries.
package session

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Masterchef365/web-transport-test/pkg/transport"
)

// preambleSize is the 8-byte little-endian stream identity the opener sends
// before any frames.
const preambleSize = 8

// Session owns one transport.Session and allocates identities for the
// sub-channels opened through it. Safe for concurrent use.
type Session struct {
	raw transport.Session
	ids transport.IDAllocator
	log *zap.Logger
}

// Wrap takes ownership of raw.
func Wrap(raw transport.Session) *Session {
	return &Session{raw: raw, log: zap.L().Named("session")}
}

// Open allocates a fresh identity, opens a raw stream and announces the
// identity to the peer.
func (s *Session) Open(ctx context.Context) (transport.StreamID, transport.Stream, error) {
	id := s.ids.Next()
	st, err := s.Connect(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	return id, st, nil
}

// Connect opens a raw stream for an identity the caller already holds,
// typically one allocated by the peer and delivered through an RPC reply.
func (s *Session) Connect(ctx context.Context, id transport.StreamID) (transport.Stream, error) {
	st, err := s.raw.OpenStream(ctx)
	if err != nil {
		return nil, fmt.Errorf("open stream %d: %w", id, err)
	}
	var buf [preambleSize]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(id))
	if _, err := st.Write(buf[:]); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("write stream preamble: %w", err)
	}
	s.log.Debug("opened stream", zap.Uint64("id", uint64(id)))
	return st, nil
}

// Accept waits for the next inbound stream and reads its identity preamble.
func (s *Session) Accept(ctx context.Context) (transport.StreamID, transport.Stream, error) {
	st, err := s.raw.AcceptStream(ctx)
	if err != nil {
		return 0, nil, err
	}
	var buf [preambleSize]byte
	if _, err := io.ReadFull(st, buf[:]); err != nil {
		_ = st.Close()
		return 0, nil, fmt.Errorf("read stream preamble: %w", err)
	}
	id := transport.StreamID(binary.LittleEndian.Uint64(buf[:]))
	s.log.Debug("accepted stream", zap.Uint64("id", uint64(id)))
	return id, st, nil
}

// Allocate reserves an identity without opening a stream, for handing to a
// peer that will Connect with it later.
func (s *Session) Allocate() transport.StreamID { return s.ids.Next() }

// Close tears down the underlying session and all of its streams.
func (s *Session) Close() error { return s.raw.Close() }
