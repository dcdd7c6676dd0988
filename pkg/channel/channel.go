// Package channel adapts a raw bidirectional stream into a typed message
// channel for an RPC dispatcher: length-delimited frames on the wire, codec
// encoded values at the API, and one tagged error surface for everything
// that can go wrong underneath.
package channel

import (
	"errors"
	"io"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/Masterchef365/web-transport-test/pkg/bridge"
	"github.com/Masterchef365/web-transport-test/pkg/protocol"
	"github.com/Masterchef365/web-transport-test/pkg/protocol/codec"
	"github.com/Masterchef365/web-transport-test/pkg/transport"
)

// Channel is a typed bidirectional channel over one bridged stream. Tx is
// the outbound message type, Rx the inbound one. A Channel is open until its
// first unrecoverable I/O error or an explicit Close; it never reopens, and
// every operation afterwards fails immediately with a closed error.
type Channel[Tx, Rx any] struct {
	br  *bridge.Bridge
	fw  *protocol.FrameWriter
	fr  *protocol.FrameReader
	cdc codec.Codec

	sendMu sync.Mutex
	closed atomic.Bool
}

// New bridges st and returns the typed channel over it. The channel takes
// ownership of the stream.
func New[Tx, Rx any](st transport.Stream, cdc codec.Codec) *Channel[Tx, Rx] {
	br := bridge.New(st)
	ep := br.Endpoint()
	return &Channel[Tx, Rx]{
		br:  br,
		fw:  protocol.NewFrameWriter(ep),
		fr:  protocol.NewFrameReader(ep),
		cdc: cdc,
	}
}

// Send encodes v and delivers it as exactly one frame, or fails with a
// tagged error.
func (c *Channel[Tx, Rx]) Send(v Tx) error {
	if c.closed.Load() {
		return protocol.Closed()
	}
	p, err := c.cdc.Marshal(v)
	if err != nil {
		return protocol.Serialization(err)
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if err := c.fw.WriteFrame(p); err != nil {
		if c.closed.Load() {
			return protocol.Closed()
		}
		if protocol.KindOf(err) == protocol.KindNetwork {
			c.shutdown()
		}
		return err
	}
	return nil
}

// Recv returns the next inbound value. It returns io.EOF once the peer's
// stream ends cleanly.
func (c *Channel[Tx, Rx]) Recv() (Rx, error) {
	var zero Rx
	if c.closed.Load() {
		return zero, protocol.Closed()
	}
	p, err := c.fr.ReadFrame()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return zero, io.EOF
		}
		if c.closed.Load() {
			return zero, protocol.Closed()
		}
		if protocol.KindOf(err) == protocol.KindNetwork {
			c.shutdown()
		}
		return zero, err
	}
	var v Rx
	if err := c.cdc.Unmarshal(p, &v); err != nil {
		return zero, protocol.Serialization(err)
	}
	return v, nil
}

// Messages yields inbound values lazily until the stream ends. A clean peer
// end-of-stream terminates the sequence without an error; any other failure
// is yielded once, then the sequence stops.
func (c *Channel[Tx, Rx]) Messages() iter.Seq2[Rx, error] {
	return func(yield func(Rx, error) bool) {
		for {
			v, err := c.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(v, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// CloseSend half-closes the channel: no further sends, but inbound values
// still arrive until the peer finishes.
func (c *Channel[Tx, Rx]) CloseSend() error {
	return c.br.Endpoint().CloseWrite()
}

// Close marks the channel closed and tears down the bridge. Pending sends
// and receives fail promptly.
func (c *Channel[Tx, Rx]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.br.Close()
}

func (c *Channel[Tx, Rx]) shutdown() {
	if c.closed.CompareAndSwap(false, true) {
		_ = c.br.Close()
	}
}
