// Package bridge converts one network bidirectional stream into a local
// duplex byte endpoint by running two independent forwarding loops. The
// codecs above it only ever see the uniform endpoint, regardless of whether
// the other end is a QUIC half-stream or an in-process pipe.
package bridge

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Masterchef365/web-transport-test/pkg/protocol"
	"github.com/Masterchef365/web-transport-test/pkg/transport"
)

const (
	// bufferSize is the outbound loop's chunk size.
	bufferSize = 4096
	// maxReadBytes bounds a single inbound network read.
	maxReadBytes = 4096
)

// Endpoint is the local side of a bridged stream. Reads observe bytes that
// arrived from the network; writes are forwarded to it. The pipes are
// unbuffered, so a stalled counterpart backpressures the writer.
type Endpoint struct {
	r *io.PipeReader // network -> local
	w *io.PipeWriter // local -> network
}

func (e *Endpoint) Read(p []byte) (int, error)  { return e.r.Read(p) }
func (e *Endpoint) Write(p []byte) (int, error) { return e.w.Write(p) }

// CloseWrite ends the outbound flow; the bridge half-closes the network
// stream once the remaining bytes have been forwarded.
func (e *Endpoint) CloseWrite() error { return e.w.Close() }

// Close tears down both directions of the endpoint.
func (e *Endpoint) Close() error {
	_ = e.w.Close()
	return e.r.Close()
}

// Bridge owns one transport.Stream and the two forwarding loops moving bytes
// between it and the local Endpoint. Both loops live under a single teardown
// handle: Close cancels them together and Wait joins them, so a dead
// direction cannot leak its counterpart.
//
// Each loop has disjoint ownership: the outbound loop owns the stream's
// write half plus the endpoint's read-out pipe, the inbound loop owns the
// stream's read half plus the endpoint's write-in pipe. No locking between
// them.
type Bridge struct {
	st transport.Stream
	ep *Endpoint

	outR *io.PipeReader // local -> network, read by the outbound loop
	inW  *io.PipeWriter // network -> local, written by the inbound loop

	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool

	mu       sync.Mutex
	firstErr error

	log *zap.Logger
}

// New takes ownership of st and starts both forwarding loops.
func New(st transport.Stream) *Bridge {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	b := &Bridge{
		st:   st,
		ep:   &Endpoint{r: inR, w: outW},
		outR: outR,
		inW:  inW,
		log:  zap.L().Named("bridge"),
	}
	b.wg.Add(2)
	go b.outbound()
	go b.inbound()
	return b
}

// Endpoint returns the local duplex side. The caller owns it.
func (b *Bridge) Endpoint() *Endpoint { return b.ep }

// Close tears down the endpoint, both loops and the underlying stream, then
// joins the loops. Safe to call more than once.
func (b *Bridge) Close() error {
	b.once.Do(func() {
		b.closed.Store(true)
		_ = b.ep.Close()
		_ = b.st.Close()
	})
	b.wg.Wait()
	return b.Err()
}

// Wait blocks until both loops have stopped and returns the first bridging
// error, if any. A clean end-of-stream in both directions returns nil.
func (b *Bridge) Wait() error {
	b.wg.Wait()
	return b.Err()
}

// Err returns the first bridging error recorded so far.
func (b *Bridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.firstErr
}

// outbound forwards local writes to the network stream in bounded chunks.
func (b *Bridge) outbound() {
	defer b.wg.Done()
	buf := make([]byte, bufferSize)
	for {
		n, err := b.outR.Read(buf)
		if n > 0 {
			if _, werr := b.st.Write(buf[:n]); werr != nil {
				b.fail(werr)
				// unblock local writers; they observe the network error
				b.outR.CloseWithError(werr)
				return
			}
		}
		if err != nil {
			// local side finished writing; tell the peer
			_ = b.st.CloseWrite()
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				b.fail(err)
			}
			return
		}
	}
}

// inbound forwards network reads to the local endpoint.
func (b *Bridge) inbound() {
	defer b.wg.Done()
	buf := make([]byte, maxReadBytes)
	for {
		n, err := b.st.Read(buf)
		if n > 0 {
			if _, werr := b.inW.Write(buf[:n]); werr != nil {
				// local reader went away; nothing left to deliver to
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				// clean end-of-stream: local reads drain, then see EOF
				_ = b.inW.Close()
				return
			}
			b.fail(err)
			b.inW.CloseWithError(err)
			return
		}
	}
}

func (b *Bridge) fail(err error) {
	if b.closed.Load() {
		// deliberate teardown, not a bridging failure
		return
	}
	b.mu.Lock()
	if b.firstErr == nil {
		b.firstErr = protocol.Network(err)
	}
	b.mu.Unlock()
	b.log.Debug("forwarding loop terminated", zap.Error(err))
}
