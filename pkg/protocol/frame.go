// Package protocol defines the wire framing and the error taxonomy shared by
// the bridging and channel layers. A frame is a u32 little-endian length
// prefix followed by exactly that many payload bytes; a frame is observed
// whole or not at all.
package protocol

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	prefixSize = 4

	// MaxFrameSize bounds a single frame payload.
	MaxFrameSize = 1 << 24
)

// FrameWriter emits length-prefixed frames to an underlying writer.
// A single writer goroutine is assumed; concurrent senders must serialize
// externally.
type FrameWriter struct {
	bw *bufio.Writer
}

func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{bw: bufio.NewWriter(w)}
}

// WriteFrame writes one frame and flushes it so the peer can observe the
// message immediately. An oversized payload is rejected before any bytes
// reach the wire.
func (fw *FrameWriter) WriteFrame(p []byte) error {
	if len(p) > MaxFrameSize {
		return Framing(fmt.Errorf("payload of %d bytes exceeds max frame size %d", len(p), MaxFrameSize))
	}
	var lenbuf [prefixSize]byte
	binary.LittleEndian.PutUint32(lenbuf[:], uint32(len(p)))
	if _, err := fw.bw.Write(lenbuf[:]); err != nil {
		return Network(err)
	}
	if _, err := fw.bw.Write(p); err != nil {
		return Network(err)
	}
	if err := fw.bw.Flush(); err != nil {
		return Network(err)
	}
	return nil
}

// FrameReader yields complete frames from an underlying reader in write
// order. It is not restartable: once a read fails, every later call returns
// the same error.
type FrameReader struct {
	br  *bufio.Reader
	err error
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{br: bufio.NewReader(r)}
}

// ReadFrame returns the next payload. io.EOF is returned only when the
// stream ends on a clean frame boundary; a stream that ends mid-frame yields
// a framing error, never a partial payload.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	if fr.err != nil {
		return nil, fr.err
	}
	p, err := fr.next()
	if err != nil {
		fr.err = err
	}
	return p, err
}

func (fr *FrameReader) next() ([]byte, error) {
	var lenbuf [prefixSize]byte
	if n, err := io.ReadFull(fr.br, lenbuf[:]); err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return nil, io.EOF
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, Framing(fmt.Errorf("stream ended %d bytes into a length prefix", n))
		}
		return nil, Network(err)
	}
	size := binary.LittleEndian.Uint32(lenbuf[:])
	if size > MaxFrameSize {
		return nil, Framing(fmt.Errorf("declared payload of %d bytes exceeds max frame size %d", size, MaxFrameSize))
	}
	buf := make([]byte, int(size))
	if n, err := io.ReadFull(fr.br, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, Framing(fmt.Errorf("stream ended %d bytes into a %d byte payload", n, size))
		}
		return nil, Network(err)
	}
	return buf, nil
}
