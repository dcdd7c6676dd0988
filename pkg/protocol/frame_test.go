package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestFrameRoundTripLengths(t *testing.T) {
	lengths := []int{0, 1, 4095, 4096, 1_000_000}

	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	payloads := make([][]byte, 0, len(lengths))
	for i, n := range lengths {
		p := bytes.Repeat([]byte{byte('a' + i)}, n)
		payloads = append(payloads, p)
		if err := fw.WriteFrame(p); err != nil {
			t.Fatalf("write frame len=%d: %v", n, err)
		}
	}

	fr := NewFrameReader(&buf)
	for i, want := range payloads {
		got, err := fr.ReadFrame()
		if err != nil {
			t.Fatalf("read frame %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("frame %d mismatch: got %d bytes, want %d", i, len(got), len(want))
		}
	}
	if _, err := fr.ReadFrame(); err != io.EOF {
		t.Fatalf("expected io.EOF at clean end, got %v", err)
	}
}

func TestFrameReaderCleanEOF(t *testing.T) {
	fr := NewFrameReader(bytes.NewReader(nil))
	if _, err := fr.ReadFrame(); err != io.EOF {
		t.Fatalf("expected io.EOF on empty stream, got %v", err)
	}
	// sticky
	if _, err := fr.ReadFrame(); err != io.EOF {
		t.Fatalf("expected io.EOF on second read, got %v", err)
	}
}

func TestFrameReaderTruncatedPrefix(t *testing.T) {
	fr := NewFrameReader(bytes.NewReader([]byte{0x01, 0x02}))
	_, err := fr.ReadFrame()
	if KindOf(err) != KindFraming {
		t.Fatalf("expected framing error for short prefix, got %v", err)
	}
}

func TestFrameReaderTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	if err := fw.WriteFrame(bytes.Repeat([]byte{0xAB}, 100)); err != nil {
		t.Fatalf("write: %v", err)
	}
	// drop the tail so the declared length exceeds what is available
	short := buf.Bytes()[:buf.Len()-40]

	fr := NewFrameReader(bytes.NewReader(short))
	got, err := fr.ReadFrame()
	if KindOf(err) != KindFraming {
		t.Fatalf("expected framing error for truncated payload, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected no partial payload, got %d bytes", len(got))
	}
	// error is sticky
	if _, err2 := fr.ReadFrame(); !errors.Is(err2, err) {
		t.Fatalf("expected sticky error, got %v", err2)
	}
}

func TestFrameReaderOversizedDeclaration(t *testing.T) {
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], MaxFrameSize+1)
	fr := NewFrameReader(bytes.NewReader(prefix[:]))
	if _, err := fr.ReadFrame(); KindOf(err) != KindFraming {
		t.Fatalf("expected framing error for oversized declaration, got %v", err)
	}
}

func TestFrameWriterRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	err := fw.WriteFrame(make([]byte, MaxFrameSize+1))
	if KindOf(err) != KindFraming {
		t.Fatalf("expected framing error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no bytes written, got %d", buf.Len())
	}
}
