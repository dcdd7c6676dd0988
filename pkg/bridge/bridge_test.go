package bridge

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/Masterchef365/web-transport-test/pkg/transport"
	"github.com/Masterchef365/web-transport-test/pkg/transport/mem"
)

// streamPair returns two connected raw streams via an in-memory session.
func streamPair(t *testing.T) (transport.Stream, transport.Stream) {
	t.Helper()
	a, b := mem.NewSessionPair()
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	st1, err := a.OpenStream(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	st2, err := b.AcceptStream(ctx)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	return st1, st2
}

func TestInboundFidelityUnderFragmentation(t *testing.T) {
	local, remote := streamPair(t)

	b := New(local)
	defer b.Close()
	ep := b.Endpoint()

	rng := rand.New(rand.NewSource(1))
	payload := make([]byte, 64*1024)
	rng.Read(payload)

	go func() {
		// deliver in arbitrarily small fragments
		rest := payload
		for len(rest) > 0 {
			n := 1 + rng.Intn(97)
			if n > len(rest) {
				n = len(rest)
			}
			if _, err := remote.Write(rest[:n]); err != nil {
				return
			}
			rest = rest[n:]
		}
		_ = remote.CloseWrite()
	}()

	got, err := io.ReadAll(ep)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("inbound bytes corrupted: got %d bytes, want %d", len(got), len(payload))
	}
}

func TestOutboundFidelity(t *testing.T) {
	local, remote := streamPair(t)

	b := New(local)
	defer b.Close()
	ep := b.Endpoint()

	payload := bytes.Repeat([]byte("forwarding"), 10_000)
	go func() {
		if _, err := ep.Write(payload); err != nil {
			return
		}
		_ = ep.CloseWrite()
	}()

	got, err := io.ReadAll(remote)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("outbound bytes corrupted: got %d bytes, want %d", len(got), len(payload))
	}
	// clean half-close in both directions is not a bridging error
	_ = remote.CloseWrite()
	if _, err := io.ReadAll(ep); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if err := b.Wait(); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
}

func TestCloseUnblocksPendingReader(t *testing.T) {
	local, _ := streamPair(t)

	b := New(local)
	ep := b.Endpoint()

	readErr := make(chan error, 1)
	go func() {
		_, err := ep.Read(make([]byte, 16))
		readErr <- err
	}()

	time.Sleep(10 * time.Millisecond)
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case err := <-readErr:
		if err == nil {
			t.Fatalf("pending read should fail after close")
		}
	case <-time.After(time.Second):
		t.Fatalf("pending read did not unblock after close")
	}
	// second close is a no-op
	if err := b.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestNetworkFailureSurfacesAsBridgingError(t *testing.T) {
	local, remote := streamPair(t)

	b := New(local)
	defer b.Close()
	ep := b.Endpoint()

	// hard-close the remote end so the next forwarded write fails
	_ = remote.Close()

	deadline := time.After(time.Second)
	for {
		if _, err := ep.Write([]byte("doomed")); err != nil {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("write never failed after remote close")
		default:
		}
	}
	if err := b.Wait(); err == nil {
		t.Fatalf("expected a bridging error after network failure")
	}
}
