package quic

import (
	"context"
	"io"
	"testing"
	"time"
)

func TestDialOpenEcho(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr := New()
	l, err := tr.Listen(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()

	// echo server: first stream of the first session
	srvErr := make(chan error, 1)
	go func() {
		sess, err := l.Accept(ctx)
		if err != nil {
			srvErr <- err
			return
		}
		defer sess.Close()
		st, err := sess.AcceptStream(ctx)
		if err != nil {
			srvErr <- err
			return
		}
		b, err := io.ReadAll(st)
		if err != nil {
			srvErr <- err
			return
		}
		if _, err := st.Write(b); err != nil {
			srvErr <- err
			return
		}
		srvErr <- st.CloseWrite()
	}()

	sess, err := tr.Dial(ctx, l.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sess.Close()

	st, err := sess.OpenStream(ctx)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	if _, err := st.Write([]byte("echo me")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := st.CloseWrite(); err != nil {
		t.Fatalf("close write: %v", err)
	}
	got, err := io.ReadAll(st)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "echo me" {
		t.Fatalf("echo mismatch: %q", got)
	}
	if err := <-srvErr; err != nil {
		t.Fatalf("server: %v", err)
	}
}
